// Package http serves the browser chat UI and its JSON API.
// It is the outermost layer: it only talks to the agent and the index through small interfaces.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

//go:embed static/*
var staticFS embed.FS

const maxQueryBytes = 16 << 10

// Agent answers one support query.
type Agent interface {
	GenerateResponse(ctx context.Context, query string) (*entities.AgentResponse, error)
}

// Counter reports how many chunks are indexed.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the HTTP server for the chat UI and API.
type Server struct {
	agent    Agent
	index    Counter
	sessions *SessionStore
	addr     string
	limiter  *rate.Limiter
}

// NewServer creates a server. index may be nil, in which case health reports no count.
func NewServer(agent Agent, index Counter, addr string) *Server {
	return &Server{
		agent:    agent,
		index:    index,
		sessions: NewSessionStore(DefaultSessionTTL, DefaultMaxSessions),
		addr:     addr,
	}
}

// SetQueryLimit throttles /api/query to perSecond sustained requests with the
// given burst, shared by all clients. A non-positive rate disables the limit.
func (s *Server) SetQueryLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		s.limiter = nil
		return
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, burst))
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	staticContent, _ := fs.Sub(staticFS, "static")
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/health", s.handleHealth)

	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
	}

	logger.Info("flowsupport server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.sessions.FromRequest(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "too many requests, please slow down")
		return
	}

	var query string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req queryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		query = req.Query
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxQueryBytes)
		r.ParseForm()
		query = r.FormValue("query")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}

	sess := s.sessions.FromRequest(w, r)
	resp, err := s.agent.GenerateResponse(r.Context(), query)
	if err != nil {
		logger.Error("query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not answer right now, please try again")
		return
	}
	sess.Record(resp)

	writeJSON(w, http.StatusOK, NewQueryView(resp, sess.Stats()))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.sessions.Existing(r)
	if !ok {
		writeJSON(w, http.StatusOK, entities.SessionStats{})
		return
	}
	writeJSON(w, http.StatusOK, sess.Stats())
}

type healthView struct {
	Status string `json:"status"`
	Chunks *int   `json:"chunks,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeJSON(w, http.StatusOK, healthView{Status: "ok"})
		return
	}
	n, err := s.index.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthView{Status: "degraded", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthView{Status: "ok", Chunks: &n})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
