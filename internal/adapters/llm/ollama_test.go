package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaLLM_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.System != "be brief" || req.Prompt != "Hi" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "Hello there!",
			"done":     true,
		})
	}))
	defer server.Close()

	l := NewOllamaLLM(server.URL+"/", "test-model", time.Second)
	resp, err := l.Generate(context.Background(), "be brief", "Hi")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if resp != "Hello there!" {
		t.Errorf("unexpected response: %s", resp)
	}
}

func TestOllamaLLM_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	_, err := NewOllamaLLM(server.URL, "nope", 0).Generate(context.Background(), "", "test")
	if err == nil {
		t.Fatal("should error on 404")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should carry the server message: %v", err)
	}
}

func TestOllamaLLM_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewOllamaLLM(server.URL, "m", 0).Generate(ctx, "", "test"); err == nil {
		t.Error("should error on cancelled context")
	}
}

func TestOllamaLLM_DefaultValues(t *testing.T) {
	l := NewOllamaLLM("", "", 0)
	if l.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if l.model != DefaultOllamaModel {
		t.Errorf("should default to %s", DefaultOllamaModel)
	}
	if l.client.Timeout != 120*time.Second {
		t.Errorf("unexpected timeout %v", l.client.Timeout)
	}
}
