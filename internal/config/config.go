// Package config loads flowsupport settings from YAML or TOML, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/flowsupport/internal/domain/rules"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "flowsupport.yaml"

// ErrMissingCredential is returned when the configured LLM provider needs an API key that is not set.
var ErrMissingCredential = errors.New("missing API credential")

// PathsConfig locates the input PDFs and the generated artifacts.
type PathsConfig struct {
	RawDir     string `yaml:"raw_dir" toml:"raw_dir"`
	ChunksFile string `yaml:"chunks_file" toml:"chunks_file"`
	IndexDir   string `yaml:"index_dir" toml:"index_dir"`
}

// ChunkingConfig controls how page text is split.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size" toml:"chunk_size"`
	Overlap   int `yaml:"overlap" toml:"overlap"`
	MinChars  int `yaml:"min_chars" toml:"min_chars"`
}

// VectorStoreConfig selects the index backend, collection and query sizes.
type VectorStoreConfig struct {
	Backend    string `yaml:"backend" toml:"backend"`
	Collection string `yaml:"collection" toml:"collection"`
	NResults   int    `yaml:"n_results" toml:"n_results"`
	BatchSize  int    `yaml:"batch_size" toml:"batch_size"`
}

// EmbedderConfig selects the sentence-embedding backend.
type EmbedderConfig struct {
	Provider  string `yaml:"provider" toml:"provider"`
	BaseURL   string `yaml:"base_url" toml:"base_url"`
	Model     string `yaml:"model" toml:"model"`
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`
}

// LLMConfig selects the hosted language model.
type LLMConfig struct {
	Provider    string `yaml:"provider" toml:"provider"`
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	Model       string `yaml:"model" toml:"model"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// Timeout returns the configured request timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// APIKey reads the credential from the environment.
func (c LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// ServerConfig configures the HTTP chat UI.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`

	// QueryRate caps /api/query requests per second across all clients; 0 disables it.
	QueryRate  float64 `yaml:"query_rate" toml:"query_rate"`
	QueryBurst int     `yaml:"query_burst" toml:"query_burst"`
}

// RulesConfig overrides the built-in rule tables. Unset tables and thresholds
// keep their defaults; a threshold set to 0 stays 0.
type RulesConfig struct {
	Categories           []rules.CategoryRule   `yaml:"categories" toml:"categories"`
	RequirementsTriggers []string               `yaml:"requirements_triggers" toml:"requirements_triggers"`
	DeviceProblems       []string               `yaml:"device_problems" toml:"device_problems"`
	InstallationKeywords []string               `yaml:"installation_keywords" toml:"installation_keywords"`
	DeviceIndicators     []string               `yaml:"device_indicators" toml:"device_indicators"`
	Escalations          []rules.EscalationRule `yaml:"escalations" toml:"escalations"`

	LowRelevanceThreshold *float64 `yaml:"low_relevance_threshold" toml:"low_relevance_threshold"`
	HighConfidenceAbove   *float64 `yaml:"high_confidence_above" toml:"high_confidence_above"`
	MediumConfidenceAbove *float64 `yaml:"medium_confidence_above" toml:"medium_confidence_above"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Paths       PathsConfig       `yaml:"paths" toml:"paths"`
	Chunking    ChunkingConfig    `yaml:"chunking" toml:"chunking"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Rules       *RulesConfig      `yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads a config from path. If the file does not exist, defaults are returned.
// Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, or TOML when path ends in .toml.
func Save(path string, cfg *AppConfig) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, cfg *AppConfig) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Paths: PathsConfig{
			RawDir:     "data/raw",
			ChunksFile: "data/processed/document_chunks.json",
			IndexDir:   "data/index",
		},
		Chunking:    ChunkingConfig{ChunkSize: 500, Overlap: 50, MinChars: 50},
		VectorStore: VectorStoreConfig{Backend: "sqlite", Collection: "flow_docs", NResults: 5, BatchSize: 100},
		Embedder: EmbedderConfig{
			Provider:  "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 120,
		},
		Server: ServerConfig{Addr: ":8080", QueryRate: 2, QueryBurst: 5},
	}
}

// RulesOrDefault returns the configured rules merged over the defaults.
func (c *AppConfig) RulesOrDefault() rules.Rules {
	r := rules.Default()
	if c.Rules == nil {
		return r
	}
	o := c.Rules
	if len(o.Categories) > 0 {
		r.Categories = o.Categories
	}
	if len(o.RequirementsTriggers) > 0 {
		r.RequirementsTriggers = o.RequirementsTriggers
	}
	if len(o.DeviceProblems) > 0 {
		r.DeviceProblems = o.DeviceProblems
	}
	if len(o.InstallationKeywords) > 0 {
		r.InstallationKeywords = o.InstallationKeywords
	}
	if len(o.DeviceIndicators) > 0 {
		r.DeviceIndicators = o.DeviceIndicators
	}
	if len(o.Escalations) > 0 {
		r.Escalations = o.Escalations
	}
	if o.LowRelevanceThreshold != nil {
		r.LowRelevanceThreshold = *o.LowRelevanceThreshold
	}
	if o.HighConfidenceAbove != nil {
		r.HighConfidenceAbove = *o.HighConfidenceAbove
	}
	if o.MediumConfidenceAbove != nil {
		r.MediumConfidenceAbove = *o.MediumConfidenceAbove
	}
	return r
}

// Validate checks values that would make the pipeline misbehave.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunking.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.overlap must be in [0, chunk_size), got %d", c.Chunking.Overlap))
	}
	switch c.VectorStore.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown vector_store backend %q", c.VectorStore.Backend))
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection is required"))
	}
	switch c.Embedder.Provider {
	case "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder provider %q", c.Embedder.Provider))
	}
	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if err := c.RulesOrDefault().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}
	return errors.Join(errs...)
}

// RequireCredentials fails when a hosted provider is selected but its API key is unset.
func (c *AppConfig) RequireCredentials() error {
	if c.LLM.Provider == "openai" && c.LLM.APIKey() == "" {
		return fmt.Errorf("%w: set %s", ErrMissingCredential, c.LLM.APIKeyEnv)
	}
	if c.Embedder.Provider == "openai" && os.Getenv(c.Embedder.APIKeyEnv) == "" {
		return fmt.Errorf("%w: set %s", ErrMissingCredential, c.Embedder.APIKeyEnv)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	d := Default()
	if cfg.Paths.RawDir == "" {
		cfg.Paths.RawDir = d.Paths.RawDir
	}
	if cfg.Paths.ChunksFile == "" {
		cfg.Paths.ChunksFile = d.Paths.ChunksFile
	}
	if cfg.Paths.IndexDir == "" {
		cfg.Paths.IndexDir = d.Paths.IndexDir
	}
	if cfg.Chunking.MinChars == 0 {
		cfg.Chunking.MinChars = d.Chunking.MinChars
	}
	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = d.VectorStore.Backend
	}
	if cfg.VectorStore.NResults <= 0 {
		cfg.VectorStore.NResults = d.VectorStore.NResults
	}
	if cfg.VectorStore.BatchSize <= 0 {
		cfg.VectorStore.BatchSize = d.VectorStore.BatchSize
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = d.Embedder.APIKeyEnv
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = d.LLM.APIKeyEnv
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = d.LLM.TimeoutSecs
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.QueryBurst <= 0 {
		cfg.Server.QueryBurst = d.Server.QueryBurst
	}
}

func applyEnv(cfg *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("FLOWSUPPORT_RAW_DIR", &cfg.Paths.RawDir)
	setString("FLOWSUPPORT_CHUNKS_FILE", &cfg.Paths.ChunksFile)
	setString("FLOWSUPPORT_INDEX_DIR", &cfg.Paths.IndexDir)
	setString("FLOWSUPPORT_INDEX_BACKEND", &cfg.VectorStore.Backend)
	setString("FLOWSUPPORT_COLLECTION", &cfg.VectorStore.Collection)
	setString("FLOWSUPPORT_EMBEDDER_PROVIDER", &cfg.Embedder.Provider)
	setString("FLOWSUPPORT_EMBEDDER_BASE_URL", &cfg.Embedder.BaseURL)
	setString("FLOWSUPPORT_EMBEDDER_MODEL", &cfg.Embedder.Model)
	setString("FLOWSUPPORT_LLM_PROVIDER", &cfg.LLM.Provider)
	setString("FLOWSUPPORT_LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("FLOWSUPPORT_LLM_MODEL", &cfg.LLM.Model)
	setString("FLOWSUPPORT_ADDR", &cfg.Server.Addr)
	if v := os.Getenv("FLOWSUPPORT_N_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.VectorStore.NResults = n
		}
	}
}
