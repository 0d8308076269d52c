// Package config loads docqa settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage/qdrant"
	"gopkg.in/yaml.v3"
)

// Vector store backends.
const (
	VectorBackendBadger = "badger"
	VectorBackendQdrant = "qdrant"
)

// StorageConfig selects where sessions and chunks live.
type StorageConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	// VectorBackend is "badger" or "qdrant".
	VectorBackend string `yaml:"vector_backend"`
}

// QueryConfig controls retrieval and answer sampling.
type QueryConfig struct {
	TopK            int     `yaml:"top_k"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	CandidateCount  int     `yaml:"candidate_count"`
}

// GenerationConfig converts the sampling settings for the generator.
func (q QueryConfig) GenerationConfig() ai.GenerationConfig {
	return ai.GenerationConfig{
		Temperature:     q.Temperature,
		MaxOutputTokens: q.MaxOutputTokens,
		CandidateCount:  q.CandidateCount,
	}
}

// IngestionConfig controls document ingestion.
type IngestionConfig struct {
	// PoolSize bounds concurrent ingestions. Zero uses the pipeline default.
	PoolSize int `yaml:"pool_size"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// Config is the root application configuration.
type Config struct {
	AI         ai.Config         `yaml:"ai"`
	Storage    StorageConfig     `yaml:"storage"`
	Qdrant     qdrant.Config     `yaml:"qdrant"`
	Resilience resilience.Config `yaml:"resilience"`
	Query      QueryConfig       `yaml:"query"`
	Ingestion  IngestionConfig   `yaml:"ingestion"`
	Server     ServerConfig      `yaml:"server"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	gen := ai.DefaultGenerationConfig()
	return &Config{
		AI: *ai.DefaultConfig(),
		Storage: StorageConfig{
			InMemory:      true,
			VectorBackend: VectorBackendBadger,
		},
		Qdrant: qdrant.Config{
			Collection: qdrant.DefaultCollection,
		},
		Resilience: resilience.DefaultConfig(),
		Query: QueryConfig{
			TopK:            3,
			Temperature:     gen.Temperature,
			MaxOutputTokens: gen.MaxOutputTokens,
			CandidateCount:  gen.CandidateCount,
		},
		Server: ServerConfig{
			Addr:            ":5000",
			MaxUploadBytes:  20 << 20,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
	}
}

// Load reads a config from path on top of the defaults.
// An empty path or a missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadEnvFiles loads variables from .env files into the process environment.
// Missing files are skipped; existing variables are not overridden.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DOCQA_PROVIDER"); ok {
		c.AI.Provider = strings.ToLower(v)
	}
	switch strings.ToLower(c.AI.Provider) {
	case ai.ProviderGemini:
		if v, ok := get("GEMINI_API_KEY"); ok {
			c.AI.APIKey = v
		}
	case ai.ProviderOpenAI:
		if v, ok := get("OPENAI_API_KEY"); ok {
			c.AI.APIKey = v
		}
		if v, ok := get("OPENAI_BASE_URL"); ok {
			c.AI.Host = v
		}
	}
	if v, ok := get("DOCQA_EMBEDDING_MODEL"); ok {
		c.AI.EmbeddingModel = v
	}
	if v, ok := get("DOCQA_CHAT_MODEL"); ok {
		c.AI.ChatModel = v
	}

	if v, ok := get("PORT"); ok {
		c.Server.Addr = ":" + v
	}
	if v, ok := get("DOCQA_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := get("DOCQA_STORAGE_PATH"); ok {
		c.Storage.Path = v
		c.Storage.InMemory = false
	}

	if v, ok := get("QDRANT_URL"); ok {
		c.Qdrant.URL = v
		c.Storage.VectorBackend = VectorBackendQdrant
	}
	if v, ok := get("QDRANT_API_KEY"); ok {
		c.Qdrant.APIKey = v
	}
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return err
	}

	c.Storage.VectorBackend = strings.ToLower(strings.TrimSpace(c.Storage.VectorBackend))
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage config: Path is required unless InMemory is set")
	}
	switch c.Storage.VectorBackend {
	case VectorBackendBadger:
	case VectorBackendQdrant:
		if c.Qdrant.Dimension == 0 {
			c.Qdrant.Dimension = c.AI.Dimension
		}
		if err := c.Qdrant.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage config: unknown VectorBackend %q", c.Storage.VectorBackend)
	}

	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("resilience config: %w", err)
	}

	if c.Query.TopK < 1 {
		return errors.New("query config: TopK must be at least 1")
	}
	if c.Query.Temperature < 0 {
		return errors.New("query config: Temperature cannot be negative")
	}
	if c.Query.MaxOutputTokens < 0 || c.Query.CandidateCount < 0 {
		return errors.New("query config: MaxOutputTokens and CandidateCount cannot be negative")
	}
	if c.Ingestion.PoolSize < 0 {
		return errors.New("ingestion config: PoolSize cannot be negative")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server config: Addr is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server config: MaxUploadBytes must be positive")
	}
	return nil
}
