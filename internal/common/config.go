package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration, loaded from TOML with
// environment variable and CLI flag overrides applied on top.
type Config struct {
	Environment string          `toml:"environment" validate:"required,oneof=development staging production"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Sync        SyncConfig      `toml:"sync"`
	Sources     SourcesConfig   `toml:"sources"`
	Chunking    ChunkingConfig  `toml:"chunking"`
	Embedding   EmbeddingConfig `toml:"embedding"`
	LLM         LLMConfig       `toml:"llm"`
	Vector      VectorConfig    `toml:"vector"`

	// Per-tenant overrides keyed by tenant id. Only the fields in
	// TenantOverrides may vary per tenant; everything else is app-wide.
	Tenants map[string]TenantOverrides `toml:"tenants"`
}

type ServerConfig struct {
	Host string `toml:"host" validate:"required"`
	Port int    `toml:"port" validate:"required,min=1,max=65535"`
}

type StorageConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"required,oneof=trace debug info warn error"`
	Output []string `toml:"output" validate:"required,min=1,dive,oneof=stdout console file"`
}

type SyncConfig struct {
	// Cron schedule for the background sync of all active sources.
	Schedule string `toml:"schedule"`
	Enabled  bool   `toml:"enabled"`
	// Root directory for uploaded documents; one subdirectory per tenant.
	UploadDir string `toml:"upload_dir"`
}

type SourcesConfig struct {
	YouTubeAPIKey string `toml:"youtube_api_key"`
	// Page fetches per second against a single remote host.
	FetchRatePerSecond    float64 `toml:"fetch_rate_per_second" validate:"min=0"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds" validate:"min=1"`
}

type ChunkingConfig struct {
	Strategy   string `toml:"strategy" validate:"required,oneof=window semantic"`
	WindowSize int    `toml:"window_size"`
	Overlap    int    `toml:"overlap"`
}

type EmbeddingConfig struct {
	Provider  string            `toml:"provider" validate:"required,oneof=gemini openai ollama"`
	Model     string            `toml:"model" validate:"required"`
	Dimension int               `toml:"dimension" validate:"required,min=1"`
	BatchSize int               `toml:"batch_size" validate:"min=1,max=100"`
	Gemini    GeminiCredentials `toml:"gemini"`
	OpenAI    OpenAICredentials `toml:"openai"`
	Ollama    OllamaConfig      `toml:"ollama"`
}

type GeminiCredentials struct {
	APIKey string `toml:"api_key"`
}

type OpenAICredentials struct {
	APIKey string `toml:"api_key"`
}

type OllamaConfig struct {
	BaseURL string `toml:"base_url"`
}

type LLMConfig struct {
	// Provider used for semantic chunking. The embedding Gemini key is
	// reused when the provider is gemini and no key is set here.
	Provider string `toml:"provider" validate:"omitempty,oneof=gemini claude"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

type VectorConfig struct {
	URL              string `toml:"url" validate:"required,url"`
	APIKey           string `toml:"api_key"`
	CollectionPrefix string `toml:"collection_prefix" validate:"required"`
	TimeoutSeconds   int    `toml:"timeout_seconds" validate:"min=1"`
}

// TenantOverrides carries the per-tenant settings that may differ from the
// app-wide defaults. Zero values mean "inherit".
type TenantOverrides struct {
	EmbeddingProvider string `toml:"embedding_provider" validate:"omitempty,oneof=gemini openai ollama"`
	EmbeddingModel    string `toml:"embedding_model"`
	OllamaBaseURL     string `toml:"ollama_base_url"`
	ChunkingStrategy  string `toml:"chunking_strategy" validate:"omitempty,oneof=window semantic"`
	WindowSize        int    `toml:"window_size"`
	Overlap           int    `toml:"overlap"`
}

// TenantSettings is the fully resolved configuration for one tenant:
// app-wide defaults with the tenant's overrides applied field by field.
type TenantSettings struct {
	TenantID          string
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int
	BatchSize         int
	GeminiAPIKey      string
	OpenAIAPIKey      string
	OllamaBaseURL     string
	ChunkingStrategy  string
	WindowSize        int
	Overlap           int
}

// DefaultConfig returns the baseline configuration before any file,
// environment or flag overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Storage: StorageConfig{
			Path:           "./data/curator",
			ResetOnStartup: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Sync: SyncConfig{
			Schedule:  "0 */6 * * *",
			Enabled:   true,
			UploadDir: "./data/uploads",
		},
		Sources: SourcesConfig{
			FetchRatePerSecond:    2,
			RequestTimeoutSeconds: 30,
		},
		Chunking: ChunkingConfig{
			Strategy:   "window",
			WindowSize: 300,
			Overlap:    50,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "text-embedding-004",
			Dimension: 768,
			BatchSize: 100,
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
			},
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Vector: VectorConfig{
			URL:              "http://localhost:6333",
			CollectionPrefix: "curator",
			TimeoutSeconds:   30,
		},
		Tenants: map[string]TenantOverrides{},
	}
}

// LoadConfig loads configuration from the given TOML file (or discovers
// curator.toml next to the executable and in the working directory when
// path is empty), then applies environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = discoverConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// discoverConfigFile looks for curator.toml next to the executable, then in
// the current working directory.
func discoverConfigFile() string {
	candidates := []string{}

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "curator.toml"))
	}
	candidates = append(candidates, "curator.toml")

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// applyEnvOverrides applies CURATOR_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CURATOR_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("CURATOR_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("CURATOR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("CURATOR_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("CURATOR_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CURATOR_SYNC_SCHEDULE"); v != "" {
		config.Sync.Schedule = v
	}
	if v := os.Getenv("CURATOR_YOUTUBE_API_KEY"); v != "" {
		config.Sources.YouTubeAPIKey = v
	}
	if v := os.Getenv("CURATOR_GEMINI_API_KEY"); v != "" {
		config.Embedding.Gemini.APIKey = v
	}
	if v := os.Getenv("CURATOR_OPENAI_API_KEY"); v != "" {
		config.Embedding.OpenAI.APIKey = v
	}
	if v := os.Getenv("CURATOR_OLLAMA_BASE_URL"); v != "" {
		config.Embedding.Ollama.BaseURL = v
	}
	if v := os.Getenv("CURATOR_LLM_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("CURATOR_VECTOR_URL"); v != "" {
		config.Vector.URL = v
	}
	if v := os.Getenv("CURATOR_VECTOR_API_KEY"); v != "" {
		config.Vector.APIKey = v
	}
}

// ApplyFlagOverrides applies CLI flag values on top of the loaded
// configuration. Zero values mean the flag was not set.
func ApplyFlagOverrides(config *Config, host string, port int, logLevel string) {
	if host != "" {
		config.Server.Host = host
	}
	if port > 0 {
		config.Server.Port = port
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks the configuration against struct-level constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TenantSettings resolves the effective settings for a tenant by applying
// its overrides field by field on top of the app-wide defaults.
func (c *Config) TenantSettings(tenantID string) TenantSettings {
	settings := TenantSettings{
		TenantID:          tenantID,
		EmbeddingProvider: c.Embedding.Provider,
		EmbeddingModel:    c.Embedding.Model,
		EmbeddingDim:      c.Embedding.Dimension,
		BatchSize:         c.Embedding.BatchSize,
		GeminiAPIKey:      c.Embedding.Gemini.APIKey,
		OpenAIAPIKey:      c.Embedding.OpenAI.APIKey,
		OllamaBaseURL:     c.Embedding.Ollama.BaseURL,
		ChunkingStrategy:  c.Chunking.Strategy,
		WindowSize:        c.Chunking.WindowSize,
		Overlap:           c.Chunking.Overlap,
	}

	overrides, ok := c.Tenants[tenantID]
	if !ok {
		return settings
	}

	if overrides.EmbeddingProvider != "" {
		settings.EmbeddingProvider = overrides.EmbeddingProvider
	}
	if overrides.EmbeddingModel != "" {
		settings.EmbeddingModel = overrides.EmbeddingModel
	}
	if overrides.OllamaBaseURL != "" {
		settings.OllamaBaseURL = overrides.OllamaBaseURL
	}
	if overrides.ChunkingStrategy != "" {
		settings.ChunkingStrategy = overrides.ChunkingStrategy
	}
	if overrides.WindowSize > 0 {
		settings.WindowSize = overrides.WindowSize
	}
	if overrides.Overlap > 0 {
		settings.Overlap = overrides.Overlap
	}

	return settings
}

// IsDevelopment returns true when running in the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}
