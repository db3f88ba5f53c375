package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level villabot configuration, loaded from
// villabot.yaml (path from CONFIG_PATH) with env overrides.
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Search   SearchConfig   `mapstructure:"search"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Proposal ProposalConfig `mapstructure:"proposal"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes the tabular dataset the bot serves.
type DatasetConfig struct {
	// Partitions are the per-area dataset partitions, in menu order.
	Partitions []string `mapstructure:"partitions"`
	// Headers are the canonical column headers expected in every partition.
	Headers []string `mapstructure:"headers"`
	// Region is appended to every enrichment search query.
	Region string `mapstructure:"region"`
}

// SearchConfig configures the external search provider.
type SearchConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Country        string        `mapstructure:"country"`
	Language       string        `mapstructure:"language"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	// MaxQPS caps outbound provider calls across all sessions.
	MaxQPS float64 `mapstructure:"max_qps"`
}

// LLMConfig configures the generative backend sidecar.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig bounds the conversational agent loop.
type AgentConfig struct {
	MaxTurns int `mapstructure:"max_turns"`
}

// ProposalConfig controls staged-update eviction.
type ProposalConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RedisConfig selects the Redis-backed proposal store when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the SQL driver and DSN for the dataset store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// HTTPConfig configures the chat/metrics HTTP surface.
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// TracingConfig configures optional OTLP tracing.
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads villabot.yaml from CONFIG_PATH (default ./villabot.yaml),
// applies VILLABOT_-prefixed env overrides, and fills defaults.
func Load() (*Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "villabot.yaml"
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)
	v.SetEnvPrefix("VILLABOT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Dataset.Headers) == 0 {
		c.Dataset.Headers = DefaultHeaders()
	}
	if c.Dataset.Region == "" {
		c.Dataset.Region = "Bali"
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://serpapi.com/search"
	}
	if c.Search.Country == "" {
		c.Search.Country = "id"
	}
	if c.Search.Language == "" {
		c.Search.Language = "id"
	}
	if c.Search.ConnectTimeout == 0 {
		c.Search.ConnectTimeout = 20 * time.Second
	}
	if c.Search.ReadTimeout == 0 {
		c.Search.ReadTimeout = 30 * time.Second
	}
	if c.Search.MaxQPS == 0 {
		c.Search.MaxQPS = 2
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://llm-service:8000"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = 8
	}
	if c.Proposal.TTL == 0 {
		c.Proposal.TTL = 30 * time.Minute
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite3"
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "villabot.db"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 60 * time.Second
	}
	if c.HTTP.GracefulTimeout == 0 {
		c.HTTP.GracefulTimeout = 10 * time.Second
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "villabot"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects configurations the process cannot run with.
func (c *Config) Validate() error {
	if len(c.Dataset.Partitions) == 0 {
		return fmt.Errorf("config: dataset.partitions must not be empty")
	}
	if c.Store.Driver != "sqlite3" && c.Store.Driver != "postgres" {
		return fmt.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Agent.MaxTurns < 1 {
		return fmt.Errorf("config: agent.max_turns must be >= 1")
	}
	return nil
}

// DefaultHeaders returns the canonical column order for every partition.
func DefaultHeaders() []string {
	return []string{
		"Nama",
		"Jenis",
		"Lokasi",
		"Kecamatan",
		"Desa",
		"Tahun Terbangun",
		"Jumlah Kamar",
		"Contact Person",
		"Ulasan Review IT",
	}
}
