package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// File paths and storage
	SourcesCSVPath string
	DBDriver       string
	DBPath         string
	DBDSN          string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Scheduling
	Interval   time.Duration
	RunTimeout time.Duration

	// Ingestion settings
	MaxEntries   int
	FetchTimeout time.Duration
	UserAgent    string
	Keywords     []string

	// Seen-URL cache, empty URL disables it
	RedisURL string
	SeenTTL  time.Duration

	// Notifications, empty URL disables them
	AMQPURL      string
	AMQPExchange string

	// Raw feed archive, empty bucket disables it
	ArchiveBucket    string
	ArchiveEndpoint  string
	ArchiveRegion    string
	ArchiveAccessKey string
	ArchiveSecretKey string

	// Enrichment
	LLMEndpoint string
	LLMModel    string
	LLMAPIKey   string
	EnrichBatch int
	EnrichDelay time.Duration

	// Log settings
	LogLevel zerolog.Level
}

// FileConfig is the optional YAML overlay pointed to by UUTISVAHTI_CONFIG.
type FileConfig struct {
	Ingest struct {
		MaxEntries   int           `yaml:"max_entries"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		UserAgent    string        `yaml:"user_agent"`
		Keywords     []string      `yaml:"keywords"`
	} `yaml:"ingest"`
	Enrich struct {
		Endpoint string        `yaml:"endpoint"`
		Model    string        `yaml:"model"`
		Batch    int           `yaml:"batch"`
		Delay    time.Duration `yaml:"delay"`
	} `yaml:"enrich"`
}

// DefaultConfig returns an initial configuration with hardcoded defaults
// and environment overrides applied.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		SourcesCSVPath:   DefaultSourcesCSVPath,
		DBDriver:         GetEnvString("UUTISVAHTI_DB_DRIVER", DefaultDBDriver),
		DBPath:           DefaultDBPath,
		DBDSN:            GetEnvString("UUTISVAHTI_DB_DSN", ""),
		ServerHost:       DefaultServerHost,
		ServerPort:       DefaultServerPort,
		APIKey:           GetEnvString("UUTISVAHTI_API_KEY", ""),
		Interval:         time.Duration(DefaultInterval) * time.Minute,
		RunTimeout:       GetEnvDuration("UUTISVAHTI_RUN_TIMEOUT", time.Duration(DefaultRunTimeout)*time.Minute),
		MaxEntries:       GetEnvInt("UUTISVAHTI_MAX_ENTRIES", DefaultMaxEntries),
		FetchTimeout:     GetEnvDuration("UUTISVAHTI_FETCH_TIMEOUT", time.Duration(DefaultFetchTimeout)*time.Second),
		UserAgent:        GetEnvString("UUTISVAHTI_USER_AGENT", DefaultUserAgent),
		Keywords:         GetEnvStrings("UUTISVAHTI_KEYWORDS", nil),
		RedisURL:         GetEnvString("UUTISVAHTI_REDIS_URL", ""),
		SeenTTL:          GetEnvDuration("UUTISVAHTI_SEEN_TTL", time.Duration(DefaultSeenTTL)*time.Hour),
		AMQPURL:          GetEnvString("UUTISVAHTI_AMQP_URL", ""),
		AMQPExchange:     GetEnvString("UUTISVAHTI_AMQP_EXCHANGE", DefaultAMQPExchange),
		ArchiveBucket:    GetEnvString("UUTISVAHTI_ARCHIVE_BUCKET", ""),
		ArchiveEndpoint:  GetEnvString("UUTISVAHTI_ARCHIVE_ENDPOINT", ""),
		ArchiveRegion:    GetEnvString("UUTISVAHTI_ARCHIVE_REGION", "auto"),
		ArchiveAccessKey: GetEnvString("UUTISVAHTI_ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey: GetEnvString("UUTISVAHTI_ARCHIVE_SECRET_KEY", ""),
		LLMEndpoint:      GetEnvString("UUTISVAHTI_LLM_ENDPOINT", DefaultLLMEndpoint),
		LLMModel:         GetEnvString("UUTISVAHTI_LLM_MODEL", DefaultLLMModel),
		LLMAPIKey:        GetEnvString("UUTISVAHTI_LLM_API_KEY", ""),
		EnrichBatch:      GetEnvInt("UUTISVAHTI_ENRICH_BATCH", DefaultEnrichBatch),
		EnrichDelay:      GetEnvDuration("UUTISVAHTI_ENRICH_DELAY", time.Duration(DefaultEnrichDelay)*time.Second),
		LogLevel:         GetEnvLogLevel("UUTISVAHTI_LOG_LEVEL", logLevel),
	}
}

// Load reads an optional .env file, builds the default configuration and
// applies the YAML overlay named by UUTISVAHTI_CONFIG, if any.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := DefaultConfig()

	if path := GetEnvString("UUTISVAHTI_CONFIG", ""); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ApplyFile overlays non-zero values from a YAML config file.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Ingest.MaxEntries > 0 {
		c.MaxEntries = fc.Ingest.MaxEntries
	}
	if fc.Ingest.FetchTimeout > 0 {
		c.FetchTimeout = fc.Ingest.FetchTimeout
	}
	if fc.Ingest.UserAgent != "" {
		c.UserAgent = fc.Ingest.UserAgent
	}
	if len(fc.Ingest.Keywords) > 0 {
		c.Keywords = fc.Ingest.Keywords
	}
	if fc.Enrich.Endpoint != "" {
		c.LLMEndpoint = fc.Enrich.Endpoint
	}
	if fc.Enrich.Model != "" {
		c.LLMModel = fc.Enrich.Model
	}
	if fc.Enrich.Batch > 0 {
		c.EnrichBatch = fc.Enrich.Batch
	}
	if fc.Enrich.Delay > 0 {
		c.EnrichDelay = fc.Enrich.Delay
	}

	return nil
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// DataSource returns the connection string for the configured driver.
// SQLite uses the file path, everything else the DSN.
func (c *Config) DataSource() string {
	if c.DBDriver == DefaultDBDriver {
		return c.DBPath
	}
	return c.DBDSN
}
