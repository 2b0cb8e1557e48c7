// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, Indexer, Search, Catalog, Kafka, Redis, Postgres).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

// Term kinds produced by the preprocessing step.
const (
	KindLemmas = "lemmas"
	KindTokens = "tokens"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CorpusConfig points at the output of the preprocessing step.
type CorpusConfig struct {
	LemmasDir string `yaml:"lemmasDir"`
	TokensDir string `yaml:"tokensDir"`
	TextDir   string `yaml:"textDir"`
	Workers   int    `yaml:"workers"`
}

// IndexerConfig controls where build artefacts are written and which term
// kinds get weighted. Each kind in Kinds needs its corpus directory; the
// default weights lemmas only.
type IndexerConfig struct {
	DataDir   string   `yaml:"dataDir"`
	IndexFile string   `yaml:"indexFile"`
	Kinds     []string `yaml:"kinds"`
	Threshold float64  `yaml:"threshold"`
	Workers   int      `yaml:"workers"`
}

// IndexPath returns the location of the inverted index file.
func (c IndexerConfig) IndexPath() string {
	if filepath.IsAbs(c.IndexFile) || strings.ContainsRune(c.IndexFile, filepath.Separator) {
		return c.IndexFile
	}
	return filepath.Join(c.DataDir, c.IndexFile)
}

// WeightsDir returns the weight store directory for the given term kind.
func (c IndexerConfig) WeightsDir(kind string) string {
	return filepath.Join(c.DataDir, "weights", kind)
}

// SearchConfig controls query execution limits and presentation.
type SearchConfig struct {
	DefaultLimit  int    `yaml:"defaultLimit"`
	MaxResults    int    `yaml:"maxResults"`
	MaxQueryDepth int    `yaml:"maxQueryDepth"`
	WeightKind    string `yaml:"weightKind"`
	PreviewLength int    `yaml:"previewLength"`
	PreviewCache  int    `yaml:"previewCache"`
	// Stemmer applies a Snowball stemmer to query words. Leave it "none"
	// for lemmatized term files: stems and lemmas differ, so queries
	// would match nothing.
	Stemmer       string `yaml:"stemmer"`
}

// CatalogConfig describes the document-id to URL mapping.
type CatalogConfig struct {
	URLIndexFile string `yaml:"urlIndexFile"`
	DocIDPrefix  string `yaml:"docIdPrefix"`
	Backend      string `yaml:"backend"`
	RedisKey     string `yaml:"redisKey"`
}

// PostgresConfig holds PostgreSQL connection parameters for the build ledger.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects configurations that cannot produce a usable index.
func (c *Config) Validate() error {
	if c.Indexer.DataDir == "" {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "indexer.dataDir is required")
	}
	if c.Indexer.Threshold < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "indexer.threshold must be >= 0, got %g", c.Indexer.Threshold)
	}
	if len(c.Indexer.Kinds) == 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "indexer.kinds must not be empty")
	}
	for _, kind := range c.Indexer.Kinds {
		if kind != KindLemmas && kind != KindTokens {
			return apperrors.Newf(apperrors.ErrInvalidInput, 0, "unknown term kind %q", kind)
		}
	}
	if c.Search.WeightKind != KindLemmas && c.Search.WeightKind != KindTokens {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "unknown search.weightKind %q", c.Search.WeightKind)
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxResults < c.Search.DefaultLimit {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0,
			"search limits invalid: defaultLimit=%d maxResults=%d", c.Search.DefaultLimit, c.Search.MaxResults)
	}
	if c.Search.MaxQueryDepth < 1 {
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "search.maxQueryDepth must be positive")
	}
	switch c.Catalog.Backend {
	case "file":
	case "redis":
		if !c.Redis.Enabled {
			return apperrors.Newf(apperrors.ErrInvalidInput, 0, "catalog.backend=redis requires redis.enabled")
		}
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, 0, "unknown catalog.backend %q", c.Catalog.Backend)
	}
	return nil
}

// defaultConfig mirrors the directory layout produced by the preprocessing
// scripts.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Corpus: CorpusConfig{
			LemmasDir: "lemma_token_output/lemmas",
			TokensDir: "lemma_token_output/tokens",
			TextDir:   "pages_text",
			Workers:   8,
		},
		Indexer: IndexerConfig{
			DataDir:   "data",
			IndexFile: "inverted_index.json",
			Kinds:     []string{KindLemmas},
			Threshold: 0.0001,
			Workers:   8,
		},
		Search: SearchConfig{
			DefaultLimit:  10,
			MaxResults:    100,
			MaxQueryDepth: 64,
			WeightKind:    KindLemmas,
			PreviewLength: 300,
			PreviewCache:  1024,
		},
		Catalog: CatalogConfig{
			URLIndexFile: "index.txt",
			DocIDPrefix:  "page_",
			Backend:      "file",
			RedisKey:     "retrieval:urls",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "retrieval",
			User:            "retrieval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "retrieval-searchers",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads RE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RE_CORPUS_LEMMAS_DIR"); v != "" {
		cfg.Corpus.LemmasDir = v
	}
	if v := os.Getenv("RE_CORPUS_TOKENS_DIR"); v != "" {
		cfg.Corpus.TokensDir = v
	}
	if v := os.Getenv("RE_CORPUS_TEXT_DIR"); v != "" {
		cfg.Corpus.TextDir = v
	}
	if v := os.Getenv("RE_INDEXER_DATA_DIR"); v != "" {
		cfg.Indexer.DataDir = v
	}
	if v := os.Getenv("RE_SEARCH_WEIGHT_KIND"); v != "" {
		cfg.Search.WeightKind = v
	}
	if v := os.Getenv("RE_SEARCH_STEMMER"); v != "" {
		cfg.Search.Stemmer = v
	}
	if v := os.Getenv("RE_CATALOG_URL_INDEX"); v != "" {
		cfg.Catalog.URLIndexFile = v
	}
	if v := os.Getenv("RE_CATALOG_BACKEND"); v != "" {
		cfg.Catalog.Backend = v
	}
	if v := os.Getenv("RE_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = parseBool(v, cfg.Postgres.Enabled)
	}
	if v := os.Getenv("RE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RE_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("RE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RE_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("RE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
