// Package config loads application configuration from defaults, an optional
// YAML file and environment variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Weights are the per-source fusion weights. They are normalized to sum to
// 1.0 before scoring; the stored values are the documented defaults.
type Weights struct {
	Semantic float64 `yaml:"semantic" json:"semantic"`
	Keyword  float64 `yaml:"keyword" json:"keyword"`
	Graph    float64 `yaml:"graph" json:"graph"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders the pgx connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Graph holds traversal and path search limits. The depth caps bound query
// cost structurally; the path timeout is the wall-clock budget after which a
// search is reported as timed out rather than "no path".
type Graph struct {
	PathTimeout       time.Duration `yaml:"path_timeout"`
	MaxTraversalDepth int           `yaml:"max_traversal_depth"`
	MaxPathDepth      int           `yaml:"max_path_depth"`
	MaxPathsReturned  int           `yaml:"max_paths_returned"`
}

// Search holds hybrid search tunables.
type Search struct {
	RRFConstant       float64  `yaml:"rrf_constant"`
	StandardWeights   Weights  `yaml:"standard_weights"`
	RelationalWeights Weights  `yaml:"relational_weights"`
	// RelationalKeywords trigger relational weighting on a case-insensitive
	// match. The default list covers English and German agent queries.
	RelationalKeywords []string `yaml:"relational_keywords"`
	// MinProperNounLength is the minimum length at which a sentence-initial
	// capitalized word is still treated as an entity mention.
	MinProperNounLength int    `yaml:"min_proper_noun_length"`
	DefaultTopK         int    `yaml:"default_top_k"`
	MaxTopK             int    `yaml:"max_top_k"`
	SemanticSearchURL   string `yaml:"semantic_search_url"`
	KeywordSearchURL    string `yaml:"keyword_search_url"`
}

// Config holds all application configuration
type Config struct {
	ServerAddress string   `yaml:"server_address"`
	Environment   string   `yaml:"environment"`
	LogLevel      string   `yaml:"log_level"`
	ConfigFile    string   `yaml:"-"`
	Database      Database `yaml:"database"`
	Graph         Graph    `yaml:"graph"`
	Search        Search   `yaml:"search"`

	// Feature flags
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	EnableCORS    bool   `yaml:"enable_cors"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
}

// defaultRelationalKeywords are matched case-insensitively against query
// text. Multi-language on purpose: the agents feeding this engine ask in
// English and German.
var defaultRelationalKeywords = []string{
	"connected", "connection", "related to", "relationship", "depends on",
	"link between", "uses", "who knows", "path between",
	"verbunden", "verbindung", "beziehung", "zusammenhang", "datenbank",
	"abhängig", "nutzt", "pfad",
}

// Default returns the configuration defaults applied before file and
// environment overlays.
func Default() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		Database: Database{
			Host:    "localhost",
			Port:    "5432",
			User:    "synapse",
			Name:    "synapse",
			SSLMode: "disable",
		},
		Graph: Graph{
			PathTimeout:       time.Second,
			MaxTraversalDepth: 5,
			MaxPathDepth:      10,
			MaxPathsReturned:  10,
		},
		Search: Search{
			RRFConstant:         60,
			StandardWeights:     Weights{Semantic: 0.6, Keyword: 0.2, Graph: 0.2},
			RelationalWeights:   Weights{Semantic: 0.4, Keyword: 0.2, Graph: 0.4},
			RelationalKeywords:  defaultRelationalKeywords,
			MinProperNounLength: 4,
			DefaultTopK:         10,
			MaxTopK:             100,
		},
		EnableMetrics: true,
		EnableCORS:    true,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file
// (CONFIG_FILE, falling back to config.yaml when present) and environment
// variables, then validates the result.
func LoadConfig() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_FILE", "")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	loadEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnvironment overlays environment variables, the highest priority
// configuration source.
func loadEnvironment(cfg *Config) {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	if v := getEnvInt("PATH_TIMEOUT_MS", 0); v > 0 {
		cfg.Graph.PathTimeout = time.Duration(v) * time.Millisecond
	}
	if v := getEnvFloat("RRF_CONSTANT", 0); v > 0 {
		cfg.Search.RRFConstant = v
	}
	if v := os.Getenv("RELATIONAL_KEYWORDS"); v != "" {
		cfg.Search.RelationalKeywords = splitAndTrim(v)
	}
	cfg.Search.SemanticSearchURL = getEnv("SEMANTIC_SEARCH_URL", cfg.Search.SemanticSearchURL)
	cfg.Search.KeywordSearchURL = getEnv("KEYWORD_SEARCH_URL", cfg.Search.KeywordSearchURL)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.OTLPEndpoint)
}

// Validate checks if all required configuration is present and coherent.
func (c *Config) Validate() error {
	if c.Environment == "production" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	if c.Graph.PathTimeout <= 0 {
		return fmt.Errorf("graph.path_timeout must be positive")
	}
	if c.Graph.MaxTraversalDepth < 1 || c.Graph.MaxPathDepth < 1 {
		return fmt.Errorf("graph depth limits must be at least 1")
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive")
	}
	if len(c.Search.RelationalKeywords) == 0 {
		return fmt.Errorf("search.relational_keywords must not be empty")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
