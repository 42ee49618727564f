// ABOUTME: Configuration management with environment variable and JSON file support
// ABOUTME: Loaded once at startup; only preferences are mutable and persist back to disk

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"newsfetch-api/core/domain"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig

	// Cache contains cache backend configuration
	Cache CacheConfig

	// Storage contains filesystem and catalog paths
	Storage StorageConfig

	// Pipeline contains fetch/rank tunables
	Pipeline PipelineConfig

	// LLM contains the language-model provider settings from credentials.json
	LLM LLMConfig

	dataDir string

	mu          sync.RWMutex
	preferences Preferences
	sources     map[string][]SourceEntry
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// RequestsPerMinute caps per-client request rate; 0 disables limiting
	RequestsPerMinute int
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (memory/sqlite/redis)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// SQLite contains SQLite cache configuration
	SQLite SQLiteConfig

	// Memory contains in-memory cache configuration
	Memory MemoryConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// SQLiteConfig holds SQLite cache configuration
type SQLiteConfig struct {
	// Path is the cache database file
	Path string
}

// MemoryConfig holds in-memory cache configuration
type MemoryConfig struct {
	// DefaultExpiration is the default TTL for cache entries in seconds
	DefaultExpiration int
}

// StorageConfig holds filesystem paths
type StorageConfig struct {
	// DataDir is the root for config files and generated artifacts
	DataDir string

	// CatalogDBPath is the catalog database file
	CatalogDBPath string

	// EPUBDir is where built EPUB files land
	EPUBDir string
}

// PipelineConfig holds fetch and ranking tunables
type PipelineConfig struct {
	// FeedCacheTTL is the feed cache lifetime in seconds
	FeedCacheTTL int

	// ArticleCacheTTL is the extracted article cache lifetime in seconds
	ArticleCacheTTL int

	// FetchConcurrency bounds parallel source fetches
	FetchConcurrency int

	// FetchRetries bounds attempts per outbound GET
	FetchRetries int

	// FetchBackoffMS is the initial retry backoff in milliseconds
	FetchBackoffMS int

	// LLMTimeout bounds LLM calls in seconds
	LLMTimeout int

	// RankTopK is the LLM rerank window
	RankTopK int

	// RankTopN is the default collection size
	RankTopN int

	// HeuristicWeight and LLMWeight combine ranking scores
	HeuristicWeight float64
	LLMWeight       float64
}

// LLMConfig holds language-model provider settings
type LLMConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Preferences holds the user's reading preferences
type Preferences struct {
	Interests          []string `json:"interests"`
	Sources            []string `json:"sources"`
	Language           string   `json:"language"`
	MaxArticlesPerFeed int      `json:"max_articles_per_feed"`
	EnableFullText     bool     `json:"enable_full_text"`
	PreferredFormats   []string `json:"preferred_formats"`
	ExcludeDomains     []string `json:"exclude_domains"`
	KeywordsBoost      []string `json:"keywords_boost"`
	KeywordsFilter     []string `json:"keywords_filter"`
}

// SourceEntry is one feed in the sources.json registry
type SourceEntry struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	TrustWeight float64 `json:"trust_weight"`
}

// DefaultPreferences returns the preferences used when no file exists yet.
func DefaultPreferences() Preferences {
	return Preferences{
		Interests:          []string{"technology"},
		Language:           "en",
		MaxArticlesPerFeed: 20,
		EnableFullText:     true,
		PreferredFormats:   []string{"epub"},
	}
}

// Load reads environment variables and the JSON config files under
// DataDir/config. Missing files fall back to defaults so a fresh deployment
// starts without manual setup.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvOrDefault("PORT", "8000"),
			RequestsPerMinute: getEnvAsIntOrDefault("REQUESTS_PER_MINUTE", 120),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			SQLite: SQLiteConfig{
				Path: getEnvOrDefault("SQLITE_CACHE_PATH", ""),
			},
			Memory: MemoryConfig{
				DefaultExpiration: getEnvAsIntOrDefault("MEMORY_CACHE_EXPIRATION", 3600),
			},
		},
		Pipeline: PipelineConfig{
			FeedCacheTTL:     getEnvAsIntOrDefault("FEED_CACHE_TTL", 900),
			ArticleCacheTTL:  getEnvAsIntOrDefault("ARTICLE_CACHE_TTL", 86400),
			FetchConcurrency: getEnvAsIntOrDefault("FETCH_CONCURRENCY", 10),
			FetchRetries:     getEnvAsIntOrDefault("FETCH_RETRIES", 3),
			FetchBackoffMS:   getEnvAsIntOrDefault("FETCH_BACKOFF_MS", 100),
			LLMTimeout:       getEnvAsIntOrDefault("LLM_TIMEOUT", 30),
			RankTopK:         getEnvAsIntOrDefault("RANK_TOP_K", 15),
			RankTopN:         getEnvAsIntOrDefault("RANK_TOP_N", 5),
			HeuristicWeight:  getEnvAsFloatOrDefault("HEURISTIC_WEIGHT", 0.4),
			LLMWeight:        getEnvAsFloatOrDefault("LLM_WEIGHT", 0.6),
		},
	}

	cfg.dataDir = getEnvOrDefault("DATA_DIR", "data")
	cfg.Storage = StorageConfig{
		DataDir:       cfg.dataDir,
		CatalogDBPath: getEnvOrDefault("CATALOG_DB_PATH", filepath.Join(cfg.dataDir, "catalog.db")),
		EPUBDir:       getEnvOrDefault("EPUB_DIR", filepath.Join(cfg.dataDir, "epubs")),
	}
	if cfg.Cache.SQLite.Path == "" {
		cfg.Cache.SQLite.Path = filepath.Join(cfg.dataDir, "cache.db")
	}

	if err := cfg.loadPreferences(); err != nil {
		return nil, err
	}
	if err := cfg.loadSources(); err != nil {
		return nil, err
	}
	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) configDir() string {
	return filepath.Join(c.dataDir, "config")
}

func (c *Config) loadPreferences() error {
	path := filepath.Join(c.configDir(), "preferences.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.preferences = DefaultPreferences()
			return nil
		}
		return err
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.preferences = prefs
	return nil
}

func (c *Config) loadSources() error {
	path := filepath.Join(c.configDir(), "sources.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.sources = map[string][]SourceEntry{}
			return nil
		}
		return err
	}

	sources := map[string][]SourceEntry{}
	if err := json.Unmarshal(data, &sources); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.sources = sources
	return nil
}

func (c *Config) loadCredentials() error {
	path := filepath.Join(c.configDir(), "credentials.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var creds struct {
		LLM LLMConfig `json:"llm"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.LLM = creds.LLM
	return nil
}

// Preferences returns a copy of the current preferences.
func (c *Config) Preferences() Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preferences
}

// UpdatePreferences replaces the preferences and persists them. The write is
// atomic: a temp file is renamed over the original.
func (c *Config) UpdatePreferences(prefs Preferences) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := c.configDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "preferences.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	c.preferences = prefs
	return nil
}

// SourcesForTopic resolves a topic to feed sources: exact category match
// first, then partial matches in either direction, then the "general"
// category.
func (c *Config) SourcesForTopic(topic string) []domain.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(topic))

	if entries, ok := c.sources[lowered]; ok {
		return toDomainSources(lowered, entries)
	}

	var matches []domain.Source
	for category, entries := range c.sources {
		cat := strings.ToLower(category)
		if lowered != "" && (strings.Contains(cat, lowered) || strings.Contains(lowered, cat)) {
			matches = append(matches, toDomainSources(category, entries)...)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	return toDomainSources("general", c.sources["general"])
}

// AllSources returns every registered source across categories.
func (c *Config) AllSources() []domain.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []domain.Source
	for category, entries := range c.sources {
		all = append(all, toDomainSources(category, entries)...)
	}
	return all
}

func toDomainSources(category string, entries []SourceEntry) []domain.Source {
	sources := make([]domain.Source, 0, len(entries))
	for _, entry := range entries {
		trust := entry.TrustWeight
		if trust == 0 {
			trust = 0.5
		}
		id := entry.ID
		if id == "" {
			id = entry.URL
		}
		sources = append(sources, domain.Source{
			ID:          id,
			URL:         entry.URL,
			Category:    category,
			TrustWeight: trust,
		})
	}
	return sources
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault returns the environment variable as float64 or a default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	switch c.Cache.Type {
	case "memory", "sqlite", "redis":
	default:
		return errors.New("cache type must be 'memory', 'sqlite' or 'redis'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Cache.Type == "sqlite" && c.Cache.SQLite.Path == "" {
		return errors.New("sqlite cache path cannot be empty when using sqlite cache")
	}

	if c.Pipeline.FetchConcurrency < 1 {
		return errors.New("fetch concurrency must be at least 1")
	}

	if c.Pipeline.HeuristicWeight < 0 || c.Pipeline.LLMWeight < 0 {
		return errors.New("ranking weights cannot be negative")
	}

	return nil
}
