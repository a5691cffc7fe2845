// Package config loads the settings shared by the ragagents commands.
//
// Values are resolved in this order: built-in defaults, an optional TOML
// file, a .env file, and finally the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	LLM       LLM       `toml:"llm"`
	Embedding Embedding `toml:"embedding"`
	Store     Store     `toml:"store"`
	Subtitle  Subtitle  `toml:"subtitle"`
	Recommend Recommend `toml:"recommend"`
	RAG       RAG       `toml:"rag"`
	Analytics Analytics `toml:"analytics"`
	Search    Search    `toml:"search"`
	Log       Log       `toml:"log"`
}

// LLM configures the chat model used by agents and the RAG answerer.
type LLM struct {
	Provider string `toml:"provider"` // openai | ollama
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// Embedding configures the text embedder.
type Embedding struct {
	Provider  string `toml:"provider"` // hash | openai | langchain-openai | langchain-ollama
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	BatchSize int    `toml:"batch_size"`
}

// Store selects and configures the vector collection backend.
type Store struct {
	Backend     string `toml:"backend"` // memory | sqlite | redis | postgres
	SQLitePath  string `toml:"sqlite_path"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
	PostgresURL string `toml:"postgres_url"`
}

// Subtitle configures subtitle download, chunking and grouped search.
type Subtitle struct {
	CollectionsDir string `toml:"collections_dir"`
	SegmentSeconds int    `toml:"segment_seconds"`
	YTDLPPath      string `toml:"ytdlp_path"`
	GroupSize      int    `toml:"group_size"`
	Limit          int    `toml:"limit"`
}

// Recommend configures the MovieLens recommender.
type Recommend struct {
	DataDir       string `toml:"data_dir"`
	Collection    string `toml:"collection"`
	VectorName    string `toml:"vector_name"`
	StartYear     int    `toml:"start_year"`
	TopK          int    `toml:"top_k"`
	NeighborLimit int    `toml:"neighbor_limit"`
}

// RAG configures the simple PDF question answerer.
type RAG struct {
	Collection string  `toml:"collection"`
	ChunkSize  int     `toml:"chunk_size"`
	Overlap    int     `toml:"overlap"`
	TopK       int     `toml:"top_k"`
	// Threshold is the minimum score of the best chunk. Unset means
	// DefaultThreshold, or HashThreshold for the hash embedder.
	Threshold *float64 `toml:"threshold"`
}

// Analytics configures the CSV analytics agent storage.
type Analytics struct {
	DBPath string `toml:"db_path"`
	Table  string `toml:"table"`
}

// Search configures the web search tool.
type Search struct {
	BraveAPIKey string `toml:"brave_api_key"`
	Count       int    `toml:"count"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

const (
	// DefaultThreshold is the relevance threshold for model embeddings
	DefaultThreshold = 0.6
	// HashThreshold is the relevance threshold for the hash embedder, whose
	// scores only reflect shared words
	HashThreshold = 0.15
)

// RelevanceThreshold returns the configured RAG threshold or the default of
// the embedding provider.
func (c *Config) RelevanceThreshold() float64 {
	if c.RAG.Threshold != nil {
		return *c.RAG.Threshold
	}
	if c.Embedding.Provider == "hash" {
		return HashThreshold
	}
	return DefaultThreshold
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: LLM{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedding: Embedding{
			Provider:  "hash",
			Model:     "text-embedding-3-small",
			Dimension: 384,
			BatchSize: 64,
		},
		Store: Store{
			Backend:     "sqlite",
			SQLitePath:  "collections.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "ragagents",
		},
		Subtitle: Subtitle{
			CollectionsDir: "collections",
			SegmentSeconds: 30,
			YTDLPPath:      "yt-dlp",
			GroupSize:      1,
			Limit:          3,
		},
		Recommend: Recommend{
			DataDir:       "data",
			Collection:    "movies",
			VectorName:    "ratings",
			StartYear:     2000,
			TopK:          7,
			NeighborLimit: 20,
		},
		RAG: RAG{
			Collection: "documents",
			ChunkSize:  200,
			Overlap:    60,
			TopK:       3,
		},
		Analytics: Analytics{
			DBPath: "analytics.db",
			Table:  "data",
		},
		Search: Search{
			Count: 5,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty), the given .env files (".env" when none are given; missing
// files are ignored) and the environment. The result is validated.
func Load(path string, dotenvFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	env := newEnv(dotenvFiles)
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// env resolves variables from the process environment first, then from
// values read out of .env files.
type env struct {
	dotenv map[string]string
}

func newEnv(files []string) env {
	values := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range m {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}
	return env{dotenv: values}
}

func (e env) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := e.dotenv[key]
	return v, ok && v != ""
}

func (e env) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e env) integer(key string, dst *int) error {
	v, ok := e.lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func (c *Config) applyEnv(e env) error {
	e.str("LLM_PROVIDER", &c.LLM.Provider)
	e.str("LLM_MODEL", &c.LLM.Model)
	e.str("LLM_API_KEY", &c.LLM.APIKey)
	e.str("LLM_BASE_URL", &c.LLM.BaseURL)

	e.str("EMBEDDING_PROVIDER", &c.Embedding.Provider)
	e.str("EMBEDDING_MODEL", &c.Embedding.Model)
	e.str("EMBEDDING_BASE_URL", &c.Embedding.BaseURL)
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	e.str("EMBEDDING_API_KEY", &c.Embedding.APIKey)

	e.str("VECTOR_BACKEND", &c.Store.Backend)
	e.str("VECTOR_SQLITE_PATH", &c.Store.SQLitePath)
	e.str("REDIS_ADDR", &c.Store.RedisAddr)
	e.str("POSTGRES_URL", &c.Store.PostgresURL)

	e.str("COLLECTIONS_DIR", &c.Subtitle.CollectionsDir)
	e.str("YTDLP_PATH", &c.Subtitle.YTDLPPath)
	e.str("MOVIELENS_DIR", &c.Recommend.DataDir)
	e.str("ANALYTICS_DB_PATH", &c.Analytics.DBPath)
	e.str("BRAVE_API_KEY", &c.Search.BraveAPIKey)
	e.str("LOG_LEVEL", &c.Log.Level)

	if err := e.integer("EMBEDDING_DIMENSION", &c.Embedding.Dimension); err != nil {
		return err
	}
	return e.integer("SEGMENT_SECONDS", &c.Subtitle.SegmentSeconds)
}
