// ABOUTME: Centralized configuration for the learner memory engine
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the memory engine
type Config struct {
	// Storage settings
	DBPath      string // sqlite file path, default backend
	DatabaseURL string // when set, the postgres backend is used instead

	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Vector settings
	VectorDimension int

	// Retrieval settings
	FactPoolCap        int
	NotePoolCap        int
	StrategyPoolCap    int
	MinStrategyScore   float64
	WeightSimilarity   float64
	WeightImportance   float64
	WeightRecency      float64
	WeightEmotion      float64
	MinTranscriptTurns int

	// Decay settings
	DecayRate      float64 // per day
	DecayFloor     float64 // below this, records leave the ranking pools
	DecayBatchSize int

	// Remote memory service settings
	RemoteURL     string
	RemoteSecret  string
	RemoteTimeout time.Duration

	// HTTP API settings
	HTTPAddr  string
	APISecret string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:      getEnv("MEMORY_DB_PATH", ""),
		DatabaseURL: os.Getenv("MEMORY_DATABASE_URL"),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("MEMORY_OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("MEMORY_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),

		VectorDimension: getEnvInt("VECTOR_DIMENSION", 1536),

		FactPoolCap:        getEnvInt("RETRIEVAL_FACT_CAP", 8),
		NotePoolCap:        getEnvInt("RETRIEVAL_NOTE_CAP", 4),
		StrategyPoolCap:    getEnvInt("RETRIEVAL_STRATEGY_CAP", 3),
		MinStrategyScore:   getEnvFloat("STRATEGY_MIN_SCORE", 0.5),
		WeightSimilarity:   getEnvFloat("RANK_WEIGHT_SIMILARITY", 0.40),
		WeightImportance:   getEnvFloat("RANK_WEIGHT_IMPORTANCE", 0.30),
		WeightRecency:      getEnvFloat("RANK_WEIGHT_RECENCY", 0.20),
		WeightEmotion:      getEnvFloat("RANK_WEIGHT_EMOTION", 0.10),
		MinTranscriptTurns: getEnvInt("EXTRACTION_MIN_TURNS", 4),

		DecayRate:      getEnvFloat("DECAY_RATE", 0.02),
		DecayFloor:     getEnvFloat("DECAY_FLOOR", 0.05),
		DecayBatchSize: getEnvInt("DECAY_BATCH_SIZE", 200),

		RemoteURL:     os.Getenv("REMOTE_MEMORY_URL"),
		RemoteSecret:  os.Getenv("REMOTE_MEMORY_SECRET"),
		RemoteTimeout: getEnvDuration("REMOTE_MEMORY_TIMEOUT", 5*time.Second),

		HTTPAddr:  getEnv("HTTP_ADDR", ":8990"),
		APISecret: os.Getenv("API_SECRET"),
	}

	return cfg, cfg.Validate()
}

// Validate checks configuration ranges
func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.VectorDimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	if c.DecayRate < 0 || c.DecayRate > 1 {
		return fmt.Errorf("DECAY_RATE must be 0-1, got %f", c.DecayRate)
	}
	if c.DecayFloor < 0 || c.DecayFloor > 1 {
		return fmt.Errorf("DECAY_FLOOR must be 0-1, got %f", c.DecayFloor)
	}
	if c.DecayBatchSize <= 0 {
		return fmt.Errorf("DECAY_BATCH_SIZE must be positive, got %d", c.DecayBatchSize)
	}
	if c.MinStrategyScore < 0 || c.MinStrategyScore > 1 {
		return fmt.Errorf("STRATEGY_MIN_SCORE must be 0-1, got %f", c.MinStrategyScore)
	}
	for _, w := range []struct {
		name string
		val  float64
	}{
		{"RANK_WEIGHT_SIMILARITY", c.WeightSimilarity},
		{"RANK_WEIGHT_IMPORTANCE", c.WeightImportance},
		{"RANK_WEIGHT_RECENCY", c.WeightRecency},
		{"RANK_WEIGHT_EMOTION", c.WeightEmotion},
	} {
		if w.val < 0 || w.val > 1 {
			return fmt.Errorf("%s must be 0-1, got %f", w.name, w.val)
		}
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_MEMORY_TIMEOUT must be positive, got %v", c.RemoteTimeout)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
