// Package config loads kwcanon settings from the environment.
//
// Values come from KWCANON_* variables, optionally read from a .env file in
// the working directory. Command-line flags override them.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "KWCANON_"

type InputConfig struct {
	SynonymsPath     string
	ClustersPath     string
	Sentinel         string
	ClusterAttribute string
}

type ClassifyConfig struct {
	SchemePath     string
	MappingPath    string
	UnknownLogPath string
	CacheSize      int
}

type WeighConfig struct {
	TopN int
}

type MeshConfig struct {
	BaseURL         string
	APIKey          string
	Delay           time.Duration
	TitleColumn     string
	CheckpointEvery int
}

type EmbeddingConfig struct {
	TextColumn   string
	Threshold    float64
	Perplexity   float64
	LearningRate float64
	Iterations   int
}

type Config struct {
	OutputDir string
	Quiet     bool
	Input     InputConfig
	Classify  ClassifyConfig
	Weigh     WeighConfig
	Mesh      MeshConfig
	Embedding EmbeddingConfig
}

// Load reads .env when present and returns the configuration with defaults
// for every unset variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		OutputDir: getEnv("OUTPUT_DIR", "."),
		Quiet:     getEnvBool("QUIET", false),
		Input: InputConfig{
			SynonymsPath:     getEnv("SYNONYMS", "keyword_synonyms.json"),
			ClustersPath:     getEnv("CLUSTERS", ""),
			Sentinel:         getEnv("SENTINEL", "Unknown keywords"),
			ClusterAttribute: getEnv("CLUSTER_ATTRIBUTE", ""),
		},
		Classify: ClassifyConfig{
			SchemePath:     getEnv("SCHEME", ""),
			MappingPath:    getEnv("CATEGORIES_CSV", "keyword_classification_25_categories.csv"),
			UnknownLogPath: getEnv("UNKNOWN_LOG", "unknown_words.txt"),
			CacheSize:      getEnvInt("CLASSIFY_CACHE_SIZE", 4096),
		},
		Weigh: WeighConfig{
			TopN: getEnvInt("TOP_N", 3),
		},
		Mesh: MeshConfig{
			BaseURL:         getEnv("MESH_BASE_URL", ""),
			APIKey:          getEnv("NCBI_API_KEY", ""),
			Delay:           getEnvDuration("MESH_DELAY", 350*time.Millisecond),
			TitleColumn:     getEnv("MESH_TITLE_COLUMN", "Label"),
			CheckpointEvery: getEnvInt("MESH_CHECKPOINT_EVERY", 50),
		},
		Embedding: EmbeddingConfig{
			TextColumn:   getEnv("EMBEDDING_TEXT_COLUMN", "keyword"),
			Threshold:    getEnvFloat("SIMILARITY_THRESHOLD", 0.99),
			Perplexity:   getEnvFloat("TSNE_PERPLEXITY", 30),
			LearningRate: getEnvFloat("TSNE_LEARNING_RATE", 200),
			Iterations:   getEnvInt("TSNE_ITERATIONS", 300),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
