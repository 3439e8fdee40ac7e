package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	database "github.com/yishak-cs/cinetune/internal/database"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendNeo4j  = "neo4j"
	BackendMongo  = "mongo"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port         string `validate:"required,numeric"`
	Mode         string `validate:"required,oneof=dev prod production test"`
	StoreBackend string `validate:"required,oneof=memory neo4j mongo"`

	Neo4j database.Config
	Mongo database.MongoConfig

	// SeedFile is a JSON seed loaded into the memory backend.
	SeedFile      string
	ImportBaseURL string `validate:"omitempty,url"`

	JWTSecret    string
	AuthDisabled bool
	CORSOrigins  []string `validate:"min=1,dive,required"`

	CFDefaultK            int `validate:"min=1"`
	CFDefaultMinOverlap   int `validate:"min=1"`
	RecommendationDefault int `validate:"min=1,max=200"`
}

// LoadConfigFromEnv loads configuration from environment variables
func LoadConfigFromEnv() Config {
	return Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Mode:         getEnvOrDefault("APP_MODE", "dev"),
		StoreBackend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendMemory)),
		Neo4j: database.Config{
			URI:      getEnvOrDefault("NEO4J_URI", ""),
			Username: getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
			Password: getEnvOrDefault("NEO4J_PASSWORD", ""),
			Database: getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
		},
		Mongo: database.MongoConfig{
			URI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvOrDefault("MONGO_DATABASE", "cinetune"),
		},
		SeedFile:              getEnvOrDefault("SEED_FILE", ""),
		ImportBaseURL:         getEnvOrDefault("IMPORT_BASE_URL", ""),
		JWTSecret:             getEnvOrDefault("JWT_SECRET", ""),
		AuthDisabled:          getEnvBool("AUTH_DISABLED", false),
		CORSOrigins:           splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		CFDefaultK:            getEnvInt("CF_DEFAULT_K", 30),
		CFDefaultMinOverlap:   getEnvInt("CF_DEFAULT_MIN_OVERLAP", 2),
		RecommendationDefault: getEnvInt("RECOMMENDATION_DEFAULT_LIMIT", 20),
	}
}

// Validate checks field constraints and the cross-field rules the tags
// cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.AuthDisabled && c.JWTSecret == "" {
		return fmt.Errorf("invalid configuration: JWT_SECRET is required unless AUTH_DISABLED=true")
	}
	if c.StoreBackend == BackendNeo4j && c.Neo4j.URI == "" {
		return fmt.Errorf("invalid configuration: NEO4J_URI is required for the neo4j backend")
	}
	if c.StoreBackend == BackendMongo && c.Mongo.URI == "" {
		return fmt.Errorf("invalid configuration: MONGO_URI is required for the mongo backend")
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
