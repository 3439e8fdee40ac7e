package helper

import (
	"strings"
	"testing"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "APP_MODE", "STORE_BACKEND", "CORS_ORIGINS", "JWT_SECRET", "AUTH_DISABLED",
		"CF_DEFAULT_K", "CF_DEFAULT_MIN_OVERLAP", "RECOMMENDATION_DEFAULT_LIMIT", "MONGO_DATABASE",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfigFromEnv()
	if cfg.Port != "8080" || cfg.Mode != "dev" || cfg.StoreBackend != BackendMemory {
		t.Errorf("defaults = %s/%s/%s, want 8080/dev/memory", cfg.Port, cfg.Mode, cfg.StoreBackend)
	}
	if cfg.CFDefaultK != 30 || cfg.CFDefaultMinOverlap != 2 || cfg.RecommendationDefault != 20 {
		t.Errorf("recommendation defaults = %d/%d/%d, want 30/2/20",
			cfg.CFDefaultK, cfg.CFDefaultMinOverlap, cfg.RecommendationDefault)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Mongo.Database != "cinetune" {
		t.Errorf("Mongo.Database = %q, want cinetune", cfg.Mongo.Database)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Neo4j")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("CF_DEFAULT_K", "50")
	t.Setenv("CF_DEFAULT_MIN_OVERLAP", "not-a-number")

	cfg := LoadConfigFromEnv()
	if cfg.StoreBackend != BackendNeo4j {
		t.Errorf("StoreBackend = %q, want neo4j", cfg.StoreBackend)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.AuthDisabled {
		t.Error("AuthDisabled = false, want true")
	}
	if cfg.CFDefaultK != 50 {
		t.Errorf("CFDefaultK = %d, want 50", cfg.CFDefaultK)
	}
	if cfg.CFDefaultMinOverlap != 2 {
		t.Errorf("CFDefaultMinOverlap = %d, want default 2 on parse error", cfg.CFDefaultMinOverlap)
	}
}

func validConfig() Config {
	return Config{
		Port:                  "8080",
		Mode:                  "dev",
		StoreBackend:          BackendMemory,
		JWTSecret:             "secret",
		CORSOrigins:           []string{"http://localhost:5173"},
		CFDefaultK:            30,
		CFDefaultMinOverlap:   2,
		RecommendationDefault: 20,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"auth disabled without secret", func(c *Config) { c.JWTSecret = ""; c.AuthDisabled = true }, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"bad port", func(c *Config) { c.Port = "http" }, "Port"},
		{"unknown backend", func(c *Config) { c.StoreBackend = "redis" }, "StoreBackend"},
		{"neo4j without uri", func(c *Config) { c.StoreBackend = BackendNeo4j }, "NEO4J_URI"},
		{"mongo without uri", func(c *Config) { c.StoreBackend = BackendMongo }, "MONGO_URI"},
		{"no cors origins", func(c *Config) { c.CORSOrigins = nil }, "CORSOrigins"},
		{"limit too large", func(c *Config) { c.RecommendationDefault = 500 }, "RecommendationDefault"},
		{"bad import url", func(c *Config) { c.ImportBaseURL = "not a url" }, "ImportBaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
