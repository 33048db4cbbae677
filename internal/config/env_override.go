package config

import (
	"os"
	"strconv"
)

// ApplyEnvOverrides layers environment variables on top of file-loaded
// config, keeping the deployment's existing variable names for
// compatibility even where this storage differs (DATABASE_URL maps to
// a sqlite DSN here, not Postgres).
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.RateLimit.EncryptionKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.DefaultAPIKey = v
		if cfg.Embedding.GenAIAPIKey == "" {
			cfg.Embedding.GenAIAPIKey = v
		}
	}
	if v := os.Getenv("BOOKMARKD_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("BOOKMARKD_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("BOOKMARKD_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}

	// JWT_SECRET_KEY, CORS_ORIGINS and PORT bind to an HTTP/JWT surface
	// this service doesn't expose; they are read here only so deployment
	// tooling that exports the full env block doesn't need a
	// bookmarkd-specific allowlist.
	_ = os.Getenv("JWT_SECRET_KEY")
	_ = os.Getenv("CORS_ORIGINS")
	_ = os.Getenv("PORT")
}
