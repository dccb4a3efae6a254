package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Engines maps engine id to the UCI binary path, parsed from
	// ENGINES ("stockfish=/usr/bin/stockfish,lc0=/usr/local/bin/lc0").
	Engines map[string]string

	// Analysis
	SearchDepth       int   // 0 runs "go infinite"
	MultiPV           int
	MaxEngineSessions int64
	EventBuffer       int

	// Game database
	DatabasePath string

	// Import limits
	MaxImportBytes int64

	// Shutdown
	ShutdownTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		Engines: parseEngines(envOr("ENGINES", "stockfish=stockfish")),

		SearchDepth:       envInt("SEARCH_DEPTH", 0),
		MultiPV:           envInt("MULTI_PV", 3),
		MaxEngineSessions: envInt64("MAX_ENGINE_SESSIONS", 4),
		EventBuffer:       envInt("EVENT_BUFFER", 256),

		DatabasePath: envOr("DATABASE_PATH", "games.db"),

		MaxImportBytes: envInt64("MAX_IMPORT_BYTES", 52428800), // 50MB

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.SearchDepth < 0 {
		cfg.SearchDepth = 0
	}
	if cfg.MultiPV <= 0 {
		cfg.MultiPV = 3
	}
	if cfg.MaxEngineSessions <= 0 {
		cfg.MaxEngineSessions = 4
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = 52428800
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if len(c.Engines) == 0 {
		return fmt.Errorf("ENGINES must list at least one engine as id=path")
	}
	for id, path := range c.Engines {
		if id == "" || path == "" {
			return fmt.Errorf("ENGINES entry %q=%q is malformed", id, path)
		}
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

func parseEngines(s string) map[string]string {
	engines := map[string]string{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, path, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		engines[strings.TrimSpace(id)] = strings.TrimSpace(path)
	}
	return engines
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
