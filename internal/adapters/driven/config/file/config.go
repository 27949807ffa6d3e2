// Package file loads analyzer configuration from a TOML file with
// environment overrides. Precedence, lowest to highest: built-in
// defaults, config.toml, environment variables.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/chunker"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// Environment variable names. Each overrides its config file counterpart.
const (
	EnvChromaURL    = "ANALYZER_CHROMA_URL"
	EnvRedisAddr    = "ANALYZER_REDIS_ADDR"
	EnvLedgerPath   = "ANALYZER_LEDGER_PATH"
	EnvBatchWorkers = "ANALYZER_BATCH_WORKERS"
	EnvRateLimit    = "ANALYZER_RATE_LIMIT"
)

// Config is the full analyzer configuration.
type Config struct {
	// ChromaURL is the ChromaDB base URL. Empty uses the client default.
	ChromaURL string `toml:"chroma_url"`

	// RedisAddr is the cache address. Empty disables caching.
	RedisAddr string `toml:"redis_addr"`

	// LedgerPath locates the import ledger file.
	LedgerPath string `toml:"ledger_path"`

	// BatchWorkers bounds batch search concurrency.
	BatchWorkers int `toml:"batch_workers"`

	// RateLimit caps batch member queries per second. Zero disables.
	RateLimit int `toml:"rate_limit"`

	// ChunkMaxLen and ChunkOverlap configure the text splitter.
	ChunkMaxLen  int `toml:"chunk_max_len"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// DefaultDir returns the analyzer config directory, ~/.analyzer.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".analyzer"), nil
}

// Default returns the built-in configuration rooted at configDir.
func Default(configDir string) Config {
	return Config{
		RedisAddr:    "localhost:6379",
		LedgerPath:   filepath.Join(configDir, "imports.json"),
		BatchWorkers: 5,
		ChunkMaxLen:  chunker.DefaultMaxLen,
		ChunkOverlap: chunker.DefaultOverlap,
	}
}

// Load reads configuration. If configDir is empty the default directory
// is used. A missing config file is not an error; a malformed one is.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	// A .env in the working directory feeds the same overrides as the
	// real environment. Absence is the normal case.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded overrides from .env")
	}

	cfg := Default(configDir)

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// First run: persist the defaults so there is a file to edit.
		if err := Save(configDir, &cfg); err != nil {
			logger.Warn("could not write default config: %v", err)
		}
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// Save writes the configuration to configDir/config.toml, creating the
// directory when needed.
func Save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvChromaURL); v != "" {
		cfg.ChromaURL = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(EnvLedgerPath); v != "" {
		cfg.LedgerPath = v
	}
	if v := os.Getenv(EnvBatchWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchWorkers = n
		}
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimit = n
		}
	}
}
