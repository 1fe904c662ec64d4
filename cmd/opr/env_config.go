package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sktamanpelangi/go-opr/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // OPR_CONFIG: config file name or path
	OutputDir  string        // OPR_OUTPUT_DIR: default output directory
	AssetPath  string        // OPR_ASSET_PATH: custom template/style directory
	Timeout    time.Duration // OPR_TIMEOUT: capture timeout
	Workers    int           // OPR_WORKERS: parallel workers
}

// knownEnvVars lists valid OPR_* environment variables.
var knownEnvVars = map[string]bool{
	"OPR_CONFIG":     true,
	"OPR_OUTPUT_DIR": true,
	"OPR_ASSET_PATH": true,
	"OPR_TIMEOUT":    true,
	"OPR_WORKERS":    true,
	"OPR_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Invalid numeric values are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("OPR_CONFIG"),
		OutputDir:  os.Getenv("OPR_OUTPUT_DIR"),
		AssetPath:  os.Getenv("OPR_ASSET_PATH"),
	}

	if timeout := os.Getenv("OPR_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("OPR_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars warns about unrecognized OPR_* variables.
// Helps catch typos like OPR_OUTPUTDIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "OPR_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig fills config values the file left empty.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = env.AssetPath
	}
}
