package main

// Notes:
// - Tests using t.Setenv cannot use t.Parallel().

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sktamanpelangi/go-opr/internal/config"
)

// ---------------------------------------------------------------------------
// TestResolveTimeout - Timeout precedence
// ---------------------------------------------------------------------------

func TestResolveTimeout(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Render: config.RenderConfig{Timeout: "45s"}}

	tests := []struct {
		name    string
		flag    string
		env     time.Duration
		cfg     *config.Config
		want    time.Duration
		wantErr error
	}{
		{"flag wins", "2m", 10 * time.Second, cfg, 2 * time.Minute, nil},
		{"env over config", "", 10 * time.Second, cfg, 10 * time.Second, nil},
		{"config", "", 0, cfg, 45 * time.Second, nil},
		{"default", "", 0, config.DefaultConfig(), 0, nil},
		{"invalid flag", "abc", 0, cfg, 0, ErrInvalidTimeout},
		{"zero flag", "0s", 0, cfg, 0, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveTimeout(tt.flag, tt.env, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadSettings - Config, env and flag merging
// ---------------------------------------------------------------------------

func TestLoadSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "opr.yaml", `
branding:
  schoolName: SK Contoh
output:
  defaultDir: /dari-config
  prefix: OPR
render:
  timeout: 20s
`)
	t.Setenv("OPR_CONFIG", cfgPath)
	t.Setenv("OPR_OUTPUT_DIR", "/dari-env")
	t.Setenv("OPR_WORKERS", "5")
	t.Setenv("OPR_TIMEOUT", "")

	s, err := loadSettings(commonFlags{}, renderFlags{prefix: "Laporan"}, outputFlags{}, 0)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if s.cfg.Branding.SchoolName != "SK Contoh" {
		t.Errorf("config not loaded from OPR_CONFIG")
	}
	if s.cfg.Output.DefaultDir != "/dari-config" {
		t.Errorf("DefaultDir = %q, config file should win over env", s.cfg.Output.DefaultDir)
	}
	if s.cfg.Output.Prefix != "Laporan" {
		t.Errorf("Prefix = %q, flag should win", s.cfg.Output.Prefix)
	}
	if s.timeout != 20*time.Second {
		t.Errorf("timeout = %v, want 20s from config", s.timeout)
	}
	if s.workers != 5 {
		t.Errorf("workers = %d, want 5 from env", s.workers)
	}
	if n := len(s.generatorOptions()); n < 5 {
		t.Errorf("generatorOptions() = %d options, want branding, naming, markdown and timeout", n)
	}
}

func TestLoadSettings_OutputFlag(t *testing.T) {
	t.Setenv("OPR_CONFIG", "")
	t.Setenv("OPR_OUTPUT_DIR", "/dari-env")

	s, err := loadSettings(commonFlags{}, renderFlags{}, outputFlags{path: "keluaran"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.cfg.Output.DefaultDir != "keluaran" {
		t.Errorf("DefaultDir = %q, want flag value", s.cfg.Output.DefaultDir)
	}

	s, err = loadSettings(commonFlags{}, renderFlags{}, outputFlags{path: "a.pdf"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.cfg.Output.DefaultDir != "/dari-env" {
		t.Errorf("a PDF path must not become the output directory, got %q", s.cfg.Output.DefaultDir)
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	t.Setenv("OPR_CONFIG", "")

	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "output:\n  prefix: \"a/b\"\n")

	tests := []struct {
		name    string
		common  commonFlags
		render  renderFlags
		workers int
		wantErr error
	}{
		{"config not found", commonFlags{config: filepath.Join(dir, "tiada.yaml")}, renderFlags{}, 0, config.ErrConfigNotFound},
		{"invalid config", commonFlags{config: bad}, renderFlags{}, 0, config.ErrInvalidValue},
		{"invalid prefix flag", commonFlags{}, renderFlags{prefix: "a:b"}, 0, config.ErrInvalidValue},
		{"negative workers", commonFlags{}, renderFlags{}, -2, ErrInvalidWorkerCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSettings(tt.common, tt.render, outputFlags{}, tt.workers)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEnvConfig - Environment variables
// ---------------------------------------------------------------------------

func TestLoadEnvConfig_InvalidNumbersIgnored(t *testing.T) {
	t.Setenv("OPR_TIMEOUT", "sekejap")
	t.Setenv("OPR_WORKERS", "-3")

	env := loadEnvConfig()
	if env.Timeout != 0 || env.Workers != 0 {
		t.Errorf("invalid values should be ignored, got %v, %d", env.Timeout, env.Workers)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("OPR_OUTPUTDIR", "x")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)
	if !strings.Contains(buf.String(), "OPR_OUTPUTDIR") {
		t.Errorf("warning = %q", buf.String())
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Assets.BasePath = "/dari-config"
	applyEnvConfig(&envConfig{OutputDir: "/env-out", AssetPath: "/env-assets"}, cfg)

	if cfg.Output.DefaultDir != "/env-out" {
		t.Errorf("DefaultDir = %q", cfg.Output.DefaultDir)
	}
	if cfg.Assets.BasePath != "/dari-config" {
		t.Errorf("BasePath = %q, config should win", cfg.Assets.BasePath)
	}
}
