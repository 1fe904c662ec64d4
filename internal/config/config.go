package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sktamanpelangi/go-opr/internal/fileutil"
	"github.com/sktamanpelangi/go-opr/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxSchoolNameLength = 150
	MaxTitleLength      = 100
	MaxSubtitleLength   = 200
	MaxTextLength       = 500
	MaxURLLength        = 2048
	MaxPrefixLength     = 50
	MaxFallbackLength   = 50
	MaxDurationLength   = 20
)

// Image size bounds for images.maxBytes.
const (
	MinImageBytes = 1 << 10
	MaxImageBytes = 50 << 20
)

// AppName is the directory name used under the user config dir.
const AppName = "go-opr"

// Config holds all configuration for report generation.
type Config struct {
	Branding BrandingConfig `yaml:"branding"`
	Output   OutputConfig   `yaml:"output"`
	Assets   AssetsConfig   `yaml:"assets"`
	Render   RenderConfig   `yaml:"render"`
	Images   ImagesConfig   `yaml:"images"`
}

// BrandingConfig overrides the school identity printed in the header and footer.
// Empty fields keep the built-in branding.
type BrandingConfig struct {
	SchoolName string     `yaml:"schoolName"`
	Title      string     `yaml:"title"`
	Subtitle   string     `yaml:"subtitle"`
	FooterText string     `yaml:"footerText"`
	LogoLeft   LogoConfig `yaml:"logoLeft"`
	LogoRight  LogoConfig `yaml:"logoRight"`
}

// LogoConfig is a logo source with a fallback used when the source fails to load.
type LogoConfig struct {
	Src      string `yaml:"src"`      // URL, data URI or local file path
	Fallback string `yaml:"fallback"` // Same forms as Src
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir   string `yaml:"defaultDir"`   // Empty = current directory
	Prefix       string `yaml:"prefix"`       // Empty = Laporan_OPR
	FallbackName string `yaml:"fallbackName"` // Empty = SKTP
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// RenderConfig defines rendering options.
type RenderConfig struct {
	Markdown bool   `yaml:"markdown"` // Render long text fields as Markdown
	Timeout  string `yaml:"timeout"`  // Go duration, e.g. "45s"
}

// ImagesConfig defines image ingestion options.
type ImagesConfig struct {
	MaxBytes int64 `yaml:"maxBytes"` // 0 = library default
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	b := c.Branding
	checks := []struct {
		name  string
		value string
		max   int
	}{
		{"branding.schoolName", b.SchoolName, MaxSchoolNameLength},
		{"branding.title", b.Title, MaxTitleLength},
		{"branding.subtitle", b.Subtitle, MaxSubtitleLength},
		{"branding.footerText", b.FooterText, MaxTextLength},
		{"output.prefix", c.Output.Prefix, MaxPrefixLength},
		{"output.fallbackName", c.Output.FallbackName, MaxFallbackLength},
		{"render.timeout", c.Render.Timeout, MaxDurationLength},
	}
	for _, chk := range checks {
		if err := validateFieldLength(chk.name, chk.value, chk.max); err != nil {
			return err
		}
	}

	// Data URIs are exempt: an inline logo is legitimately large.
	logos := []struct{ name, src string }{
		{"branding.logoLeft.src", b.LogoLeft.Src},
		{"branding.logoRight.src", b.LogoRight.Src},
		{"branding.logoLeft.fallback", b.LogoLeft.Fallback},
		{"branding.logoRight.fallback", b.LogoRight.Fallback},
	}
	for _, logo := range logos {
		if fileutil.IsDataURI(logo.src) {
			continue
		}
		if strings.Contains(logo.src, "://") && !fileutil.IsURL(logo.src) {
			return fmt.Errorf("%w: %s must be an http(s) URL, a data URI or a local file", ErrInvalidValue, logo.name)
		}
		if err := validateFieldLength(logo.name, logo.src, MaxURLLength); err != nil {
			return err
		}
	}

	if c.Output.Prefix != "" && fileutil.SanitizeFileName(c.Output.Prefix) != c.Output.Prefix {
		return fmt.Errorf("%w: output.prefix %q contains characters not allowed in file names", ErrInvalidValue, c.Output.Prefix)
	}

	if c.Render.Timeout != "" {
		d, err := time.ParseDuration(c.Render.Timeout)
		if err != nil {
			return fmt.Errorf("%w: render.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: render.timeout must be positive, got %s", ErrInvalidValue, c.Render.Timeout)
		}
	}

	if c.Images.MaxBytes != 0 && (c.Images.MaxBytes < MinImageBytes || c.Images.MaxBytes > MaxImageBytes) {
		return fmt.Errorf("%w: images.maxBytes must be between %d and %d, got %d",
			ErrInvalidValue, MinImageBytes, MaxImageBytes, c.Images.MaxBytes)
	}

	return nil
}

// TimeoutDuration returns the parsed render timeout, or zero when unset.
// Call Validate first; an unparsable value also yields zero.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Render.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that keeps every built-in default.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
//
// Relative logo paths are resolved against the config file's directory.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.DecodeFile(configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(configPath)
	cfg.Branding.LogoLeft.Src = resolveLocal(dir, cfg.Branding.LogoLeft.Src)
	cfg.Branding.LogoRight.Src = resolveLocal(dir, cfg.Branding.LogoRight.Src)
	if cfg.Assets.BasePath != "" && !filepath.IsAbs(cfg.Assets.BasePath) {
		cfg.Assets.BasePath = filepath.Join(dir, cfg.Assets.BasePath)
	}

	return &cfg, nil
}

// resolveLocal joins a relative local path onto dir; URLs and data URIs pass through.
func resolveLocal(dir, src string) string {
	if src == "" || fileutil.IsURL(src) || fileutil.IsDataURI(src) || filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(dir, src)
}

// SearchPaths lists the candidate files for a config name, in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory first, then the user config directory.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
