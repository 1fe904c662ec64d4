package main

import (
	"errors"
	"fmt"
	"time"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/config"
	"github.com/sktamanpelangi/go-opr/internal/hints"
)

// settings is the resolved configuration of one command run.
type settings struct {
	cfg     *config.Config
	timeout time.Duration // Zero keeps the library default
	workers int           // Zero means auto
}

// loadSettings loads the config file and merges env vars and flags into it.
// Precedence: CLI flags > env vars > config file > defaults.
func loadSettings(common commonFlags, render renderFlags, output outputFlags, workers int) (*settings, error) {
	env := loadEnvConfig()

	name := common.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(env, cfg)
	mergeFlags(render, output, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout, err := resolveTimeout(render.timeout, env.Timeout, cfg)
	if err != nil {
		return nil, err
	}

	if workers < 0 {
		return nil, fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, workers)
	}
	if workers == 0 {
		workers = env.Workers
	}

	return &settings{cfg: cfg, timeout: timeout, workers: workers}, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(render renderFlags, output outputFlags, cfg *config.Config) {
	if render.markdown {
		cfg.Render.Markdown = true
	}
	if render.assetPath != "" {
		cfg.Assets.BasePath = render.assetPath
	}
	if render.prefix != "" {
		cfg.Output.Prefix = render.prefix
	}
	if output.path != "" && !isPDFPath(output.path) {
		cfg.Output.DefaultDir = output.path
	}
}

// resolveTimeout picks the capture timeout.
// Priority: flag > OPR_TIMEOUT > config render.timeout > library default.
func resolveTimeout(flagValue string, envValue time.Duration, cfg *config.Config) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTimeout, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: must be positive, got %s", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if envValue > 0 {
		return envValue, nil
	}
	return cfg.TimeoutDuration(), nil
}

// generatorOptions converts settings into library options.
func (s *settings) generatorOptions() []opr.Option {
	b := s.cfg.Branding
	opts := []opr.Option{
		opr.WithBranding(opr.Branding{
			School:    b.SchoolName,
			Heading:   b.Title,
			Subtitle:  b.Subtitle,
			Footer:    b.FooterText,
			LogoLeft:  opr.Logo{Src: b.LogoLeft.Src, Fallback: b.LogoLeft.Fallback},
			LogoRight: opr.Logo{Src: b.LogoRight.Src, Fallback: b.LogoRight.Fallback},
		}),
		opr.WithFilePrefix(s.cfg.Output.Prefix),
		opr.WithFallbackName(s.cfg.Output.FallbackName),
		opr.WithMarkdownText(s.cfg.Render.Markdown),
	}
	if s.cfg.Assets.BasePath != "" {
		opts = append(opts, opr.WithAssetPath(s.cfg.Assets.BasePath))
	}
	if s.timeout > 0 {
		opts = append(opts, opr.WithTimeout(s.timeout))
	}
	return opts
}

// imageDecoder returns the decoder honoring images.maxBytes.
func (s *settings) imageDecoder() opr.ImageDecoder {
	return opr.ImageDecoder{MaxBytes: s.cfg.Images.MaxBytes}
}
