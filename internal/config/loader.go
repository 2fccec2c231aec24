package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RELISTEN_CONFIG is set
//  3. env (prefix RELISTEN_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RELISTEN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables: RELISTEN_INPUT_DIR, RELISTEN_PLAYLIST_TOP_N, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("RELISTEN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "relisten_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.InputDir == "" {
		return ErrMissingInputDir
	}
	if c.OutputPath == "" {
		return ErrMissingOutputPath
	}
	if c.PlaylistTopN < 1 {
		return fmt.Errorf("%w: playlist_top_n %d", ErrInvalidBound, c.PlaylistTopN)
	}
	if c.SessionGapMinutes < 1 {
		return fmt.Errorf("%w: session_gap_minutes %d", ErrInvalidBound, c.SessionGapMinutes)
	}
	if _, err := time.LoadLocation(c.LocalTimezone); err != nil {
		return fmt.Errorf("invalid local_timezone %q: %w", c.LocalTimezone, err)
	}
	return nil
}
