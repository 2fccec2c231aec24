// Package config defines engine configuration structures and loading.
//
// Conventions:
// - Provide New() defaults and Load(ctx) for the layered configuration.
// - Precedence: defaults, then optional YAML file, then environment.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputDir is the directory holding the input snapshot files
	// (live-feed CSVs, playlist CSVs, extended-history JSON).
	InputDir string `koanf:"input_dir"`

	// OutputPath is where the fact table CSV is written.
	OutputPath string `koanf:"output_path"`

	// PlaylistOutputPath is where the playlist dimension CSV is written.
	// Empty disables the dimension output.
	PlaylistOutputPath string `koanf:"playlist_output_path"`

	// MetricsAddr, when set, exposes Prometheus metrics on this address
	// after the run completes, e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// PlaylistTopN bounds how many playlist associations each event keeps.
	PlaylistTopN int `koanf:"playlist_top_n"`

	// SessionGapMinutes is the inter-event gap that starts a new session.
	SessionGapMinutes int `koanf:"session_gap_minutes"`

	// LocalTimezone is the IANA zone used for the calendar-date session
	// boundary and the hourly/daily rollups.
	LocalTimezone string `koanf:"local_timezone"`

	// IdentityHashLength is the hex length of derived identifiers.
	IdentityHashLength int `koanf:"identity_hash_length"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		InputDir:           "data/raw",
		OutputPath:         "data/exports/listening_history.csv",
		PlaylistOutputPath: "data/exports/playlists.csv",
		MetricsAddr:        "",
		PlaylistTopN:       5,
		SessionGapMinutes:  30,
		LocalTimezone:      "UTC",
		IdentityHashLength: 16,
	}
}
