// Package config holds the process-wide Config record assembled once at
// startup from CLI flags/env vars, and passed explicitly to every
// component that needs it — no package-level globals.
package config

import "time"

// Config is the full set of tunables for the extraction engine.
type Config struct {
	// Telegram API credentials.
	APIID   int
	APIHash string

	// MaxPageSize bounds the page_size a caller may request from
	// fetch_history.
	MaxPageSize int

	// ExportThreshold is the message count above which a page is
	// materialized as an artifact instead of returned inline.
	ExportThreshold int

	// ArtifactTTL is how long a materialized artifact stays readable
	// before the sweeper reclaims it.
	ArtifactTTL time.Duration

	// ArtifactSweepInterval controls how often the sweeper runs.
	ArtifactSweepInterval time.Duration

	// ArtifactDir is where NDJSON artifacts are written.
	ArtifactDir string

	// WaitBudget is the longest flood-wait the Wait Controller will sleep
	// through before surfacing RATE_LIMITED.
	WaitBudget time.Duration

	// MaxRetryAttempts bounds both flood-wait retries and generic
	// transient-error retries in the Wait Controller.
	MaxRetryAttempts int

	// RequestTimeout bounds a single provider call.
	RequestTimeout time.Duration

	// InnerReadMultiplier bounds internal reads per fetch_history page to
	// page_size * InnerReadMultiplier before yielding a possibly-short
	// page.
	InnerReadMultiplier int

	// ResolverCacheEnabled turns on the Chat Resolver's bounded LRU.
	ResolverCacheEnabled bool
	ResolverCacheSize    int
}

// Default returns the documented defaults for every tunable.
func Default() Config {
	return Config{
		MaxPageSize:           100,
		ExportThreshold:       500,
		ArtifactTTL:           time.Hour,
		ArtifactSweepInterval: 5 * time.Minute,
		ArtifactDir:           "artifacts",
		WaitBudget:            60 * time.Second,
		MaxRetryAttempts:      3,
		RequestTimeout:        30 * time.Second,
		InnerReadMultiplier:   8,
		ResolverCacheEnabled:  true,
		ResolverCacheSize:     256,
	}
}
