// Package config holds the resolver-facing configuration knobs for the
// did:webvh engine: fast-resolution mode and the timeouts applied to the
// external witness/log fetcher. Environment variables supply defaults;
// functional options override them for tests.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment-tunable behavior of the resolver facade
// (pkg/webvh.CreateDID/ResolveDIDFromLog/UpdateDID/DeactivateDID) and the
// default Fetcher (pkg/fetch).
type Config struct {
	// FastResolution is the fast-resolution setting a caller copies into
	// webvh.ResolutionOptions.FastResolution (webvhctl resolve does so);
	// pkg/webvh does not read Config itself. Off unless
	// WEBVH_FAST_RESOLUTION=true — fast mode is a security weakening and
	// must be opt-in.
	FastResolution bool

	// WitnessTimeout bounds a single witness-proof-file fetch.
	WitnessTimeout time.Duration

	// HTTPTimeout bounds a single log fetch.
	HTTPTimeout time.Duration
}

const (
	envFastResolution = "WEBVH_FAST_RESOLUTION"
	envWitnessTimeout = "WEBVH_WITNESS_TIMEOUT"
	envHTTPTimeout    = "WEBVH_HTTP_TIMEOUT"

	defaultWitnessTimeout = 10 * time.Second
	defaultHTTPTimeout    = 10 * time.Second
)

// Option overrides a single Config field, applied after environment
// defaults are loaded.
type Option func(*Config)

// WithFastResolution overrides the fast-resolution default.
func WithFastResolution(enabled bool) Option {
	return func(c *Config) { c.FastResolution = enabled }
}

// WithWitnessTimeout overrides the witness-proof fetch timeout.
func WithWitnessTimeout(d time.Duration) Option {
	return func(c *Config) { c.WitnessTimeout = d }
}

// WithHTTPTimeout overrides the log fetch timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) { c.HTTPTimeout = d }
}

// Load reads configuration from environment variables, falling back to
// conservative defaults, then applies opts on top.
func Load(opts ...Option) *Config {
	cfg := &Config{
		FastResolution: parseBool(os.Getenv(envFastResolution), false),
		WitnessTimeout: parseDuration(os.Getenv(envWitnessTimeout), defaultWitnessTimeout),
		HTTPTimeout:    parseDuration(os.Getenv(envHTTPTimeout), defaultHTTPTimeout),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
