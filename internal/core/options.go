package core

import (
	"io"
	"log/slog"
	blobcore "popstudy/internal/blob/core"
	"popstudy/internal/frequency"
	"time"
)

// DefaultAssembly applies when neither the request nor its metadata names one.
const DefaultAssembly = "GRCh38"

// DefaultRankLimit bounds rankings that do not set a limit.
const DefaultRankLimit = 10

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger routes coordinator logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records operation and per-source outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithEstimator sets the frequency collaborator used by variant distributions.
func WithEstimator(e frequency.Estimator) Option {
	return func(c *Coordinator) {
		if e != nil {
			c.estimator = e
		}
	}
}

// WithExportStore enables donor-list exports into store.
func WithExportStore(store blobcore.Store, expiry time.Duration) Option {
	return func(c *Coordinator) {
		c.exports = store
		c.exportExpiry = expiry
	}
}

// WithMinimumGroupSize drops merged aggregate rows describing fewer donors
// than n. Zero disables the floor.
func WithMinimumGroupSize(n int) Option {
	return func(c *Coordinator) { c.minGroupSize = n }
}

// WithDefaultAssembly overrides DefaultAssembly.
func WithDefaultAssembly(a string) Option {
	return func(c *Coordinator) {
		if a != "" {
			c.assembly = a
		}
	}
}

// WithRankLimit overrides DefaultRankLimit.
func WithRankLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.rankLimit = n
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
