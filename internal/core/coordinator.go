// Package core implements the federation coordinator: capability negotiation,
// concurrent fan-out to backends, schema reconciliation, merging and
// aggregation of partial answers, and multi-step reference resolution.
package core

import (
	"context"
	"fmt"
	"log/slog"
	blobcore "popstudy/internal/blob/core"
	"popstudy/internal/frequency"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Coordinator answers federated queries over a static set of backends.
type Coordinator struct {
	sources      []sourceapi.Source
	annotations  []sourceapi.AnnotationSource
	logger       *slog.Logger
	metrics      MetricsRecorder
	estimator    frequency.Estimator
	exports      blobcore.Store
	exportExpiry time.Duration
	minGroupSize int
	assembly     string
	rankLimit    int
}

// NewCoordinator registers the backends. Every capability declaration is
// checked up front; an empty one is a configuration fault.
func NewCoordinator(sources []sourceapi.Source, annotations []sourceapi.AnnotationSource, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		sources:     append([]sourceapi.Source(nil), sources...),
		annotations: append([]sourceapi.AnnotationSource(nil), annotations...),
		logger:      discardLogger(),
		metrics:     noopMetrics{},
		estimator:   frequency.AlleleCount{},
		assembly:    DefaultAssembly,
		rankLimit:   DefaultRankLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	seen := make(map[string]struct{})
	for _, s := range c.sources {
		caps := s.Capabilities()
		if len(caps.Attributes) == 0 || len(caps.RegionPredicates) == 0 {
			return nil, fmt.Errorf("source %s: %w", s.Name(), sourceapi.ErrConfiguration)
		}
		if err := register(seen, s.Name()); err != nil {
			return nil, err
		}
	}
	for _, a := range c.annotations {
		if _, err := a.Capabilities().AvailableAttributes(); err != nil {
			return nil, fmt.Errorf("annotation source %s: %w", a.Name(), err)
		}
		if err := register(seen, a.Name()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func register(seen map[string]struct{}, name string) error {
	if name == "" {
		return fmt.Errorf("source without name: %w", sourceapi.ErrConfiguration)
	}
	if _, dup := seen[name]; dup {
		return fmt.Errorf("source %s registered twice: %w", name, sourceapi.ErrConfiguration)
	}
	seen[name] = struct{}{}
	return nil
}

// Sources returns the registered variant backends.
func (c *Coordinator) Sources() []sourceapi.Source {
	return append([]sourceapi.Source(nil), c.sources...)
}

// AnnotationSources returns the registered annotation backends.
func (c *Coordinator) AnnotationSources() []sourceapi.AnnotationSource {
	return append([]sourceapi.AnnotationSource(nil), c.annotations...)
}

// eligible returns the sources, optionally restricted by name, able to express
// meta and region.
func (c *Coordinator) eligible(meta genomics.MetadataAttrs, region genomics.RegionAttrs, only []string) ([]sourceapi.Source, error) {
	var allowed map[string]struct{}
	if len(only) > 0 {
		allowed = make(map[string]struct{}, len(only))
		for _, n := range only {
			allowed[n] = struct{}{}
		}
	}
	var out []sourceapi.Source
	for _, s := range c.sources {
		if allowed != nil {
			if _, ok := allowed[s.Name()]; !ok {
				continue
			}
		}
		ok, err := s.Capabilities().CanExpressConstraint(meta, region)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.Name(), err)
		}
		if ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoEligibleSource
	}
	return out, nil
}

func (c *Coordinator) assemblyFor(meta genomics.MetadataAttrs) string {
	if a := meta.Assembly(); a != "" {
		return a
	}
	return c.assembly
}

// run is the per-request state shared by the fan-out workers of one operation.
type run struct {
	op      string
	log     *slog.Logger
	metrics MetricsRecorder
	started time.Time

	mu      sync.Mutex
	notices []string
}

func (c *Coordinator) begin(op string) *run {
	r := &run{
		op:      op,
		log:     c.logger.With("request_id", uuid.NewString(), "operation", op),
		metrics: c.metrics,
		started: time.Now(),
	}
	r.log.Debug("request started")
	return r
}

func (r *run) notice(msgs ...string) {
	r.mu.Lock()
	r.notices = append(r.notices, msgs...)
	r.mu.Unlock()
}

func (r *run) collected() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// finish records the outcome and attaches notices to res.
func (r *run) finish(ctx context.Context, res Result, err error) (Result, error) {
	dur := time.Since(r.started)
	r.metrics.Observe(ctx, r.op, err == nil, dur)
	if err != nil {
		r.log.Warn("request failed", "error", err, "duration", dur)
		return Result{}, err
	}
	res.Notices = append(res.Notices, r.collected()...)
	r.log.Debug("request completed", "rows", len(res.Rows), "duration", dur)
	return res, nil
}
