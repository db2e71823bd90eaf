package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"popstudy/internal/blob"
	blobcore "popstudy/internal/blob/core"
	"popstudy/internal/config"
	"popstudy/internal/core"
	"popstudy/internal/database"
	"popstudy/internal/frequency"
	"popstudy/internal/privacy"
	"popstudy/internal/sources/gencode"
	"popstudy/internal/sources/kgenomes"
	"popstudy/internal/sources/tcga"
	"popstudy/pkg/sourceapi"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// backend pairs a configured catalog with the pool serving it.
type backend struct {
	name string
	db   *database.DB
}

// federation owns the pools and backends built from a configuration.
type federation struct {
	cfg         config.Config
	pools       map[string]*database.DB
	sources     []sourceapi.Source
	annotations []sourceapi.AnnotationSource
	backends    []backend
	estimator   frequency.Estimator
	exports     blobcore.Store
}

func poolKey(b config.Backend) string { return b.Driver + "|" + b.DSN }

func openFederation(ctx context.Context, cfg config.Config, logger *slog.Logger) (*federation, error) {
	f := &federation{cfg: cfg, pools: make(map[string]*database.DB)}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()
	for _, b := range cfg.Sources {
		if b.Disabled {
			continue
		}
		db, err := f.pool(ctx, b)
		if err != nil {
			return nil, err
		}
		est, err := f.estimatorFor(db)
		if err != nil {
			return nil, err
		}
		if f.estimator == nil {
			f.estimator = est
		}
		var src privacy.Backend
		switch b.Kind {
		case config.KindKGenomes:
			src, err = kgenomes.New(db, kgenomes.Tables{Metadata: b.Tables["metadata"], Variants: b.Tables["variants"]}, est)
		case config.KindTCGA:
			src, err = tcga.New(db, tcga.Tables{Metadata: b.Tables["metadata"], Variants: b.Tables["variants"]}, est)
		default:
			err = fmt.Errorf("unsupported source kind %q", b.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", b.Name, err)
		}
		f.sources = append(f.sources, privacy.NewGuard(src, cfg.Threshold(b)))
		f.backends = append(f.backends, backend{name: src.Name(), db: db})
		logger.Debug("source registered", "name", src.Name(), "driver", db.Driver())
	}
	for _, b := range cfg.Annotations {
		if b.Disabled {
			continue
		}
		db, err := f.pool(ctx, b)
		if err != nil {
			return nil, err
		}
		ann, err := gencode.New(db, b.Tables)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: %w", b.Name, err)
		}
		f.annotations = append(f.annotations, ann)
		f.backends = append(f.backends, backend{name: ann.Name(), db: db})
	}
	store, err := blob.Open(ctx, blob.Config{
		Driver:      blobcore.Driver(cfg.Blob.Driver),
		S3Bucket:    cfg.Blob.S3Bucket,
		S3Region:    cfg.Blob.S3Region,
		S3Endpoint:  cfg.Blob.S3Endpoint,
		S3PathStyle: cfg.Blob.S3PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("export store: %w", err)
	}
	f.exports = store
	ok = true
	return f, nil
}

// pool returns the shared pool for b's connection settings.
func (f *federation) pool(ctx context.Context, b config.Backend) (*database.DB, error) {
	key := poolKey(b)
	if db, ok := f.pools[key]; ok {
		return db, nil
	}
	db, err := database.Open(ctx, database.Config{Driver: database.Driver(b.Driver), DSN: b.DSN})
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", b.Name, err)
	}
	f.pools[key] = db
	return db, nil
}

func (f *federation) estimatorFor(db *database.DB) (frequency.Estimator, error) {
	if f.cfg.Frequency.Estimator != config.EstimatorSQL {
		return frequency.AlleleCount{}, nil
	}
	return frequency.NewSQLFunction(db, f.cfg.Frequency.Function, f.cfg.Frequency.PerAssembly)
}

func (f *federation) coordinator(logger *slog.Logger, metrics core.MetricsRecorder) (*core.Coordinator, error) {
	return core.NewCoordinator(f.sources, f.annotations,
		core.WithLogger(logger),
		core.WithMetrics(metrics),
		core.WithEstimator(f.estimator),
		core.WithExportStore(f.exports, f.cfg.Blob.PresignExpiry),
		core.WithMinimumGroupSize(f.cfg.MinGroupSize),
		core.WithDefaultAssembly(f.cfg.DefaultAssembly),
		core.WithRankLimit(f.cfg.RankLimit),
	)
}

// Close releases every pool.
func (f *federation) Close() error {
	var errs []error
	for _, db := range f.pools {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}

// checkBackends pings every backend's store, updates up and returns the names of the
// unreachable ones.
func (f *federation) checkBackends(ctx context.Context, up *prometheus.GaugeVec, logger *slog.Logger) []string {
	var down []string
	for _, b := range f.backends {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := b.db.Ping(pctx)
		cancel()
		if err != nil {
			logger.Warn("backend unreachable", "source", b.name, "error", err)
			up.WithLabelValues(b.name).Set(0)
			down = append(down, b.name)
			continue
		}
		up.WithLabelValues(b.name).Set(1)
	}
	return down
}
