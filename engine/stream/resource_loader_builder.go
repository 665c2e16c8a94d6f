package stream

import (
	"io/fs"
	"os"
	"time"

	"github.com/winnerineast/filament/engine/config"
	"github.com/winnerineast/filament/engine/profiler"
	"go.uber.org/zap"
)

// ResourceLoaderBuilderOption is a functional option for configuring a ResourceLoader via NewResourceLoader.
type ResourceLoaderBuilderOption func(*resourceLoader)

// WithFS is an option builder that sets the file system external URIs are read from.
//
// Parameters:
//   - fsys: the file system rooted at the asset's directory
//
// Returns:
//   - ResourceLoaderBuilderOption: a function that applies the file system option
func WithFS(fsys fs.FS) ResourceLoaderBuilderOption {
	return func(r *resourceLoader) {
		r.fsys = fsys
	}
}

// WithLogger is an option builder that sets the logger.
func WithLogger(logger *zap.Logger) ResourceLoaderBuilderOption {
	return func(r *resourceLoader) {
		r.logger = logger
	}
}

// WithProfiler is an option builder that sets the profiler streaming passes are timed with.
func WithProfiler(p *profiler.Profiler) ResourceLoaderBuilderOption {
	return func(r *resourceLoader) {
		r.profiler = p
	}
}

// WithWorkers is an option builder that sizes the worker pool.
//
// Parameters:
//   - workers: the number of goroutines, values below 1 are raised to 1
//   - queueSize: the number of tasks that may wait for a worker
//   - idleTimeout: how long an idle worker is kept
//
// Returns:
//   - ResourceLoaderBuilderOption: a function that applies the pool sizing
func WithWorkers(workers, queueSize int, idleTimeout time.Duration) ResourceLoaderBuilderOption {
	return func(r *resourceLoader) {
		r.workers = max(workers, 1)
		r.queueSize = max(queueSize, 1)
		r.idleTimeout = idleTimeout
	}
}

// WithConfig is an option builder that applies the stream section of the pipeline configuration.
// A non-empty BaseDir becomes the file system root; a later WithFS replaces it.
//
// Parameters:
//   - cfg: the stream configuration
//
// Returns:
//   - ResourceLoaderBuilderOption: a function that applies the configuration
func WithConfig(cfg config.StreamConfig) ResourceLoaderBuilderOption {
	return func(r *resourceLoader) {
		WithWorkers(cfg.Workers, cfg.QueueSize, cfg.IdleTimeout)(r)
		if cfg.BaseDir != "" {
			r.fsys = os.DirFS(cfg.BaseDir)
		}
	}
}
