package loader

import (
	"io/fs"

	"github.com/winnerineast/filament/engine/config"
	"github.com/winnerineast/filament/engine/profiler"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring an AssetLoader via NewAssetLoader.
type LoaderBuilderOption func(*assetLoader)

// WithLogger is an option builder that sets the logger used for import diagnostics.
//
// Parameters:
//   - logger: the logger instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.logger = logger
	}
}

// WithMaterialProvider is an option builder that sets the provider materials are requested from.
//
// Parameters:
//   - p: the material provider
//
// Returns:
//   - LoaderBuilderOption: a function that applies the provider option to a loader
func WithMaterialProvider(p material.Provider) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.materials = p
	}
}

// WithEntityManager is an option builder that sets the entity manager entities are created in.
func WithEntityManager(em scene.EntityManager) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.entityManager = em
	}
}

// WithTransformManager is an option builder that sets the transform manager.
func WithTransformManager(tm scene.TransformManager) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.transformManager = tm
	}
}

// WithRenderableManager is an option builder that sets the renderable manager.
func WithRenderableManager(rm renderer.RenderableManager) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.renderableManager = rm
	}
}

// WithConfig is an option builder that applies the loader defaults of cfg.
//
// Parameters:
//   - cfg: the loader section of the pipeline configuration
//
// Returns:
//   - LoaderBuilderOption: a function that applies the shadow defaults to a loader
func WithConfig(cfg config.LoaderConfig) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.castShadows = cfg.CastShadows
		l.receiveShadows = cfg.ReceiveShadows
	}
}

// WithFS is an option builder that sets the file system external URIs are decoded from at parse
// time. Without one, external buffers stay empty until a resource loader fills them.
//
// Parameters:
//   - fsys: the file system rooted at the document's directory
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.fsys = fsys
	}
}

// WithProfiler is an option builder that sets the profiler imports are timed with.
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *assetLoader) {
		l.profiler = p
	}
}
