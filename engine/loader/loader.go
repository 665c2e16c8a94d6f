package loader

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/engine/profiler"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
	"go.uber.org/zap"
)

var errNilDocument = errors.New("nil glTF document")

// assetLoader is the implementation of the AssetLoader interface.
type assetLoader struct {
	mu sync.Mutex

	logger   *zap.Logger
	parser   gltfParser
	fsys     fs.FS
	profiler *profiler.Profiler

	materials         material.Provider
	entityManager     scene.EntityManager
	transformManager  scene.TransformManager
	renderableManager renderer.RenderableManager

	castShadows    bool
	receiveShadows bool
}

// assetImport holds the state of a single CreateAsset call. The caches are keyed by document
// indices and are never shared between imports.
type assetImport struct {
	*assetLoader

	result        *gltfAsset
	meshCache     meshCache
	instanceCache materialInstanceCache
	errs          *importErrors
}

func (l *assetLoader) newImport(doc *gltf.Document) *assetImport {
	return &assetImport{
		assetLoader:   l,
		result:        newGLTFAsset(doc, l.entityManager, l.transformManager, l.renderableManager),
		meshCache:     newMeshCache(),
		instanceCache: newMaterialInstanceCache(),
		errs:          newImportErrors(l.logger),
	}
}

// AssetLoader turns glTF 2.0 documents into assets: an entity hierarchy with transforms,
// renderables and material instances, plus the deferred buffer and texture bindings that a
// resource loader resolves later. Imports are serialized.
type AssetLoader interface {
	// CreateAssetFromJSON imports a JSON glTF document. Embedded data URIs are decoded; external
	// URIs are read from the loader's file system when one is configured.
	//
	// Parameters:
	//   - data: the document bytes
	//
	// Returns:
	//   - Asset: the imported asset, nil on failure
	//   - error: a *DocumentParseError or the joined import errors
	CreateAssetFromJSON(data []byte) (Asset, error)

	// CreateAssetFromBinary imports a GLB container.
	//
	// Parameters:
	//   - data: the container bytes
	//
	// Returns:
	//   - Asset: the imported asset, nil on failure
	//   - error: a *DocumentParseError or the joined import errors
	CreateAssetFromBinary(data []byte) (Asset, error)

	// CreateAsset imports an already decoded document. The asset keeps a reference to doc.
	//
	// Parameters:
	//   - doc: the decoded document
	//
	// Returns:
	//   - Asset: the imported asset, nil on failure
	//   - error: the joined import errors
	CreateAsset(doc *gltf.Document) (Asset, error)

	// DestroyAsset releases an asset created by this loader.
	//
	// Parameters:
	//   - asset: the asset to release; nil is ignored
	DestroyAsset(asset Asset)

	// CastShadowsByDefault sets whether renderables created by later imports cast shadows.
	CastShadowsByDefault(enabled bool)

	// ReceiveShadowsByDefault sets whether renderables created by later imports receive shadows.
	ReceiveShadowsByDefault(enabled bool)

	// Materials returns every material the provider has created, in creation order.
	Materials() []material.Material

	// DestroyMaterials destroys every material the provider has created.
	DestroyMaterials()

	MaterialProvider() material.Provider
	EntityManager() scene.EntityManager
	TransformManager() scene.TransformManager
	RenderableManager() renderer.RenderableManager
}

var _ AssetLoader = &assetLoader{}

// NewAssetLoader creates a new AssetLoader with the options applied. Collaborators that are not
// supplied are created with their defaults and shadows are cast and received.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the AssetLoader
//
// Returns:
//   - AssetLoader: the configured loader
func NewAssetLoader(options ...LoaderBuilderOption) AssetLoader {
	l := &assetLoader{
		castShadows:    true,
		receiveShadows: true,
	}
	for _, option := range options {
		option(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.Named("loader")
	if l.materials == nil {
		l.materials = material.NewProvider(l.logger)
	}
	if l.entityManager == nil {
		l.entityManager = scene.NewEntityManager()
	}
	if l.transformManager == nil {
		l.transformManager = scene.NewTransformManager()
	}
	if l.renderableManager == nil {
		l.renderableManager = renderer.NewRenderableManager()
	}
	if l.profiler == nil {
		l.profiler = profiler.NewProfiler(l.logger)
	}
	l.parser = newGLTFParser(l.fsys)
	return l
}

func (l *assetLoader) CreateAssetFromJSON(data []byte) (Asset, error) {
	return l.createAssetFromBytes(data, false)
}

func (l *assetLoader) CreateAssetFromBinary(data []byte) (Asset, error) {
	return l.createAssetFromBytes(data, true)
}

func (l *assetLoader) createAssetFromBytes(data []byte, isBinary bool) (Asset, error) {
	doc, err := l.parser.Parse(data, isBinary)
	if err != nil {
		l.logger.Error("unable to parse glTF document", zap.Bool("binary", isBinary), zap.Error(err))
		return nil, err
	}
	return l.CreateAsset(doc)
}

func (l *assetLoader) CreateAsset(doc *gltf.Document) (Asset, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	span := l.profiler.Begin("import")
	im := l.newImport(doc)
	im.buildSceneGraph()
	im.resolveSkins()

	asset := im.result
	if im.errs.failed() {
		asset.Release()
		span.End(zap.Bool("failed", true))
		return nil, im.errs.err()
	}

	span.End(
		zap.Int("entities", len(asset.entities)),
		zap.Int("meshes", im.meshCache.len()),
		zap.Int("material_instances", im.instanceCache.len()),
		zap.Int("buffer_bindings", len(asset.bufferBindings)),
		zap.Int("texture_bindings", len(asset.textureBindings)),
	)
	l.logger.Info("glTF asset imported",
		zap.Int("entities", len(asset.entities)),
		zap.Int("skins", len(asset.skins)),
	)
	return asset, nil
}

func (l *assetLoader) DestroyAsset(asset Asset) {
	if asset == nil {
		return
	}
	asset.Release()
}

func (l *assetLoader) CastShadowsByDefault(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.castShadows = enabled
}

func (l *assetLoader) ReceiveShadowsByDefault(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receiveShadows = enabled
}

func (l *assetLoader) Materials() []material.Material {
	return l.materials.Materials()
}

func (l *assetLoader) DestroyMaterials() {
	l.materials.DestroyMaterials()
}

func (l *assetLoader) MaterialProvider() material.Provider {
	return l.materials
}

func (l *assetLoader) EntityManager() scene.EntityManager {
	return l.entityManager
}

func (l *assetLoader) TransformManager() scene.TransformManager {
	return l.transformManager
}

func (l *assetLoader) RenderableManager() renderer.RenderableManager {
	return l.renderableManager
}
