package material

import (
	"sync"

	"go.uber.org/zap"
)

// generator is the default Provider. It builds one material per distinct constrained key.
type generator struct {
	mu     sync.Mutex
	logger *zap.Logger
	cache  map[Key]Material
	order  []Material
}

// Provider hands out materials by feature key. The asset loader asks it for a material once per
// distinct source material and creates instances from the result.
// Thread-safe for concurrent access.
type Provider interface {
	// GetOrCreateMaterial returns the material for a key, creating it on first use.
	// The provider may constrain the key, for example by dropping textures that would need a third
	// UV input; it rewrites key in place and fills uvmap with the routing of the caller's source sets.
	//
	// Parameters:
	//   - key: the requested feature set, rewritten to the constrained set
	//   - uvmap: receives the UV routing of the returned material
	//
	// Returns:
	//   - Material: the material, never nil
	GetOrCreateMaterial(key *Key, uvmap *UvMap) Material

	// Materials returns every material created so far in creation order.
	Materials() []Material

	// MaterialCount returns the number of cached materials.
	MaterialCount() int

	// DestroyMaterials releases every cached material and its instances.
	DestroyMaterials()
}

var _ Provider = &generator{}

// NewProvider creates the default material Provider.
//
// Parameters:
//   - logger: the logger used to report constrained keys, nil for no logging
//   - options: variadic list of ProviderBuilderOption functions
//
// Returns:
//   - Provider: the new provider
func NewProvider(logger *zap.Logger, options ...ProviderBuilderOption) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &generator{
		logger: logger,
		cache:  make(map[Key]Material),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *generator) GetOrCreateMaterial(key *Key, uvmap *UvMap) Material {
	requested := *key
	if !constrainKey(key, uvmap) {
		g.logger.Warn("material needs more than two UV sets, dropping textures",
			zap.String("requested", requested.Name()),
			zap.String("constrained", key.Name()))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if m, ok := g.cache[*key]; ok {
		return m
	}
	m := NewMaterial(WithKey(*key), WithUvMap(*uvmap))
	g.cache[*key] = m
	g.order = append(g.order, m)
	g.logger.Debug("material created", zap.String("name", m.Name()))
	return m
}

func (g *generator) Materials() []Material {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Material, len(g.order))
	copy(out, g.order)
	return out
}

func (g *generator) MaterialCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

func (g *generator) DestroyMaterials() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.order {
		if mm, ok := m.(*material); ok {
			mm.destroy()
		}
	}
	g.cache = make(map[Key]Material)
	g.order = nil
}
