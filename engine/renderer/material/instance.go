package material

import (
	"slices"
	"sync"

	"github.com/winnerineast/filament/common"
)

// Texture is an encoded image attached to an instance parameter together with its sampler.
// Data holds the image bytes exactly as stored in the source (PNG, JPEG, ...); decoding to texels happens elsewhere.
type Texture struct {
	MimeType string
	Data     []byte
	// Width and Height are read from the image header, zero when unknown.
	Width   int
	Height  int
	Sampler common.SamplerStagingData
	SRGB    bool
}

type instance struct {
	mu       sync.RWMutex
	owner    *material
	params   map[string]any
	textures map[string]Texture
}

// Instance is one parameter set of a Material. Parameter values are plain Go values
// (float32, mgl32.Vec3, mgl32.Vec4, mgl32.Mat3); textures are attached separately once their bytes are available.
// Thread-safe for concurrent access.
type Instance interface {
	// Material returns the material this instance was created from.
	//
	// Returns:
	//   - Material: the owning material
	Material() Material

	// SetParameter stores a named parameter value, replacing any previous value.
	//
	// Parameters:
	//   - name: the parameter name, e.g. "baseColorFactor"
	//   - value: the value
	SetParameter(name string, value any)

	// Parameter returns a named parameter value.
	//
	// Returns:
	//   - any: the value
	//   - bool: false if the parameter was never set
	Parameter(name string) (any, bool)

	// ParameterNames returns the sorted names of every set parameter.
	ParameterNames() []string

	// SetTexture attaches a texture to a sampler parameter, e.g. "baseColorMap".
	//
	// Parameters:
	//   - name: the sampler parameter name
	//   - tex: the texture
	SetTexture(name string, tex Texture)

	// Texture returns the texture attached to a sampler parameter.
	//
	// Returns:
	//   - Texture: the texture
	//   - bool: false if nothing is attached
	Texture(name string) (Texture, bool)
}

var _ Instance = &instance{}

func newInstance(owner *material) *instance {
	return &instance{
		owner:    owner,
		params:   make(map[string]any),
		textures: make(map[string]Texture),
	}
}

func (i *instance) Material() Material {
	return i.owner
}

func (i *instance) SetParameter(name string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.params[name] = value
}

func (i *instance) Parameter(name string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.params[name]
	return v, ok
}

func (i *instance) ParameterNames() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.params))
	for n := range i.params {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (i *instance) SetTexture(name string, tex Texture) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.textures[name] = tex
}

func (i *instance) Texture(name string) (Texture, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.textures[name]
	return t, ok
}
