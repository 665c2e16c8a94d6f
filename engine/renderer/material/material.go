package material

import (
	"slices"
	"sync"
)

// material is the implementation of the Material interface.
type material struct {
	mu        sync.Mutex
	name      string
	key       Key
	uvmap     UvMap
	instances []*instance
}

// Material is a shading model selected by a Key. Render primitives never reference a Material
// directly; they reference one of its Instances, which carry the per-surface parameters.
type Material interface {
	// Name retrieves the material identifier derived from its key.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Key retrieves the constrained feature set of the material.
	//
	// Returns:
	//   - Key: the key after UV constraining
	Key() Key

	// UvMap retrieves the routing of source texture coordinate sets to UV inputs.
	//
	// Returns:
	//   - UvMap: the routing table
	UvMap() UvMap

	// CreateInstance creates a new parameter set of this material.
	//
	// Returns:
	//   - Instance: the new instance
	CreateInstance() Instance

	// DestroyInstance releases an instance previously created by this material.
	// Instances of other materials are ignored.
	//
	// Parameters:
	//   - inst: the instance to release
	DestroyInstance(inst Instance)

	// InstanceCount returns the number of live instances.
	//
	// Returns:
	//   - int: the live instance count
	InstanceCount() int
}

var _ Material = &material{}

// NewMaterial creates a Material configured with the provided options.
// Most callers obtain materials from a Provider instead.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{}
	for _, opt := range options {
		opt(m)
	}
	if m.name == "" {
		m.name = m.key.Name()
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Key() Key {
	return m.key
}

func (m *material) UvMap() UvMap {
	return m.uvmap
}

func (m *material) CreateInstance() Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst := newInstance(m)
	m.instances = append(m.instances, inst)
	return inst
}

func (m *material) DestroyInstance(inst Instance) {
	mi, ok := inst.(*instance)
	if !ok || mi.owner != m {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = slices.DeleteFunc(m.instances, func(i *instance) bool { return i == mi })
}

func (m *material) InstanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// destroy drops every instance; the material must not be used afterwards.
func (m *material) destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = nil
}
