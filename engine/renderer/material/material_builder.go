package material

// MaterialBuilderOption is a function that configures a material during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithKey is an option builder that sets the feature key of the material.
//
// Parameters:
//   - key: the constrained key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the key option to a material
func WithKey(key Key) MaterialBuilderOption {
	return func(m *material) {
		m.key = key
	}
}

// WithUvMap is an option builder that sets the UV routing table of the material.
//
// Parameters:
//   - uvmap: the routing from source texture coordinate sets to UV inputs
//
// Returns:
//   - MaterialBuilderOption: a function that applies the UV map option to a material
func WithUvMap(uvmap UvMap) MaterialBuilderOption {
	return func(m *material) {
		m.uvmap = uvmap
	}
}

// ProviderBuilderOption is a function that configures a Provider during construction.
type ProviderBuilderOption func(*generator)

// WithMaterial pre-registers a material for a constrained key, bypassing generation for that key.
//
// Parameters:
//   - key: the constrained key the material answers to
//   - m: the material
//
// Returns:
//   - ProviderBuilderOption: a function that registers the material
func WithMaterial(key Key, m Material) ProviderBuilderOption {
	return func(g *generator) {
		g.cache[key] = m
		g.order = append(g.order, m)
	}
}
