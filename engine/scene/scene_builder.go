package scene

// EntityManagerBuilderOption is a functional option for configuring an EntityManager.
type EntityManagerBuilderOption func(em *entityManager)

// WithHandleReuse makes the manager hand out destroyed handles again before allocating new ones.
// By default handles are never reused, which keeps stale handles detectable through IsAlive.
//
// Parameters:
//   - reuse: true to recycle destroyed handles
//
// Returns:
//   - EntityManagerBuilderOption: option function to apply
func WithHandleReuse(reuse bool) EntityManagerBuilderOption {
	return func(em *entityManager) {
		em.reuse = reuse
	}
}

// TransformManagerBuilderOption is a functional option for configuring a TransformManager.
type TransformManagerBuilderOption func(tm *transformManager)

// WithCapacity preallocates storage for n transform components.
//
// Parameters:
//   - n: the expected number of components
//
// Returns:
//   - TransformManagerBuilderOption: option function to apply
func WithCapacity(n int) TransformManagerBuilderOption {
	return func(tm *transformManager) {
		if n > 0 {
			tm.nodes = make(map[Entity]*transformNode, n)
		}
	}
}
