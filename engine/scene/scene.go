// Package scene stores the entity hierarchy produced by asset import: entity handles and the parent/child transform graph.
package scene

import "sync"

// Entity is an opaque handle to an object in the scene. The zero value is the null entity.
type Entity uint32

// Null is the entity that never exists. It is used as the parent of root transforms.
const Null Entity = 0

// IsNull reports whether e is the null entity.
func (e Entity) IsNull() bool {
	return e == Null
}

type entityManager struct {
	mu    sync.RWMutex
	next  Entity
	alive map[Entity]struct{}
	frees []Entity
	reuse bool
}

// EntityManager allocates and tracks entity handles.
// Thread-safe for concurrent access.
type EntityManager interface {
	// Create allocates a new live entity.
	//
	// Returns:
	//   - Entity: the new handle, never Null
	Create() Entity

	// CreateN allocates n live entities in order.
	//
	// Parameters:
	//   - n: the number of entities to allocate
	//
	// Returns:
	//   - []Entity: the new handles
	CreateN(n int) []Entity

	// Destroy releases the entity. Destroying a dead or null entity is a no-op.
	//
	// Parameters:
	//   - e: the entity to release
	Destroy(e Entity)

	// IsAlive reports whether the entity was created and not yet destroyed.
	IsAlive(e Entity) bool

	// Count returns the number of live entities.
	Count() int
}

var _ EntityManager = &entityManager{}

// NewEntityManager creates an EntityManager configured with the given options.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - EntityManager: the new manager
func NewEntityManager(options ...EntityManagerBuilderOption) EntityManager {
	em := &entityManager{
		next:  1,
		alive: make(map[Entity]struct{}),
	}
	for _, opt := range options {
		opt(em)
	}
	return em
}

func (em *entityManager) Create() Entity {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.createLocked()
}

func (em *entityManager) CreateN(n int) []Entity {
	em.mu.Lock()
	defer em.mu.Unlock()

	out := make([]Entity, n)
	for i := range out {
		out[i] = em.createLocked()
	}
	return out
}

func (em *entityManager) createLocked() Entity {
	var e Entity
	if em.reuse && len(em.frees) > 0 {
		e = em.frees[len(em.frees)-1]
		em.frees = em.frees[:len(em.frees)-1]
	} else {
		e = em.next
		em.next++
	}
	em.alive[e] = struct{}{}
	return e
}

func (em *entityManager) Destroy(e Entity) {
	em.mu.Lock()
	defer em.mu.Unlock()

	if _, ok := em.alive[e]; !ok {
		return
	}
	delete(em.alive, e)
	if em.reuse {
		em.frees = append(em.frees, e)
	}
}

func (em *entityManager) IsAlive(e Entity) bool {
	em.mu.RLock()
	defer em.mu.RUnlock()
	_, ok := em.alive[e]
	return ok
}

func (em *entityManager) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.alive)
}
