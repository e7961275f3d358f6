// Package store implements the layered configuration store.
//
// The store owns the ordered set of configuration fragments, the derived
// unified view (the plan), and the set of fragments whose in-memory tree has
// diverged from disk. Reads are answered from the plan; writes resolve which
// fragment owns the touched entity, merge into that fragment, and recompute
// the plan before returning.
//
// Key invariants:
//   - the plan always equals the fold of all fragments in identifier order
//   - a fragment is dirty exactly when it was mutated since load or the
//     last successful flush
//   - mutating operations are serialized; reads may run concurrently
package store

import (
	"sort"
	"sync"

	"github.com/netfold/netfold/internal/merge"
	"github.com/netfold/netfold/internal/tree"
)

// networkKey is the fixed top-level namespace every fragment contributes to.
const networkKey = "network"

// Sink receives fragment trees during a flush. WriteFragment reports false
// when the fragment's persisted form was already up to date and no write
// happened.
type Sink interface {
	WriteFragment(id string, node *tree.Node) (bool, error)
}

// Store is the layered configuration store. Use New to create one.
type Store struct {
	mu     sync.RWMutex
	policy merge.Policy

	order     []string
	fragments map[string]*tree.Node
	plan      *tree.Node
	dirty     map[string]struct{}
}

// New creates an empty store using the given sequence-merge policy.
func New(policy merge.Policy) *Store {
	s := &Store{
		policy:    policy,
		fragments: make(map[string]*tree.Node),
		dirty:     make(map[string]struct{}),
	}
	s.recompute()
	return s
}

// Policy returns the sequence-merge policy the store folds with.
func (s *Store) Policy() merge.Policy {
	return s.policy
}

// Load replaces the entire fragment set. Identifiers are ordered by an
// ascending sort, the dirty set is cleared, and the plan is recomputed.
// The store clones every tree on ingest so it holds the only mutable
// reference.
func (s *Store) Load(fragments map[string]*tree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(fragments))
	s.fragments = make(map[string]*tree.Node, len(fragments))
	for id, frag := range fragments {
		s.order = append(s.order, id)
		s.fragments[id] = frag.Clone()
	}
	sort.Strings(s.order)

	s.dirty = make(map[string]struct{})
	s.recompute()
}

// Identifiers returns the fragment identifiers in load order.
func (s *Store) Identifiers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Fragment returns a copy of one fragment's unmerged tree.
func (s *Store) Fragment(id string) (*tree.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frag, ok := s.fragments[id]
	if !ok {
		return nil, false
	}
	return frag.Clone(), true
}

// Plan returns a copy of the folded configuration view.
func (s *Store) Plan() *tree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.plan.Clone()
}

// Entities returns the mapping at plan.network[category]. It reports false
// when the category is missing or not mapping-shaped.
func (s *Store) Entities(category string) (*tree.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.planCategory(category)
	if !ok {
		return nil, false
	}
	return cat.Clone(), true
}

// EntityNames returns the sorted entity names under a category. It reports
// false when the category is missing or not mapping-shaped.
func (s *Store) EntityNames(category string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.planCategory(category)
	if !ok {
		return nil, false
	}
	names := make([]string, len(cat.Keys()))
	copy(names, cat.Keys())
	sort.Strings(names)
	return names, true
}

// Entity returns the value at plan.network[category][name]. It reports false
// when any path segment is missing or the category is not mapping-shaped.
func (s *Store) Entity(category, name string) (*tree.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.planCategory(category)
	if !ok {
		return nil, false
	}
	entity, ok := cat.Get(name)
	if !ok {
		return nil, false
	}
	return entity.Clone(), true
}

// ResolveOwner scans fragments in reverse identifier order and returns the
// first one whose own, unmerged tree defines network[category] as a mapping
// and, when name is non-empty, network[category][name] as a mapping. Edits to
// an existing entity therefore stay colocated with its latest definition.
func (s *Store) ResolveOwner(category, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolveOwner(category, name)
}

// SetEntity merges data into the entity at (category, name) inside its owning
// fragment, marks that fragment dirty, and recomputes the plan before
// returning the owner's identifier.
//
// Owner resolution falls back in two stages: a fragment defining the exact
// entity, then any fragment defining the category, then the earliest-sorted
// fragment. With zero fragments it fails with ErrNoFragments.
//
// Null values in data overwrite like any other value; they never delete keys
// from the owning fragment.
func (s *Store) SetEntity(category, name string, data *tree.Node) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return "", ErrNoFragments
	}

	owner, ok := s.resolveOwner(category, name)
	if !ok {
		owner, ok = s.resolveOwner(category, "")
	}
	if !ok {
		owner = s.order[0]
	}

	patch := tree.Map()
	categoryNode := tree.Map()
	entityNode := tree.Map()
	entityNode.Set(name, data.Clone())
	categoryNode.Set(category, entityNode)
	patch.Set(networkKey, categoryNode)

	s.fragments[owner] = merge.Combine(s.fragments[owner], patch, s.policy)
	s.dirty[owner] = struct{}{}
	s.recompute()

	return owner, nil
}

// Dirty returns the sorted identifiers of fragments pending persistence.
func (s *Store) Dirty() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush hands every dirty fragment to the sink in sorted identifier order and
// returns how many were actually written. The first failure aborts the flush
// with a *WriteError: fragments already handed off stay clean, fragments not
// yet attempted stay dirty. Flush is per-fragment all-or-nothing, not
// globally atomic.
func (s *Store) Flush(sink Sink) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	written := 0
	for _, id := range ids {
		wrote, err := sink.WriteFragment(id, s.fragments[id].Clone())
		if err != nil {
			return written, &WriteError{Fragment: id, Err: err}
		}
		delete(s.dirty, id)
		if wrote {
			written++
		}
	}
	return written, nil
}

// planCategory must be called with at least a read lock held.
func (s *Store) planCategory(category string) (*tree.Node, bool) {
	network, ok := s.plan.Get(networkKey)
	if !ok || !network.IsMapping() {
		return nil, false
	}
	cat, ok := network.Get(category)
	if !ok || !cat.IsMapping() {
		return nil, false
	}
	return cat, true
}

// resolveOwner must be called with at least a read lock held.
func (s *Store) resolveOwner(category, name string) (string, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		if ownsEntity(s.fragments[id], category, name) {
			return id, true
		}
	}
	return "", false
}

// ownsEntity reports whether a fragment's own tree defines the category (and
// entity, when name is non-empty) as mapping-shaped nodes.
func ownsEntity(frag *tree.Node, category, name string) bool {
	network, ok := frag.Get(networkKey)
	if !ok || !network.IsMapping() {
		return false
	}
	cat, ok := network.Get(category)
	if !ok || !cat.IsMapping() {
		return false
	}
	if name == "" {
		return true
	}
	entity, ok := cat.Get(name)
	return ok && entity.IsMapping()
}

// recompute refolds the plan from the current fragments. Must be called with
// the write lock held (or during construction). The plan of an empty store is
// an empty mapping rooted at the network namespace.
func (s *Store) recompute() {
	ordered := make([]*tree.Node, len(s.order))
	for i, id := range s.order {
		ordered[i] = s.fragments[id]
	}
	plan := merge.Fold(ordered, s.policy)
	if plan.Kind() != tree.KindMapping {
		plan = tree.Map()
	}
	if _, ok := plan.Get(networkKey); !ok {
		plan.Set(networkKey, tree.Map())
	}
	s.plan = plan
}
