// Package merge implements the combinator that folds ordered configuration
// fragments into one tree.
//
// Combine is a pure structural recursion: mappings merge key by key,
// sequences combine according to a Policy, and everything else is
// last-write-wins. Type mismatches never error; the later value simply
// replaces the earlier one.
package merge

import "github.com/netfold/netfold/internal/tree"

// Policy selects how two sequence nodes are combined.
type Policy int

const (
	// PolicyDedup appends elements of the later sequence only when no
	// structurally equal element is already present. First-occurrence order
	// is kept and earlier elements are never removed. This is the default:
	// repeated merges of the same fragment set stay bounded.
	PolicyDedup Policy = iota

	// PolicyConcat appends the later sequence verbatim, duplicates and all.
	PolicyConcat
)

// Combine merges next into prev and returns a new tree. Neither input is
// mutated.
//
// Rules:
//   - mapping x mapping: union of keys, recursing where both sides have one
//   - sequence x sequence: per policy
//   - anything else (scalar vs scalar, mismatched kinds): next wins
//
// A nil side yields a clone of the other.
func Combine(prev, next *tree.Node, policy Policy) *tree.Node {
	if prev == nil {
		return next.Clone()
	}
	if next == nil {
		return prev.Clone()
	}

	switch {
	case prev.Kind() == tree.KindMapping && next.Kind() == tree.KindMapping:
		return combineMappings(prev, next, policy)
	case prev.Kind() == tree.KindSequence && next.Kind() == tree.KindSequence:
		return combineSequences(prev, next, policy)
	default:
		return next.Clone()
	}
}

// Fold reduces an ordered sequence of trees left to right via Combine.
// An empty input yields an empty mapping. Fold is deterministic and
// order-sensitive.
func Fold(nodes []*tree.Node, policy Policy) *tree.Node {
	acc := tree.Map()
	for _, n := range nodes {
		acc = Combine(acc, n, policy)
	}
	return acc
}

func combineMappings(prev, next *tree.Node, policy Policy) *tree.Node {
	result := tree.Map()
	for _, key := range prev.Keys() {
		pv, _ := prev.Get(key)
		if nv, ok := next.Get(key); ok {
			result.Set(key, Combine(pv, nv, policy))
		} else {
			result.Set(key, pv.Clone())
		}
	}
	for _, key := range next.Keys() {
		if _, seen := prev.Get(key); seen {
			continue
		}
		nv, _ := next.Get(key)
		result.Set(key, nv.Clone())
	}
	return result
}

func combineSequences(prev, next *tree.Node, policy Policy) *tree.Node {
	result := tree.Seq()
	for _, item := range prev.Items() {
		result.Append(item.Clone())
	}
	for _, item := range next.Items() {
		if policy == PolicyDedup && containsEqual(result, item) {
			continue
		}
		result.Append(item.Clone())
	}
	return result
}

func containsEqual(seq *tree.Node, candidate *tree.Node) bool {
	for _, item := range seq.Items() {
		if tree.Equal(item, candidate) {
			return true
		}
	}
	return false
}
