// Package engine orchestrates the netfold operations.
//
// The engine wires the I/O collaborators (fragment source, apply runner)
// around the layered configuration store and is the API surface called by the
// CLI. It owns the load path (enumerate, read, parse, ingest), the flush path
// (serialize, skip-unchanged, write back), and the pass-through to the
// external apply tool.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/netfold/netfold/internal/apply"
	"github.com/netfold/netfold/internal/clock"
	"github.com/netfold/netfold/internal/fragio"
	"github.com/netfold/netfold/internal/hash"
	"github.com/netfold/netfold/internal/merge"
	"github.com/netfold/netfold/internal/store"
	"github.com/netfold/netfold/internal/tree"
)

// Engine coordinates the fragment source, the configuration store, and the
// apply runner. Create one with New.
type Engine struct {
	source fragio.Source
	runner apply.Runner
	hasher hash.Hasher
	clock  clock.Clock
	store  *store.Store

	mu        sync.Mutex
	persisted map[string]string // fragment id -> hash of last persisted serialization
	loadedAt  time.Time
	flushedAt time.Time
}

// New creates an Engine with the given collaborators and sequence-merge
// policy.
func New(source fragio.Source, runner apply.Runner, hasher hash.Hasher, clk clock.Clock, policy merge.Policy) *Engine {
	return &Engine{
		source:    source,
		runner:    runner,
		hasher:    hasher,
		clock:     clk,
		store:     store.New(policy),
		persisted: make(map[string]string),
	}
}

// Load reads and parses every fragment the source enumerates and replaces the
// store's contents. On any failure it returns a *LoadError and leaves the
// prior state untouched; partial loads never happen. Load may be called again
// for a full reload.
func (e *Engine) Load() (*LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.source.List()
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	fragments := make(map[string]*tree.Node, len(ids))
	hashes := make(map[string]string, len(ids))
	for _, id := range ids {
		data, err := e.source.Read(id)
		if err != nil {
			return nil, &LoadError{Path: id, Err: err}
		}
		node, err := fragio.Parse(data)
		if err != nil {
			return nil, &LoadError{Path: id, Err: err}
		}
		// Hash the canonical serialization, not the raw bytes, so the
		// unchanged check in Flush compares like with like.
		canonical, err := fragio.Serialize(node)
		if err != nil {
			return nil, &LoadError{Path: id, Err: err}
		}
		fragments[id] = node
		hashes[id] = e.hasher.Sum(canonical)
	}

	e.store.Load(fragments)
	e.persisted = hashes
	e.loadedAt = e.clock.Now()

	return &LoadResult{Fragments: e.store.Identifiers()}, nil
}

// Plan returns a copy of the folded configuration view.
func (e *Engine) Plan() *tree.Node {
	return e.store.Plan()
}

// Entities returns the mapping of entities under a category.
func (e *Engine) Entities(category string) (*tree.Node, bool) {
	return e.store.Entities(category)
}

// EntityNames returns the sorted entity names under a category.
func (e *Engine) EntityNames(category string) ([]string, bool) {
	return e.store.EntityNames(category)
}

// Entity returns one entity's merged configuration.
func (e *Engine) Entity(category, name string) (*tree.Node, bool) {
	return e.store.Entity(category, name)
}

// SetEntity merges the request's data into the owning fragment and reports
// the owner and the entity's merged value as now visible in the plan.
func (e *Engine) SetEntity(req *SetRequest) (*SetResult, error) {
	if req.Category == "" || req.Name == "" {
		return nil, fmt.Errorf("category and name must be set")
	}
	if req.Data == nil {
		return nil, fmt.Errorf("no data to set")
	}

	owner, err := e.store.SetEntity(req.Category, req.Name, req.Data)
	if err != nil {
		return nil, err
	}

	entity, _ := e.store.Entity(req.Category, req.Name)
	return &SetResult{Owner: owner, Entity: entity}, nil
}

// Flush serializes the dirty fragments and writes back the ones whose content
// actually changed. On a persistence failure the returned result still
// carries the partial progress alongside the *store.WriteError.
func (e *Engine) Flush() (*FlushResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sink := &contentSink{engine: e}
	persisted, err := e.store.Flush(sink)
	result := &FlushResult{
		Persisted: persisted,
		Written:   sink.written,
		Skipped:   sink.skipped,
	}
	if err != nil {
		return result, err
	}

	e.flushedAt = e.clock.Now()
	return result, nil
}

// Apply runs the external apply tool. A non-zero exit surfaces as
// *apply.ExitError with the captured output streams; it is never retried.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*apply.Result, error) {
	return e.runner.Run(ctx, req.Trial)
}

// Status reports the loaded fragments, the dirty set, per-category entity
// counts, and the load/flush timestamps.
func (e *Engine) Status() *StatusResult {
	e.mu.Lock()
	loadedAt, flushedAt := e.loadedAt, e.flushedAt
	e.mu.Unlock()

	result := &StatusResult{
		Fragments:  e.store.Identifiers(),
		Dirty:      e.store.Dirty(),
		Categories: make(map[string]int),
		LoadedAt:   loadedAt,
		FlushedAt:  flushedAt,
	}

	plan := e.store.Plan()
	if network, ok := plan.Get("network"); ok && network.IsMapping() {
		for _, category := range network.Keys() {
			node, _ := network.Get(category)
			if node.IsMapping() {
				result.Categories[category] = node.Len()
			}
		}
	}
	return result
}

// contentSink adapts the fragment source into a store.Sink that skips
// fragments whose serialized content is already on disk.
type contentSink struct {
	engine  *Engine
	written []string
	skipped []string
}

func (s *contentSink) WriteFragment(id string, node *tree.Node) (bool, error) {
	data, err := fragio.Serialize(node)
	if err != nil {
		return false, err
	}

	sum := s.engine.hasher.Sum(data)
	if s.engine.persisted[id] == sum {
		s.skipped = append(s.skipped, id)
		return false, nil
	}

	if err := s.engine.source.Write(id, data); err != nil {
		return false, err
	}
	s.engine.persisted[id] = sum
	s.written = append(s.written, id)
	return true, nil
}
