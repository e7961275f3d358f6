package engine

import (
	"time"

	"github.com/netfold/netfold/internal/tree"
)

// LoadResult represents the result of loading the fragment set.
type LoadResult struct {
	// Fragments is the ordered list of loaded fragment identifiers.
	Fragments []string
}

// SetRequest represents a request to update one entity.
type SetRequest struct {
	// Category is the entity category, e.g. "ethernets".
	Category string

	// Name is the entity name, e.g. "ens33".
	Name string

	// Data is the mapping merged into the entity.
	Data *tree.Node
}

// SetResult represents the result of an entity update.
type SetResult struct {
	// Owner is the identifier of the fragment the edit landed in.
	Owner string

	// Entity is the entity's merged value as now visible in the plan.
	Entity *tree.Node
}

// FlushResult represents the result of writing back dirty fragments.
type FlushResult struct {
	// Persisted is the number of fragments written in this call.
	Persisted int

	// Written lists the fragments that were written, in order.
	Written []string

	// Skipped lists dirty fragments whose on-disk content was already
	// up to date.
	Skipped []string
}

// ApplyRequest represents a request to run the external apply tool.
type ApplyRequest struct {
	// Trial requests the tool's trial/dry-run mode.
	Trial bool
}

// StatusResult describes the engine's current state.
type StatusResult struct {
	// Fragments is the ordered list of loaded fragment identifiers.
	Fragments []string

	// Dirty lists fragments pending persistence.
	Dirty []string

	// Categories maps each entity category in the plan to its entity count.
	Categories map[string]int

	// LoadedAt is when the fragment set was last loaded.
	LoadedAt time.Time

	// FlushedAt is when the last fully successful flush completed.
	FlushedAt time.Time
}
