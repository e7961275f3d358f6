package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/netfold/netfold/internal/apply"
	"github.com/netfold/netfold/internal/clock"
	"github.com/netfold/netfold/internal/config"
	"github.com/netfold/netfold/internal/engine"
	"github.com/netfold/netfold/internal/fragio"
	"github.com/netfold/netfold/internal/hash"
	"github.com/netfold/netfold/internal/merge"
	"github.com/netfold/netfold/internal/tree"
)

// newEngine creates an engine with real implementations of all collaborators,
// configured from the global flags.
func newEngine() (*engine.Engine, error) {
	cfg := config.Default()
	if configDir != "" {
		cfg.FragmentDir = configDir
	}
	if netplanBin != "" {
		cfg.ApplyBin = netplanBin
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	policy, err := mergePolicy()
	if err != nil {
		return nil, err
	}

	source := fragio.NewDirSource(cfg.FragmentDir)
	runner := apply.NewExecRunner(cfg.ApplyBin)
	return engine.New(source, runner, hash.NewSHA256Hasher(), &clock.RealClock{}, policy), nil
}

// loadedEngine creates an engine and loads the fragment set.
func loadedEngine() (*engine.Engine, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, err
	}
	if _, err := eng.Load(); err != nil {
		return nil, err
	}
	return eng, nil
}

// mergePolicy resolves the --merge-lists flag.
func mergePolicy() (merge.Policy, error) {
	switch mergeMode {
	case "dedup":
		return merge.PolicyDedup, nil
	case "concat":
		return merge.PolicyConcat, nil
	default:
		return 0, fmt.Errorf("invalid merge-lists policy %q (want dedup or concat)", mergeMode)
	}
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTree writes a tree as YAML, or as JSON when --json is set.
func writeTree(w io.Writer, node *tree.Node) error {
	if jsonOutput {
		return writeJSON(w, node.Interface())
	}
	data, err := fragio.Serialize(node)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
