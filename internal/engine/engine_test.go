package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/netfold/netfold/internal/apply"
	"github.com/netfold/netfold/internal/clock"
	"github.com/netfold/netfold/internal/fragio"
	"github.com/netfold/netfold/internal/hash"
	"github.com/netfold/netfold/internal/merge"
	"github.com/netfold/netfold/internal/store"
	"github.com/netfold/netfold/internal/tree"
)

func mustParse(t *testing.T, doc string) *tree.Node {
	t.Helper()
	n, err := fragio.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return n
}

func newTestEngine(files map[string]string) (*Engine, *fragio.FakeSource, *apply.FakeRunner, *clock.FakeClock) {
	raw := make(map[string][]byte, len(files))
	for id, doc := range files {
		raw[id] = []byte(doc)
	}
	source := fragio.NewFakeSource(raw)
	runner := &apply.FakeRunner{}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	eng := New(source, runner, hash.NewSHA256Hasher(), clk, merge.PolicyDedup)
	return eng, source, runner, clk
}

func TestLoad(t *testing.T) {
	t.Run("loads and folds all fragments", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(map[string]string{
			"10-base.yaml":     "network: {ethernets: {eth0: {dhcp4: true}}}",
			"90-override.yaml": "network: {ethernets: {eth0: {dhcp4: false}}}",
		})

		result, err := eng.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := []string{"10-base.yaml", "90-override.yaml"}
		if diff := cmp.Diff(want, result.Fragments); diff != "" {
			t.Errorf("fragment order (-want +got):\n%s", diff)
		}

		entity, ok := eng.Entity("ethernets", "eth0")
		if !ok {
			t.Fatal("expected eth0 in the plan")
		}
		dhcp, _ := entity.Get("dhcp4")
		if dhcp.Value() != false {
			t.Errorf("expected later fragment to win, got %v", dhcp.Value())
		}
	})

	t.Run("empty fragment file loads as empty mapping", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(map[string]string{
			"10-base.yaml":  "network: {ethernets: {eth0: {}}}",
			"20-empty.yaml": "# reserved for local overrides\n",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if names, ok := eng.EntityNames("ethernets"); !ok || len(names) != 1 {
			t.Error("empty fragment should not disturb the plan")
		}
	})

	t.Run("parse failure keeps prior state", func(t *testing.T) {
		eng, source, _, _ := newTestEngine(map[string]string{
			"10-base.yaml": "network: {ethernets: {eth0: {dhcp4: true}}}",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("initial Load failed: %v", err)
		}

		// A malformed fragment appears; the reload must fail whole.
		if err := source.Write("20-broken.yaml", []byte("network: [unclosed")); err != nil {
			t.Fatalf("failed to inject fragment: %v", err)
		}

		_, err := eng.Load()
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected *LoadError, got %v", err)
		}
		if loadErr.Path != "20-broken.yaml" {
			t.Errorf("expected failing path 20-broken.yaml, got %q", loadErr.Path)
		}

		// Prior state is untouched.
		if _, ok := eng.Entity("ethernets", "eth0"); !ok {
			t.Error("failed reload should keep the previous fragment set")
		}
		status := eng.Status()
		if diff := cmp.Diff([]string{"10-base.yaml"}, status.Fragments); diff != "" {
			t.Errorf("fragments after failed reload (-want +got):\n%s", diff)
		}
	})

	t.Run("read failure surfaces as LoadError", func(t *testing.T) {
		eng, source, _, _ := newTestEngine(map[string]string{
			"10-base.yaml": "network: {}",
		})
		boom := errors.New("permission denied")
		source.FailRead("10-base.yaml", boom)

		_, err := eng.Load()
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped read error, got %v", err)
		}
	})
}

func TestSetEntity(t *testing.T) {
	t.Run("read-after-write through the engine", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(map[string]string{
			"10-base.yaml": "network: {ethernets: {eth0: {dhcp4: true}}}",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		result, err := eng.SetEntity(&SetRequest{
			Category: "ethernets",
			Name:     "eth0",
			Data:     mustParse(t, "{dhcp4: false, addresses: [10.0.0.5/24]}"),
		})
		if err != nil {
			t.Fatalf("SetEntity failed: %v", err)
		}
		if result.Owner != "10-base.yaml" {
			t.Errorf("expected owner 10-base.yaml, got %q", result.Owner)
		}

		want := mustParse(t, "{dhcp4: false, addresses: [10.0.0.5/24]}")
		if !tree.Equal(result.Entity, want) {
			t.Error("result entity does not reflect the merged value")
		}

		status := eng.Status()
		if diff := cmp.Diff([]string{"10-base.yaml"}, status.Dirty); diff != "" {
			t.Errorf("dirty set (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects incomplete requests", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(nil)
		if _, err := eng.SetEntity(&SetRequest{Category: "ethernets"}); err == nil {
			t.Error("expected error for missing name")
		}
		if _, err := eng.SetEntity(&SetRequest{Category: "ethernets", Name: "eth0"}); err == nil {
			t.Error("expected error for missing data")
		}
	})

	t.Run("zero fragments surfaces the store error", func(t *testing.T) {
		eng, _, _, _ := newTestEngine(nil)
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		_, err := eng.SetEntity(&SetRequest{
			Category: "ethernets",
			Name:     "eth0",
			Data:     mustParse(t, "{dhcp4: true}"),
		})
		if !errors.Is(err, store.ErrNoFragments) {
			t.Errorf("expected ErrNoFragments, got %v", err)
		}
	})
}

func TestFlush(t *testing.T) {
	t.Run("writes only changed fragments and round-trips", func(t *testing.T) {
		eng, source, _, clk := newTestEngine(map[string]string{
			"10-base.yaml":  "network: {ethernets: {eth0: {dhcp4: true}}}",
			"20-other.yaml": "network: {bridges: {}}",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if _, err := eng.SetEntity(&SetRequest{
			Category: "ethernets",
			Name:     "eth0",
			Data:     mustParse(t, "{dhcp4: false}"),
		}); err != nil {
			t.Fatalf("SetEntity failed: %v", err)
		}

		clk.Advance(time.Minute)
		result, err := eng.Flush()
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if result.Persisted != 1 {
			t.Errorf("expected 1 persisted, got %d", result.Persisted)
		}
		if diff := cmp.Diff([]string{"10-base.yaml"}, result.Written); diff != "" {
			t.Errorf("written fragments (-want +got):\n%s", diff)
		}

		// The persisted bytes parse back to the mutated fragment.
		data, ok := source.File("10-base.yaml")
		if !ok {
			t.Fatal("fragment missing from source")
		}
		persisted, err := fragio.Parse(data)
		if err != nil {
			t.Fatalf("persisted fragment does not parse: %v", err)
		}
		want := mustParse(t, "network: {ethernets: {eth0: {dhcp4: false}}}")
		if !tree.Equal(persisted, want) {
			t.Error("persisted fragment content mismatch")
		}

		if got := eng.Status().FlushedAt; !got.Equal(clk.Now()) {
			t.Errorf("FlushedAt not stamped: %v", got)
		}

		// Nothing left to do.
		second, err := eng.Flush()
		if err != nil {
			t.Fatalf("second Flush failed: %v", err)
		}
		if second.Persisted != 0 || len(second.Written) != 0 {
			t.Error("second flush should persist nothing")
		}
	})

	t.Run("no-op edits are skipped, not rewritten", func(t *testing.T) {
		eng, source, _, _ := newTestEngine(map[string]string{
			"10-base.yaml": "network: {ethernets: {eth0: {dhcp4: true}}}",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		// Re-assert the value already on disk.
		if _, err := eng.SetEntity(&SetRequest{
			Category: "ethernets",
			Name:     "eth0",
			Data:     mustParse(t, "{dhcp4: true}"),
		}); err != nil {
			t.Fatalf("SetEntity failed: %v", err)
		}

		result, err := eng.Flush()
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if result.Persisted != 0 {
			t.Errorf("expected 0 persisted, got %d", result.Persisted)
		}
		if diff := cmp.Diff([]string{"10-base.yaml"}, result.Skipped); diff != "" {
			t.Errorf("skipped fragments (-want +got):\n%s", diff)
		}
		if len(source.Written) != 0 {
			t.Error("source should not have been written")
		}
		if len(eng.Status().Dirty) != 0 {
			t.Error("skipped fragment should be cleaned")
		}
	})

	t.Run("write failure keeps partial progress", func(t *testing.T) {
		eng, source, _, _ := newTestEngine(map[string]string{
			"10-a.yaml": "network: {ethernets: {eth0: {}}}",
			"20-b.yaml": "network: {bridges: {br0: {}}}",
		})
		if _, err := eng.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		for _, req := range []*SetRequest{
			{Category: "ethernets", Name: "eth0", Data: mustParse(t, "{dhcp4: true}")},
			{Category: "bridges", Name: "br0", Data: mustParse(t, "{stp: false}")},
		} {
			if _, err := eng.SetEntity(req); err != nil {
				t.Fatalf("SetEntity failed: %v", err)
			}
		}

		boom := errors.New("read-only filesystem")
		source.FailWrite("20-b.yaml", boom)

		result, err := eng.Flush()
		var writeErr *store.WriteError
		if !errors.As(err, &writeErr) {
			t.Fatalf("expected *store.WriteError, got %v", err)
		}
		if writeErr.Fragment != "20-b.yaml" {
			t.Errorf("expected failure on 20-b.yaml, got %s", writeErr.Fragment)
		}
		if result.Persisted != 1 {
			t.Errorf("expected 1 persisted before failure, got %d", result.Persisted)
		}

		// The failed fragment is still dirty and a later flush retries it.
		if diff := cmp.Diff([]string{"20-b.yaml"}, eng.Status().Dirty); diff != "" {
			t.Errorf("dirty set after failure (-want +got):\n%s", diff)
		}
	})
}

func TestApply(t *testing.T) {
	t.Run("passes the trial flag through", func(t *testing.T) {
		eng, _, runner, _ := newTestEngine(nil)
		runner.Result = &apply.Result{Status: 0, Stdout: "ok\n"}

		result, err := eng.Apply(context.Background(), &ApplyRequest{Trial: true})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if result.Stdout != "ok\n" {
			t.Errorf("unexpected stdout %q", result.Stdout)
		}
		if len(runner.Calls) != 1 || runner.Calls[0] != true {
			t.Errorf("expected one trial call, got %v", runner.Calls)
		}
	})

	t.Run("non-zero exit surfaces unchanged", func(t *testing.T) {
		eng, _, runner, _ := newTestEngine(nil)
		runner.Err = &apply.ExitError{Status: 1, Stderr: "invalid config\n"}

		_, err := eng.Apply(context.Background(), &ApplyRequest{})
		var exitErr *apply.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("expected *apply.ExitError, got %v", err)
		}
		if exitErr.Stderr != "invalid config\n" {
			t.Errorf("stderr not carried: %q", exitErr.Stderr)
		}
	})
}

func TestStatus(t *testing.T) {
	eng, _, _, clk := newTestEngine(map[string]string{
		"10-base.yaml": `
network:
  version: 2
  ethernets:
    eth0: {dhcp4: true}
    eth1: {dhcp4: false}
  bridges:
    br0: {}
`,
	})
	if _, err := eng.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	status := eng.Status()
	wantCategories := map[string]int{"ethernets": 2, "bridges": 1}
	if diff := cmp.Diff(wantCategories, status.Categories); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}
	if !status.LoadedAt.Equal(clk.Now()) {
		t.Errorf("LoadedAt not stamped: %v", status.LoadedAt)
	}
	if !status.FlushedAt.IsZero() {
		t.Error("FlushedAt should be zero before any flush")
	}
	if len(status.Dirty) != 0 {
		t.Errorf("expected clean store, dirty=%v", status.Dirty)
	}
}
