package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// fakeTool is a configurable Tool for runner tests.
type fakeTool struct {
	name    string
	deps    []string
	err     error
	finding bool

	started func(name string)
}

func (f *fakeTool) Name() string           { return f.name }
func (f *fakeTool) Tier() model.Tier       { return model.TierCore }
func (f *fakeTool) Dependencies() []string { return f.deps }

func (f *fakeTool) Run(_ context.Context, _ *project.Project) (*model.ToolResult, error) {
	if f.started != nil {
		f.started(f.name)
	}
	if f.err != nil {
		return nil, f.err
	}
	res := model.NewToolResult(f.name, model.TierCore)
	if f.finding {
		res.AddFinding(model.NewFinding(f.name, "legacy_reference", "a.go", 1))
	}
	return res, nil
}

// TestGroupByDependency tests topological grouping.
func TestGroupByDependency(t *testing.T) {
	t.Parallel()

	t.Run("independent tools share a group", func(t *testing.T) {
		t.Parallel()

		groups, err := groupByDependency([]Tool{
			&fakeTool{name: "a"},
			&fakeTool{name: "b"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 || len(groups[0]) != 2 {
			t.Errorf("groups = %d with %d tools, want 1 group of 2", len(groups), len(groups[0]))
		}
	})

	t.Run("dependent tool lands in a later group", func(t *testing.T) {
		t.Parallel()

		groups, err := groupByDependency([]Tool{
			&fakeTool{name: "doc-sync", deps: []string{"doc-lint"}},
			&fakeTool{name: "doc-lint"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(groups))
		}
		if groups[0][0].Name() != "doc-lint" || groups[1][0].Name() != "doc-sync" {
			t.Errorf("unexpected group order: %v then %v", groups[0][0].Name(), groups[1][0].Name())
		}
	})

	t.Run("unselected dependency is ignored", func(t *testing.T) {
		t.Parallel()

		groups, err := groupByDependency([]Tool{
			&fakeTool{name: "import-audit", deps: []string{"function-registry"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 {
			t.Errorf("got %d groups, want 1", len(groups))
		}
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := groupByDependency([]Tool{
			&fakeTool{name: "a", deps: []string{"b"}},
			&fakeTool{name: "b", deps: []string{"a"}},
		})
		if err == nil || !strings.Contains(err.Error(), "cycle") {
			t.Errorf("got %v, want dependency cycle error", err)
		}
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := groupByDependency([]Tool{
			&fakeTool{name: "a"},
			&fakeTool{name: "a"},
		})
		if err == nil {
			t.Error("expected error for duplicate tool name")
		}
	})
}

// TestRunnerRun tests end-to-end execution semantics.
func TestRunnerRun(t *testing.T) {
	t.Parallel()

	proj := project.New(t.TempDir(), nil, nil)

	t.Run("results keep input order", func(t *testing.T) {
		t.Parallel()

		tools := []Tool{
			&fakeTool{name: "z-tool", finding: true},
			&fakeTool{name: "a-tool"},
		}
		results, err := New(WithJobs(2)).Run(context.Background(), proj, tools)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if results[0].Tool != "z-tool" || results[1].Tool != "a-tool" {
			t.Errorf("result order = %s, %s; want input order", results[0].Tool, results[1].Tool)
		}
	})

	t.Run("tool error is recorded, not fatal", func(t *testing.T) {
		t.Parallel()

		tools := []Tool{
			&fakeTool{name: "broken", err: errors.New("boom")},
			&fakeTool{name: "fine", finding: true},
		}
		results, err := New().Run(context.Background(), proj, tools)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Summary.Status != model.StatusError {
			t.Errorf("broken tool status = %q, want error", results[0].Summary.Status)
		}
		if results[1].Summary.Status != model.StatusIssues {
			t.Errorf("fine tool status = %q, want issues", results[1].Summary.Status)
		}
	})

	t.Run("dependent of failed tool carries a note", func(t *testing.T) {
		t.Parallel()

		tools := []Tool{
			&fakeTool{name: "doc-lint", err: errors.New("boom")},
			&fakeTool{name: "doc-sync", deps: []string{"doc-lint"}},
		}
		results, err := New().Run(context.Background(), proj, tools)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var docSync *model.ToolResult
		for _, r := range results {
			if r.Tool == "doc-sync" {
				docSync = r
			}
		}
		if docSync == nil || !strings.Contains(docSync.Note, "doc-lint") {
			t.Errorf("expected degraded note on doc-sync, got %+v", docSync)
		}
	})

	t.Run("dependency runs before dependent", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		record := func(name string) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}

		tools := []Tool{
			&fakeTool{name: "doc-sync", deps: []string{"doc-lint"}, started: record},
			&fakeTool{name: "doc-lint", started: record},
		}
		if _, err := New(WithJobs(4)).Run(context.Background(), proj, tools); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "doc-lint" {
			t.Errorf("execution order = %v, want doc-lint first", order)
		}
	})

	t.Run("cancelled context stops between groups", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var ran atomic.Int32
		tools := []Tool{
			&fakeTool{name: "first", started: func(string) {
				ran.Add(1)
				cancel()
			}},
			&fakeTool{name: "second", deps: []string{"first"}, started: func(string) {
				ran.Add(1)
			}},
		}

		_, err := New().Run(ctx, proj, tools)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
		if ran.Load() != 1 {
			t.Errorf("%d tools ran, want 1", ran.Load())
		}
	})
}
