// Package runner orchestrates audit tool execution. Tools are partitioned
// into dependency-aware groups: groups run sequentially, tools inside a
// group run in parallel bounded by a concurrency limit.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devaudit/devaudit/internal/model"
	"github.com/devaudit/devaudit/internal/project"
)

// Tool defines the interface that all audit tools implement.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows tools to carry configuration state
// 2. It provides Name/Tier/Dependencies for scheduling and logging
// 3. It's more extensible for future features (e.g. fix support)
type Tool interface {
	// Name returns the tool's name for scheduling and reports.
	Name() string

	// Tier returns the tool's tier classification.
	Tier() model.Tier

	// Dependencies returns the names of tools that must run in an earlier
	// group. Dependencies not present in the current selection are ignored.
	Dependencies() []string

	// Run executes the tool against the project. It returns a result even
	// for non-fatal problems; an error return means the tool could not
	// produce a result at all.
	Run(ctx context.Context, proj *project.Project) (*model.ToolResult, error)
}

// Runner executes a set of tools against a project.
type Runner struct {
	// jobs is the maximum number of tools running concurrently in a group.
	jobs int

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithJobs sets the maximum number of tools running concurrently inside a
// dependency group. Values below 1 are ignored.
func WithJobs(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.jobs = n
		}
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{jobs: 4}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes the tools in dependency order and returns one result per
// tool, in the order the tools were given.
//
// A tool error does not abort the run: the failure is recorded in that
// tool's result and remaining tools still execute, because one broken
// analysis should not hide the findings of the others. Tools whose
// dependencies errored still run but their results carry a degraded note.
// Context cancellation stops the run between groups.
func (r *Runner) Run(ctx context.Context, proj *project.Project, tools []Tool) ([]*model.ToolResult, error) {
	groups, err := groupByDependency(tools)
	if err != nil {
		return nil, err
	}

	r.logger.Info("starting audit run",
		"tools", len(tools),
		"groups", len(groups),
		"jobs", r.jobs,
	)

	var mu sync.Mutex
	resultsByName := make(map[string]*model.ToolResult, len(tools))

	for gi, group := range groups {
		select {
		case <-ctx.Done():
			return orderedResults(tools, resultsByName), ctx.Err()
		default:
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.jobs)

		for _, tool := range group {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				r.logger.Info("running tool",
					"tool", tool.Name(),
					"tier", string(tool.Tier()),
					"group", gi+1,
				)

				start := time.Now()
				result, runErr := tool.Run(gctx, proj)
				elapsed := time.Since(start)

				if result == nil {
					result = model.NewToolResult(tool.Name(), tool.Tier())
				}
				result.Duration = elapsed
				if runErr != nil {
					r.logger.Error("tool failed",
						"tool", tool.Name(),
						"error", runErr,
					)
					result.Fail(runErr.Error())
				} else {
					r.logger.Debug("tool completed",
						"tool", tool.Name(),
						"issues", result.Summary.TotalIssues,
						"elapsed", elapsed,
					)
				}
				result.SortFindings()

				mu.Lock()
				resultsByName[tool.Name()] = result
				mu.Unlock()

				// Tool failures are carried in the result, not the group error.
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return orderedResults(tools, resultsByName), err
		}

		// Annotate later tools whose dependencies failed in this or an
		// earlier group.
		for _, tool := range tools {
			if _, done := resultsByName[tool.Name()]; done {
				continue
			}
			for _, dep := range tool.Dependencies() {
				if res, ok := resultsByName[dep]; ok && res.Summary.Status == model.StatusError {
					r.logger.Warn("dependency failed, results may be incomplete",
						"tool", tool.Name(),
						"dependency", dep,
					)
				}
			}
		}
	}

	results := orderedResults(tools, resultsByName)
	for _, tool := range tools {
		res := resultsByName[tool.Name()]
		if res == nil {
			continue
		}
		for _, dep := range tool.Dependencies() {
			if depRes, ok := resultsByName[dep]; ok && depRes.Summary.Status == model.StatusError {
				res.Note = fmt.Sprintf("dependency %s failed; results may be incomplete", dep)
			}
		}
	}

	return results, nil
}

// orderedResults returns the collected results in input tool order,
// skipping tools that never ran.
func orderedResults(tools []Tool, byName map[string]*model.ToolResult) []*model.ToolResult {
	out := make([]*model.ToolResult, 0, len(byName))
	for _, tool := range tools {
		if res, ok := byName[tool.Name()]; ok {
			out = append(out, res)
		}
	}
	return out
}
