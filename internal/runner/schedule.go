package runner

import (
	"fmt"
	"sort"
)

// groupByDependency partitions tools into topological levels: a tool's
// level is one greater than the highest level among its dependencies that
// are present in the selection. Tools at the same level form one group and
// may run in parallel.
//
// Dependencies naming tools outside the selection are ignored; quick mode
// regularly drops a dependency's tier and the dependent tool must still run.
func groupByDependency(tools []Tool) ([][]Tool, error) {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if _, dup := byName[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		byName[t.Name()] = t
	}

	levels := make(map[string]int, len(tools))

	var resolve func(name string, visiting map[string]bool) (int, error)
	resolve = func(name string, visiting map[string]bool) (int, error) {
		if lvl, ok := levels[name]; ok {
			return lvl, nil
		}
		if visiting[name] {
			return 0, fmt.Errorf("dependency cycle involving tool %q", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		level := 0
		for _, dep := range byName[name].Dependencies() {
			if _, selected := byName[dep]; !selected {
				continue
			}
			depLevel, err := resolve(dep, visiting)
			if err != nil {
				return 0, err
			}
			if depLevel+1 > level {
				level = depLevel + 1
			}
		}
		levels[name] = level
		return level, nil
	}

	maxLevel := 0
	for _, t := range tools {
		lvl, err := resolve(t.Name(), make(map[string]bool))
		if err != nil {
			return nil, err
		}
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	groups := make([][]Tool, maxLevel+1)
	for _, t := range tools {
		lvl := levels[t.Name()]
		groups[lvl] = append(groups[lvl], t)
	}

	// Stable order inside each group keeps logs and reports deterministic.
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Name() < group[j].Name()
		})
	}

	return groups, nil
}
