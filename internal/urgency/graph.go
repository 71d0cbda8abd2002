package urgency

import "github.com/137-reciprocal/TaskGeek-sub001/internal/model"

// Graph records which tasks block, or are blocked by, open tasks. Only
// pending and waiting tasks take part: a dependency on a completed task no
// longer blocks.
type Graph struct {
	blocking map[string]bool
	blocked  map[string]bool
}

// NewGraph derives the blocking relations of a task collection.
func NewGraph(tasks []model.Task) Graph {
	open := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.IsPending() {
			open[t.UUID] = true
		}
	}

	g := Graph{
		blocking: make(map[string]bool),
		blocked:  make(map[string]bool),
	}
	for _, t := range tasks {
		if !t.IsPending() {
			continue
		}
		for _, dep := range t.Depends {
			if open[dep] {
				g.blocked[t.UUID] = true
				g.blocking[dep] = true
			}
		}
	}
	return g
}

// Blocked reports whether the task depends on an open task.
func (g Graph) Blocked(uuid string) bool {
	return g.blocked[uuid]
}

// Blocking reports whether an open task depends on this task.
func (g Graph) Blocking(uuid string) bool {
	return g.blocking[uuid]
}
