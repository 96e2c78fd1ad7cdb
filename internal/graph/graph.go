// Package graph provides cycle detection over identifier-keyed dependency
// graphs ahead of container registration. A cyclic graph can never resolve,
// so failing early with the cycle path beats a hung or failed resolution.
package graph

import (
	"fmt"
	"strings"
)

// Children reports the direct child identifiers of a node. Unknown
// identifiers return nil.
type Children func(identifier any) []any

// frame is one node on the iterative DFS stack.
type frame struct {
	id   any
	next int
}

// Detect walks the graph reachable from root and returns a
// *CircularDependencyError if any cycle is reachable. The walk is iterative
// so arbitrarily deep graphs do not grow the call stack.
func Detect(root any, children Children) error {
	visited := make(map[any]bool)
	onPath := make(map[any]bool)
	stack := []frame{{id: root}}
	onPath[root] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := children(top.id)

		if top.next >= len(kids) {
			// Exhausted this node; backtrack.
			onPath[top.id] = false
			visited[top.id] = true
			stack = stack[:len(stack)-1]
			continue
		}

		child := kids[top.next]
		top.next++

		if onPath[child] {
			return &CircularDependencyError{
				Identifier: child,
				Path:       cyclePath(stack, child),
			}
		}
		if visited[child] {
			continue
		}

		onPath[child] = true
		stack = append(stack, frame{id: child})
	}

	return nil
}

// cyclePath slices the current DFS path from the repeated identifier down to
// the point of re-entry.
func cyclePath(stack []frame, repeat any) []any {
	start := 0
	for i, f := range stack {
		if f.id == repeat {
			start = i
			break
		}
	}

	path := make([]any, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.id)
	}
	return append(path, repeat)
}

// CircularDependencyError reports a dependency cycle, including the path
// that closes it.
type CircularDependencyError struct {
	Identifier any
	Path       []any
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("circular dependency detected involving %v", e.Identifier)
	}

	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%v", id)
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(parts, " -> "))
}
