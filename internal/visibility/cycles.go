// internal/visibility/cycles.go
package visibility

import "sort"

/*
 * Cycle diagnostics for the dependency graph.
 *
 * Evaluation only ever walks one level of a policy's conditions, so a cycle
 * (A shown if B, B shown if A) cannot loop; it can only make both fields
 * flicker in an interactive form. Cycles are therefore reported, not
 * rejected. Anything that starts traversing the graph transitively must
 * use the visited-set walk below rather than plain recursion.
 *
 * Output is deterministic: nodes are visited in sorted order and each
 * cycle is rotated to start at its smallest code.
 */

// FindCycles returns the dependency cycles closed by back edges of a
// depth-first walk, self-references included. Every group of mutually
// dependent fields yields at least one cycle. Edges point from a field to
// the fields its policy depends on; dependencies that are not fields are
// ignored.
func FindCycles[F Field](fields []F) [][]string {
	edges := make(map[string][]string, len(fields))
	for _, f := range fields {
		code := f.FieldCode()
		edges[code] = f.VisibilityPolicy().Dependencies().Sorted()
	}

	nodes := make([]string, 0, len(edges))
	for code := range edges {
		nodes = append(nodes, code)
	}
	sort.Strings(nodes)

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(nodes))
	seen := make(map[string]bool)
	var cycles [][]string
	var stack []string

	var visit func(code string)
	visit = func(code string) {
		state[code] = onStack
		stack = append(stack, code)
		for _, dep := range edges[code] {
			if _, isField := edges[dep]; !isField {
				continue
			}
			switch state[dep] {
			case unvisited:
				visit(dep)
			case onStack:
				start := len(stack) - 1
				for stack[start] != dep {
					start--
				}
				cycle := canonicalCycle(stack[start:])
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[code] = done
	}

	for _, code := range nodes {
		if state[code] == unvisited {
			visit(code)
		}
	}
	return cycles
}

// canonicalCycle copies the cycle rotated to begin at its smallest code.
func canonicalCycle(path []string) []string {
	minIdx := 0
	for i, c := range path {
		if c < path[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[minIdx:]...)
	out = append(out, path[:minIdx]...)
	return out
}

func cycleKey(cycle []string) string {
	key := ""
	for _, c := range cycle {
		key += c + "\x00"
	}
	return key
}
