// Package callgraph builds the function dependency graph of the program from
// the bodies of lexically scanned functions.
package callgraph

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

var callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*(?:::<[^()]*>)?\(`)

// Function is a named function body.
type Function struct {
	Name    string
	Content string
}

// Graph is a directed caller → callee graph over known function names.
type Graph struct {
	g graph.Graph[string, string]
}

// Build adds a vertex per distinct function name and an edge for every call
// from one known function to another. Self calls are ignored.
func Build(funcs []Function) (*Graph, error) {
	g := graph.New(graph.StringHash, graph.Directed())

	for _, f := range funcs {
		if err := g.AddVertex(f.Name); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("adding function %s: %w", f.Name, err)
		}
	}

	for _, f := range funcs {
		for _, callee := range Calls(f.Content) {
			if callee == f.Name {
				continue
			}
			if _, err := g.Vertex(callee); err != nil {
				continue // not a program function
			}
			if err := g.AddEdge(f.Name, callee); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding call %s -> %s: %w", f.Name, callee, err)
			}
		}
	}

	return &Graph{g: g}, nil
}

// Dependencies returns the functions called directly by name, sorted.
func (g *Graph) Dependencies(name string) []string {
	adj, err := g.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	return sortedKeys(adj[name])
}

// Callers returns the functions calling name directly, sorted.
func (g *Graph) Callers(name string) []string {
	pred, err := g.g.PredecessorMap()
	if err != nil {
		return nil
	}
	return sortedKeys(pred[name])
}

// Reachable returns every function transitively called from name, sorted.
func (g *Graph) Reachable(name string) []string {
	if _, err := g.g.Vertex(name); err != nil {
		return nil
	}
	var out []string
	_ = graph.DFS(g.g, name, func(v string) bool {
		if v != name {
			out = append(out, v)
		}
		return false
	})
	sort.Strings(out)
	return out
}

// Calls returns the identifiers called in a function body, in order of first
// appearance. The opening line and line comments are not searched.
func Calls(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	seen := make(map[string]struct{})
	var out []string
	for _, line := range lines {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		for _, m := range callPattern.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
