package metadata

import (
	"fmt"
	"strings"

	"github.com/phobologic/bat-cli/internal/callgraph"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/sonar"
)

// CallGraph rebuilds the call graph of the stored functions from the current
// text of their source files. Each file is read once.
func CallGraph(md *model.Metadata, read func(path string) (string, error)) (*callgraph.Graph, error) {
	files := make(map[string][]string)
	in := make([]callgraph.Function, 0, len(md.Functions))
	for _, f := range md.Functions {
		lines, ok := files[f.Path]
		if !ok {
			content, err := read(f.Path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f.Path, err)
			}
			lines = sonar.SplitLines(content)
			files[f.Path] = lines
		}
		if f.StartLine < 1 || f.EndLine > len(lines) || f.StartLine > f.EndLine {
			return nil, fmt.Errorf("%s %s: lines %d-%d out of range", f.Path, f.Name, f.StartLine, f.EndLine)
		}
		in = append(in, callgraph.Function{Name: f.Name, Content: strings.Join(lines[f.StartLine-1:f.EndLine], "\n")})
	}

	g, err := callgraph.Build(in)
	if err != nil {
		return nil, fmt.Errorf("building call graph: %w", err)
	}
	return g, nil
}
