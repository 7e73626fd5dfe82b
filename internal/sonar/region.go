package sonar

import (
	"fmt"
	"strings"
)

// Region is a marker-bounded slice of a file.
type Region struct {
	Start   int // zero-based line of the marker
	End     int // zero-based closing line, inclusive
	Content string
}

// FindRegion locates the first line containing marker and the line that
// closes it under k's close filter. The marker line never closes itself.
func FindRegion(content, marker string, k Kind) (Region, error) {
	spec, ok := kinds[k]
	if !ok {
		return Region{}, fmt.Errorf("finding region: unknown kind %d", int(k))
	}

	lines := SplitLines(content)
	start := -1
	for i, l := range lines {
		if strings.Contains(l, marker) {
			start = i
			break
		}
	}
	if start < 0 {
		return Region{}, fmt.Errorf("%w: %q", ErrRegionMarkerNotFound, marker)
	}

	end, err := closingLine(lines, start, leadingWhitespace(lines[start]), "", spec)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: %w", marker, err)
	}

	return Region{
		Start:   start,
		End:     end,
		Content: strings.Join(lines[start:end+1], "\n"),
	}, nil
}

// Offset translates region-relative results into file line numbers.
func (r Region) Offset(results []Result) []Result {
	out := make([]Result, len(results))
	for i, res := range results {
		res.StartLine += r.Start
		res.EndLine += r.Start
		out[i] = res
	}
	return out
}
