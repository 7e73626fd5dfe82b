// Package figure renders metadata source excerpts for audit report figures.
package figure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/sonar"
)

// Options controls how an excerpt is rendered.
type Options struct {
	IncludePath    bool     // prepend a "// path:start-end" header
	FilterComments bool     // drop comment lines and trailing comments
	Filters        []string // drop lines containing any of these
	LineNumbers    bool
	Offset         bool // number lines as in the source file instead of from 1
}

// DefaultOptions numbers lines from 1 and keeps everything else.
func DefaultOptions() Options {
	return Options{LineNumbers: true}
}

// Render extracts loc (1-based, inclusive) from the file content and formats
// it according to opts. It fails when loc is outside content.
func Render(content string, loc model.Location, opts Options) (string, error) {
	excerpt := sonar.Slice(content, loc.StartLine-1, loc.EndLine-1)
	if excerpt == "" && loc.EndLine >= loc.StartLine {
		return "", fmt.Errorf("%s %s: lines %d-%d out of range", loc.Path, loc.Name, loc.StartLine, loc.EndLine)
	}

	type numbered struct {
		n    int
		text string
	}
	var kept []numbered
	inBlock := false
	for i, line := range strings.Split(excerpt, "\n") {
		n := i + 1
		if opts.Offset {
			n = loc.StartLine + i
		}
		if opts.FilterComments {
			var drop bool
			line, inBlock, drop = stripComment(line, inBlock)
			if drop {
				continue
			}
		}
		if containsAny(line, opts.Filters) {
			continue
		}
		kept = append(kept, numbered{n, line})
	}

	var b strings.Builder
	if opts.IncludePath {
		fmt.Fprintf(&b, "// %s:%d-%d\n", loc.Path, loc.StartLine, loc.EndLine)
	}
	width := 0
	if len(kept) > 0 {
		width = len(strconv.Itoa(kept[len(kept)-1].n))
	}
	for _, k := range kept {
		if opts.LineNumbers {
			fmt.Fprintf(&b, "%*d  %s\n", width, k.n, k.text)
		} else {
			b.WriteString(k.text)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// stripComment removes // and /* */ comments from line. drop reports a line
// that held nothing but comments.
func stripComment(line string, inBlock bool) (out string, stillInBlock, drop bool) {
	var b strings.Builder
	hadComment := false
	rest := line
	for rest != "" {
		if inBlock {
			end := strings.Index(rest, "*/")
			hadComment = true
			if end < 0 {
				rest = ""
				break
			}
			rest = rest[end+2:]
			inBlock = false
			continue
		}
		lc := strings.Index(rest, "//")
		block := strings.Index(rest, "/*")
		switch {
		case lc >= 0 && (block < 0 || lc < block):
			b.WriteString(rest[:lc])
			hadComment = true
			rest = ""
		case block >= 0:
			b.WriteString(rest[:block])
			hadComment = true
			inBlock = true
			rest = rest[block+2:]
		default:
			b.WriteString(rest)
			rest = ""
		}
	}
	if inBlock && line == "" {
		return "", true, true
	}
	out = strings.TrimRight(b.String(), " \t")
	return out, inBlock, hadComment && strings.TrimSpace(out) == ""
}

func containsAny(line string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(line, s) {
			return true
		}
	}
	return false
}
