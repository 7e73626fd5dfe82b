package sonar

import (
	"errors"
	"strings"
)

var (
	// ErrUnbalancedDeclaration means an opening line has no closing line before EOF.
	ErrUnbalancedDeclaration = errors.New("unbalanced declaration")
	// ErrMalformedSignature means the opening line lacks a name token.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrRegionMarkerNotFound means no line contains the region marker.
	ErrRegionMarkerNotFound = errors.New("region marker not found")
)

// Result is one matched declaration.
type Result struct {
	Name        string
	Content     string
	Indentation int
	Kind        Kind
	StartLine   int // zero-based, inclusive
	EndLine     int // zero-based, inclusive
	IsPublic    bool
}

// FirstLine returns the opening line of the declaration.
func (r Result) FirstLine() string {
	first, _, _ := strings.Cut(r.Content, "\n")
	return first
}

// SplitLines splits content the way a line reader would: a trailing newline
// does not produce an empty final line and a trailing \r is dropped. Line
// indices into its result match Result.StartLine and Result.EndLine.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Slice returns lines [start..=end] of content joined with newlines.
func Slice(content string, start, end int) string {
	lines := SplitLines(content)
	if start < 0 || end >= len(lines) || start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}
