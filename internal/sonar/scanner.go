package sonar

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Decision confirms a candidate once its boundaries are known. Returning
// false drops the candidate; returning an error aborts the scan.
type Decision func(candidate Result) (bool, error)

// Option configures a Scanner.
type Option func(*Scanner)

// WithDecision installs a confirmation step for every candidate.
func WithDecision(d Decision) Option {
	return func(s *Scanner) {
		s.decide = d
	}
}

// WithSkipMalformed makes ErrMalformedSignature recoverable: the offending
// candidate is skipped and reported to fn instead of aborting the scan.
func WithSkipMalformed(fn func(line int, err error)) Option {
	return func(s *Scanner) {
		s.onMalformed = fn
		if s.onMalformed == nil {
			s.onMalformed = func(int, error) {}
		}
	}
}

// Scanner runs scans with a fixed set of options. A Scanner holds no state
// between calls and may be shared.
type Scanner struct {
	decide      Decision
	onMalformed func(line int, err error)
}

// New returns a Scanner configured by opts.
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScanner = New()

// Scan returns every declaration of kind k in content, sorted by name.
func Scan(content string, k Kind) ([]Result, error) {
	return defaultScanner.Scan(content, k)
}

// ScanRegion scans only the region of content opened by the first line
// containing marker. Result lines are relative to the region.
func ScanRegion(content, marker string, k Kind) ([]Result, error) {
	return defaultScanner.ScanRegion(content, marker, k)
}

// Scan returns every declaration of kind k in content, sorted by name.
// Any unbalanced declaration fails the whole scan.
func (s *Scanner) Scan(content string, k Kind) ([]Result, error) {
	spec, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("scanning: unknown kind %d", int(k))
	}

	lines := SplitLines(content)
	var results []Result

	for i, line := range lines {
		if !isOpening(line, spec.filter) {
			continue
		}

		width := leadingWhitespace(line)
		end, err := closingLine(lines, i, width, line, spec)
		if err != nil {
			return nil, err
		}

		res := Result{
			Name:        NoName,
			Content:     strings.Join(lines[i:end+1], "\n"),
			Indentation: width,
			Kind:        k,
			StartLine:   i,
			EndLine:     end,
		}

		if spec.named {
			name, public, err := nameAndVisibility(line)
			if err != nil {
				err = fmt.Errorf("%w at line %d: %q", err, i, strings.TrimSpace(line))
				if s.onMalformed == nil {
					return nil, err
				}
				s.onMalformed(i, err)
				continue
			}
			res.Name = name
			res.IsPublic = public
		}

		if s.decide != nil {
			accept, err := s.decide(res)
			if err != nil {
				return nil, fmt.Errorf("confirming %s at line %d: %w", k, i, err)
			}
			if !accept {
				continue
			}
		}

		results = append(results, res)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Name < results[b].Name
	})
	return results, nil
}

// ScanRegion scans the region of content opened by the first line
// containing marker and closed by the kind's close filter.
func (s *Scanner) ScanRegion(content, marker string, k Kind) ([]Result, error) {
	region, err := FindRegion(content, marker, k)
	if err != nil {
		return nil, err
	}
	return s.Scan(region.Content, k)
}

// isOpening reports whether line opens a declaration described by f.
func isOpening(line string, f Filter) bool {
	if !containsAny(line, f.Open) || !containsAny(line, f.Confirm) {
		return false
	}
	trimmed := strings.TrimSpace(line)
	for _, tok := range f.Open {
		if strings.HasPrefix(trimmed, tok) {
			return true
		}
	}
	return false
}

// closingLine finds the index of the line that closes the declaration
// opened at start with the given indentation width.
func closingLine(lines []string, start, width int, opening string, spec kindSpec) (int, error) {
	if spec.singleLine && containsAny(opening, spec.filter.Close) {
		return start, nil
	}

	indent := strings.Repeat(" ", width)
	candidates := make([]string, len(spec.filter.Close))
	for i, c := range spec.filter.Close {
		candidates[i] = indent + c
	}

	for j := start + 1; j < len(lines); j++ {
		for _, c := range candidates {
			if spec.containsClose && strings.Contains(lines[j], c) {
				return j, nil
			}
			if !spec.containsClose && lines[j] == c {
				return j, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: opening at line %d has no closing line", ErrUnbalancedDeclaration, start)
}

// nameAndVisibility extracts the declared name from an opening line such as
// "pub fn create_game<'info>(ctx: ...) {".
func nameAndVisibility(line string) (string, bool, error) {
	tokens := strings.Fields(line)
	public := len(tokens) > 0 && tokens[0] == "pub"
	if public {
		tokens = tokens[1:]
	}
	// tokens[0] is the keyword.
	if len(tokens) < 2 {
		return "", false, ErrMalformedSignature
	}

	name := tokens[1]
	name, _, _ = strings.Cut(name, "<")
	name, _, _ = strings.Cut(name, "(")
	if name == "" {
		return "", false, ErrMalformedSignature
	}
	return name, public, nil
}

// leadingWhitespace counts the bytes of leading whitespace in line.
func leadingWhitespace(line string) int {
	n := 0
	for _, r := range line {
		if r == '\n' || !unicode.IsSpace(r) {
			break
		}
		n += utf8.RuneLen(r)
	}
	return n
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
