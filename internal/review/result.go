package review

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/templates"
)

// ErrMalformedFinding means an accepted finding lacks its title, status or
// level table.
var ErrMalformedFinding = errors.New("malformed finding")

// DefaultCodePrefix prefixes the codes of findings in the result.
const DefaultCodePrefix = "KS"

// Finding files live two levels below the notes root; the result lives at it.
const (
	findingFigures = "../../figures/"
	resultFigures  = "./figures/"
)

var (
	figurePattern = regexp.MustCompile(`\./figures/([^"')\s]+)`)
	riskLevels    = map[string]string{"high": "High", "medium": "Medium", "low": "Low"}
)

// Result is the gathered content of every accepted finding.
type Result struct {
	Path     string
	Findings []templates.ResultFinding
	// Figures are the figure files referenced by the findings that exist.
	Figures []string
	// Missing are referenced figure files that do not exist.
	Missing []string
}

// Result renders every accepted finding, in file order, into the findings
// result file at the notes root and returns what it wrote.
func (r *Reviewer) Result() (Result, error) {
	dir := r.layout.Findings(layout.Accepted)
	names, err := layout.MarkdownFiles(dir)
	if err != nil {
		return Result{}, err
	}

	res := Result{Path: r.layout.ResultFile()}
	seen := make(map[string]struct{})
	for i, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n+".md"))
		if err != nil {
			return Result{}, fmt.Errorf("reading %s.md: %w", n, err)
		}
		f, err := parseFinding(string(data), fmt.Sprintf("%s-%02d", r.codePrefix, i+1))
		if err != nil {
			return Result{}, fmt.Errorf("%s.md: %w", n, err)
		}
		res.Findings = append(res.Findings, f)

		for _, m := range figurePattern.FindAllStringSubmatch(f.Content, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			p := filepath.Join(r.layout.Figures(), filepath.FromSlash(m[1]))
			if exists(p) {
				res.Figures = append(res.Figures, p)
				continue
			}
			r.logger.Warn("finding references a missing figure", zap.String("finding", n), zap.String("figure", m[1]))
			res.Missing = append(res.Missing, p)
		}
	}

	content, err := templates.RenderResult(res.Findings)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(r.layout.Root, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", r.layout.Root, err)
	}
	if err := os.WriteFile(res.Path, []byte(content), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", filepath.Base(res.Path), err)
	}
	r.logger.Info("findings result written",
		zap.String("path", res.Path),
		zap.Int("findings", len(res.Findings)),
		zap.Int("figures", len(res.Figures)),
	)
	return res, nil
}

// parseFinding reads the title, severity, status and level table of a
// finding file and rewrites its header with code.
func parseFinding(content, code string) (templates.ResultFinding, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	header, body, _ := strings.Cut(content, "\n")
	title, ok := strings.CutPrefix(strings.TrimSpace(header), "## ")
	if !ok || strings.TrimSpace(title) == "" {
		return templates.ResultFinding{}, fmt.Errorf("%w: first line must be a \"## \" title", ErrMalformedFinding)
	}

	f := templates.ResultFinding{Code: code, Title: strings.TrimSpace(title)}

	lines := strings.Split(body, "\n")
	statusLine := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(t, "**Severity:**"); ok && f.Severity == "" {
			f.Severity = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(t, "**Status:**"); ok && statusLine < 0 {
			f.Status = strings.TrimSpace(v)
			statusLine = i
		}
	}

	severity := strings.ToLower(f.Severity)
	if _, ok := severityPrefix[severity]; !ok {
		return templates.ResultFinding{}, fmt.Errorf("%w %q", ErrUnknownSeverity, f.Severity)
	}
	f.Severity = templates.SentenceCase(severity)
	if statusLine < 0 || f.Status == "" {
		return templates.ResultFinding{}, fmt.Errorf("%w: no status", ErrMalformedFinding)
	}

	if severity != "informational" {
		levels, ok := levelRow(lines[statusLine+1:])
		if !ok {
			return templates.ResultFinding{}, fmt.Errorf("%w: no impact, likelihood and difficulty row", ErrMalformedFinding)
		}
		f.Impact, f.Likelihood, f.Difficulty = levels[0], levels[1], levels[2]
	}

	coded := fmt.Sprintf("## %s: %s", code, f.Title)
	f.Content = strings.TrimRight(coded+"\n"+strings.ReplaceAll(body, findingFigures, resultFigures), "\n")
	return f, nil
}

// levelRow returns the first table row, before the description, whose three
// cells are all risk levels.
func levelRow(lines []string) ([3]string, bool) {
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "###") {
			break
		}
		if !strings.HasPrefix(t, "|") {
			continue
		}
		var cells []string
		for _, c := range strings.Split(strings.Trim(t, "|"), "|") {
			cells = append(cells, strings.TrimSpace(c))
		}
		if len(cells) != 3 {
			continue
		}
		var out [3]string
		matched := true
		for i, c := range cells {
			level, ok := riskLevels[strings.ToLower(c)]
			if !ok {
				matched = false
				break
			}
			out[i] = level
		}
		if matched {
			return out, true
		}
	}
	return [3]string{}, false
}
