package review

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/templates"
)

// Severity prefixes order prepared findings from most to least severe.
var severityPrefix = map[string]string{
	"high":          "1",
	"medium":        "2",
	"low":           "3",
	"informational": "4",
}

// stripSeverity removes a "N-" severity prefix from a finding file name.
func stripSeverity(file string) string {
	if len(file) > 2 && file[1] == '-' && strings.Contains("1234", file[:1]) {
		return file[2:]
	}
	return file
}

// CreateFinding writes a new finding file to findings/to-review and returns
// its path.
func (r *Reviewer) CreateFinding(name string, informational bool) (string, error) {
	file, err := fileName(name)
	if err != nil {
		return "", err
	}
	for _, stage := range layout.FindingStages {
		if existing, ok := r.findFinding(stage, file); ok {
			return "", fmt.Errorf("%w: %s", ErrFindingExists, existing)
		}
	}

	content, err := templates.RenderFinding(templates.NewFinding(strings.TrimSuffix(file, ".md")), informational)
	if err != nil {
		return "", err
	}

	dir := r.layout.Findings(layout.ToReview)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", file, err)
	}
	r.logger.Info("finding created", zap.String("path", path), zap.Bool("informational", informational))
	return path, nil
}

// findFinding looks up file in stage with or without a severity prefix.
func (r *Reviewer) findFinding(stage layout.Stage, file string) (string, bool) {
	names, err := layout.MarkdownFiles(r.layout.Findings(stage))
	if err != nil {
		return "", false
	}
	for _, n := range names {
		if stripSeverity(n+".md") == stripSeverity(file) {
			return filepath.Join(r.layout.Findings(stage), n+".md"), true
		}
	}
	return "", false
}

// PrepareFindings prefixes every to-review finding with its severity so the
// files sort by severity. Files without a severity line are left unchanged.
func (r *Reviewer) PrepareFindings() ([]Move, error) {
	dir := r.layout.Findings(layout.ToReview)
	names, err := layout.MarkdownFiles(dir)
	if err != nil {
		return nil, err
	}

	var moves []Move
	for _, n := range names {
		from := filepath.Join(dir, n+".md")
		severity, found, err := readSeverity(from)
		if err != nil {
			return moves, err
		}
		if !found {
			r.logger.Warn("finding has no severity", zap.String("path", from))
			continue
		}
		prefix, ok := severityPrefix[severity]
		if !ok {
			return moves, fmt.Errorf("%w %q in %s", ErrUnknownSeverity, severity, filepath.Base(from))
		}
		to := filepath.Join(dir, prefix+"-"+stripSeverity(n+".md"))
		if to == from {
			continue
		}
		m, err := r.move(from, to)
		if err != nil {
			return moves, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// readSeverity returns the lower-cased value of the "**Severity:**" line.
func readSeverity(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "Severity:") {
			continue
		}
		v := strings.ReplaceAll(line, "**Severity:**", "")
		v = strings.ReplaceAll(v, "Severity:", "")
		return strings.ToLower(strings.Join(strings.Fields(v), "")), true, nil
	}
	if err := sc.Err(); err != nil {
		return "", false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return "", false, nil
}

// AcceptAll moves every to-review finding to accepted.
func (r *Reviewer) AcceptAll() ([]Move, error) {
	return r.moveAll(r.layout.Findings(layout.ToReview), r.layout.Findings(layout.Accepted))
}

// RejectFinding moves one to-review finding to rejected. name may omit the
// severity prefix.
func (r *Reviewer) RejectFinding(name string) (Move, error) {
	file, err := fileName(name)
	if err != nil {
		return Move{}, err
	}
	from, ok := r.findFinding(layout.ToReview, file)
	if !ok {
		return Move{}, fmt.Errorf("%w: %s", ErrFindingNotFound, file)
	}
	return r.move(from, filepath.Join(r.layout.Findings(layout.Rejected), filepath.Base(from)))
}

func (r *Reviewer) moveAll(fromDir, toDir string) ([]Move, error) {
	names, err := layout.MarkdownFiles(fromDir)
	if err != nil {
		return nil, err
	}
	var moves []Move
	for _, n := range names {
		m, err := r.move(filepath.Join(fromDir, n+".md"), filepath.Join(toDir, n+".md"))
		if err != nil {
			return moves, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}
