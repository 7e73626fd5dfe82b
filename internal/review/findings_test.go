package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/bat-cli/internal/layout"
)

func newTestReviewer(t *testing.T) (*Reviewer, layout.Layout) {
	t.Helper()
	l := layout.New(t.TempDir())
	_, err := l.Create()
	require.NoError(t, err)
	return New(l), l
}

func setSeverity(t *testing.T, path, severity string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := strings.Replace(string(data), "**Severity:** High", "**Severity:** "+severity, 1)
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
}

func TestCreateFinding(t *testing.T) {
	t.Parallel()
	r, l := newTestReviewer(t)

	path, err := r.CreateFinding("missing_owner_check", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Findings(layout.ToReview), "missing_owner_check.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Missing owner check")
	assert.Contains(t, string(data), "**Severity:** High")
}

func TestCreateFinding_Informational(t *testing.T) {
	t.Parallel()
	r, _ := newTestReviewer(t)

	path, err := r.CreateFinding("unused-account.md", true)
	require.NoError(t, err)
	assert.Equal(t, "unused-account.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Severity:** Informational")
}

func TestCreateFinding_Exists(t *testing.T) {
	t.Parallel()
	r, _ := newTestReviewer(t)

	_, err := r.CreateFinding("overflow", false)
	require.NoError(t, err)
	_, err = r.CreateFinding("overflow", false)
	assert.ErrorIs(t, err, ErrFindingExists)

	_, err = r.PrepareFindings()
	require.NoError(t, err)
	_, err = r.CreateFinding("overflow", true)
	assert.ErrorIs(t, err, ErrFindingExists, "prefixed file still counts")

	_, err = r.AcceptAll()
	require.NoError(t, err)
	_, err = r.CreateFinding("overflow", false)
	assert.ErrorIs(t, err, ErrFindingExists, "accepted file still counts")
}

func TestCreateFinding_InvalidName(t *testing.T) {
	t.Parallel()
	r, _ := newTestReviewer(t)

	for _, name := range []string{"", "  ", "a/b", "..", ".md"} {
		_, err := r.CreateFinding(name, false)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestPrepareFindings(t *testing.T) {
	t.Parallel()
	r, l := newTestReviewer(t)
	dir := l.Findings(layout.ToReview)

	_, err := r.CreateFinding("high_one", false)
	require.NoError(t, err)
	medium, err := r.CreateFinding("medium_one", false)
	require.NoError(t, err)
	setSeverity(t, medium, "Medium")
	low, err := r.CreateFinding("low_one", false)
	require.NoError(t, err)
	setSeverity(t, low, "low")
	_, err = r.CreateFinding("info_one", true)
	require.NoError(t, err)

	moves, err := r.PrepareFindings()
	require.NoError(t, err)
	assert.Len(t, moves, 4)

	names, err := layout.MarkdownFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1-high_one", "2-medium_one", "3-low_one", "4-info_one"}, names)

	// A changed severity replaces the old prefix.
	setSeverity(t, filepath.Join(dir, "1-high_one.md"), "Low")
	moves, err = r.PrepareFindings()
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, filepath.Join(dir, "1-high_one.md"), moves[0].From)
	assert.Equal(t, filepath.Join(dir, "3-high_one.md"), moves[0].To)
}

func TestPrepareFindings_UnknownSeverity(t *testing.T) {
	t.Parallel()
	r, _ := newTestReviewer(t)

	path, err := r.CreateFinding("odd", false)
	require.NoError(t, err)
	setSeverity(t, path, "Critical")

	_, err = r.PrepareFindings()
	assert.ErrorIs(t, err, ErrUnknownSeverity)
	assert.ErrorContains(t, err, "critical")
}

func TestPrepareFindings_NoSeverityLine(t *testing.T) {
	t.Parallel()
	r, l := newTestReviewer(t)
	path := filepath.Join(l.Findings(layout.ToReview), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("## Draft\n"), 0o644))

	moves, err := r.PrepareFindings()
	require.NoError(t, err)
	assert.Empty(t, moves)
	assert.FileExists(t, path)
}

func TestAcceptAll(t *testing.T) {
	t.Parallel()
	r, l := newTestReviewer(t)

	for _, n := range []string{"a", "b"} {
		_, err := r.CreateFinding(n, false)
		require.NoError(t, err)
	}
	moves, err := r.AcceptAll()
	require.NoError(t, err)
	assert.Len(t, moves, 2)

	pending, err := layout.MarkdownFiles(l.Findings(layout.ToReview))
	require.NoError(t, err)
	assert.Empty(t, pending)
	accepted, err := layout.MarkdownFiles(l.Findings(layout.Accepted))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, accepted)
	assert.FileExists(t, filepath.Join(l.Findings(layout.ToReview), ".gitkeep"))
}

func TestRejectFinding(t *testing.T) {
	t.Parallel()
	r, l := newTestReviewer(t)

	_, err := r.CreateFinding("false_positive", false)
	require.NoError(t, err)
	_, err = r.PrepareFindings()
	require.NoError(t, err)

	m, err := r.RejectFinding("false_positive")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Findings(layout.Rejected), "1-false_positive.md"), m.To)
	assert.NoFileExists(t, m.From)
	assert.FileExists(t, m.To)

	_, err = r.RejectFinding("false_positive")
	assert.ErrorIs(t, err, ErrFindingNotFound)
}

func TestStripSeverity(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"1-a.md":   "a.md",
		"4-b.md":   "b.md",
		"5-c.md":   "5-c.md",
		"plain.md": "plain.md",
		"1-":       "1-",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripSeverity(in), in)
	}
}
