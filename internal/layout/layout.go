// Package layout resolves the on-disk structure of the audit notes.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phobologic/bat-cli/internal/model"
)

// Stage is a review folder a finding or code-overhaul file lives in.
type Stage string

const (
	ToReview Stage = "to-review"
	Accepted Stage = "accepted"
	Rejected Stage = "rejected"
	Started  Stage = "started"
	Finished Stage = "finished"
)

// FindingStages and CodeOverhaulStages list the stages in workflow order.
var (
	FindingStages      = []Stage{ToReview, Accepted, Rejected}
	CodeOverhaulStages = []Stage{ToReview, Started, Finished}
)

const (
	keepFile   = ".gitkeep"
	resultFile = "findings_result.md"
)

// Layout locates the notes tree rooted at Root:
//
//	findings/{to-review,accepted,rejected}
//	code-overhaul/{to-review,started,finished}
//	figures
//	metadata/{functions,structs,traits,entrypoints}.md
//	findings_result.md
type Layout struct {
	Root string
}

// New returns the layout of the notes directory at root.
func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Findings(s Stage) string {
	return filepath.Join(l.Root, "findings", string(s))
}

func (l Layout) CodeOverhaul(s Stage) string {
	return filepath.Join(l.Root, "code-overhaul", string(s))
}

func (l Layout) Figures() string {
	return filepath.Join(l.Root, "figures")
}

func (l Layout) Metadata() string {
	return filepath.Join(l.Root, "metadata")
}

// ResultFile is the gathered report of the accepted findings.
func (l Layout) ResultFile() string {
	return filepath.Join(l.Root, resultFile)
}

// MetadataFile is the store file for metadata type t.
func (l Layout) MetadataFile(t model.MetadataType) string {
	return filepath.Join(l.Metadata(), string(t)+".md")
}

// Dirs lists every directory of the layout.
func (l Layout) Dirs() []string {
	var dirs []string
	for _, s := range FindingStages {
		dirs = append(dirs, l.Findings(s))
	}
	for _, s := range CodeOverhaulStages {
		dirs = append(dirs, l.CodeOverhaul(s))
	}
	return append(dirs, l.Figures(), l.Metadata())
}

// Create makes every layout directory and drops a .gitkeep into the empty
// ones. It returns the directories it created.
func (l Layout) Create() ([]string, error) {
	var created []string
	for _, dir := range l.Dirs() {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, keepFile), nil, 0o644); err != nil {
			return created, fmt.Errorf("writing %s: %w", keepFile, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

// MarkdownFiles returns the base names (without .md) of the Markdown files
// in dir, sorted. A missing dir yields no names.
func MarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(".md")])
	}
	return names, nil
}
