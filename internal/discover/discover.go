// Package discover finds the Rust sources of the audited program.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/bat-cli/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path string // Relative to the program root, slash separated
}

var skipDirs = map[string]struct{}{
	"target":       {},
	"node_modules": {},
	"test-ledger":  {},
	".anchor":      {},
	".git":         {},
	".hg":          {},
	".svn":         {},
}

type pattern struct {
	source string
	glob   glob.Glob
}

// Files discovers Rust source files under root. Files matching one of the
// ignore globs (slash separated, relative to root) are left out.
func Files(root string, ignorePatterns []string) ([]FileEntry, error) {
	patterns, err := compile(ignorePatterns)
	if err != nil {
		return nil, err
	}

	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if !lang.Rust.HasExtension(name) || matchesAny(rel, patterns) {
			return nil
		}

		results = append(results, FileEntry{Path: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// IsTestFile reports whether a program-relative path holds Rust tests.
func IsTestFile(rel string) bool {
	rel = filepath.ToSlash(rel)
	dir, file := path.Split(rel)
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "tests" {
			return true
		}
	}
	return file == "tests.rs" || strings.HasSuffix(file, "_test.rs") || strings.HasSuffix(file, "_tests.rs")
}

func compile(sources []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(sources))
	for _, s := range sources {
		g, err := glob.Compile(s, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", s, err)
		}
		patterns = append(patterns, pattern{source: s, glob: g})
	}
	return patterns, nil
}

// matchesAny also lets "**/x" patterns match files at the root.
func matchesAny(rel string, patterns []pattern) bool {
	for _, p := range patterns {
		if p.glob.Match(rel) {
			return true
		}
		if !strings.Contains(rel, "/") && strings.HasPrefix(p.source, "**/") {
			if g, err := glob.Compile(strings.TrimPrefix(p.source, "**/"), '/'); err == nil && g.Match(rel) {
				return true
			}
		}
	}
	return false
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
