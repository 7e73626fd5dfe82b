package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestDiscoverRustFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "lib.rs", "pub mod state;")
	writeFile(t, dir, "state/game.rs", "pub struct Game {}")
	// Non-Rust file should be ignored
	writeFile(t, dir, "Cargo.toml", "[package]")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.rs", "fn secret() {}")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths(entries))
	}

	// Should be sorted
	if entries[0].Path != "lib.rs" {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "state/game.rs" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "lib.rs", "")
	writeFile(t, dir, "target/debug/build.rs", "")
	writeFile(t, dir, "node_modules/pkg/index.rs", "")
	writeFile(t, dir, ".anchor/program.rs", "")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(entries), paths(entries))
	}
	if entries[0].Path != "lib.rs" {
		t.Errorf("expected lib.rs, got %q", entries[0].Path)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "lib.rs", "")
	writeFile(t, dir, "generated/idl.rs", "")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "lib.rs" {
		t.Fatalf("expected only lib.rs, got %v", paths(entries))
	}
}

func TestDiscoverIgnorePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "lib.rs", "")
	writeFile(t, dir, "mock.rs", "")
	writeFile(t, dir, "instructions/mock.rs", "")
	writeFile(t, dir, "instructions/create.rs", "")

	entries, err := Files(dir, []string{"**/mock.rs"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	got := paths(entries)
	if len(got) != 2 || got[0] != "instructions/create.rs" || got[1] != "lib.rs" {
		t.Fatalf("got %v", got)
	}
}

func TestDiscoverInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := Files(t.TempDir(), []string{"[unclosed"}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.rs", "")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.rs"), filepath.Join(dir, "link.rs"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.rs" {
		t.Errorf("expected real.rs, got %q", entries[0].Path)
	}
}

func TestIsTestFile(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want bool
	}{
		{"tests/game.rs", true},
		{"instructions/tests/create.rs", true},
		{"tests.rs", true},
		{"state/game_test.rs", true},
		{"state/game_tests.rs", true},
		{"lib.rs", false},
		{"instructions/create.rs", false},
		{"testing.rs", false},
		{"contest/entry.rs", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			got := IsTestFile(tc.path)
			if got != tc.want {
				t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
