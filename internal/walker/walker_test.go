package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lab271/sensorkb/internal/kb"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func relPaths(files []FileInfo) map[string]FileInfo {
	m := make(map[string]FileInfo, len(files))
	for _, f := range files {
		m[f.RelPath] = f
	}
	return m
}

func TestWalk_DefaultIncludes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "manual.md", "# Pump manual")
	writeFile(t, tmpDir, "notes.txt", "coolant notes")
	writeFile(t, tmpDir, "runbooks/restart.markdown", "## Restart procedure")
	writeFile(t, tmpDir, "config.yaml", "port: 8270")
	writeFile(t, tmpDir, "main.go", "package main")

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	for _, want := range []string{"manual.md", "notes.txt", "runbooks/restart.markdown"} {
		if _, ok := got[want]; !ok {
			t.Errorf("expected %q in walk results", want)
		}
	}
	for _, skip := range []string{"config.yaml", "main.go"} {
		if _, ok := got[skip]; ok {
			t.Errorf("%q should not match the default includes", skip)
		}
	}
}

func TestWalk_FileInfoFields(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "manual.md", "# Pump manual\n\nContent.")

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	f := files[0]
	if f.Path == "" || f.RelPath != "manual.md" {
		t.Errorf("unexpected paths: %+v", f)
	}
	if f.Size <= 0 {
		t.Errorf("Size = %d, want > 0", f.Size)
	}
	if f.SourceType != kb.SourceMarkdown {
		t.Errorf("SourceType = %q, want markdown", f.SourceType)
	}
	if len(f.ContentHash) != 64 {
		t.Errorf("ContentHash length = %d, want 64", len(f.ContentHash))
	}
}

func TestWalk_ExcludeFilter(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "keep.md", "keep")
	writeFile(t, tmpDir, "drafts/wip.md", "draft")

	files, err := Walk(WalkerConfig{
		RootDir: tmpDir,
		Exclude: []string{"drafts/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	if _, ok := got["drafts/wip.md"]; ok {
		t.Error("drafts/wip.md should have been excluded")
	}
	if _, ok := got["keep.md"]; !ok {
		t.Error("keep.md should have been kept")
	}
}

func TestWalk_SkipsBinaryFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "readme.md", "# Hello")

	binary := make([]byte, 100)
	binary[50] = 0x00
	if err := os.WriteFile(filepath.Join(tmpDir, "scan.txt"), binary, 0644); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "readme.md" {
		t.Errorf("expected only readme.md, got %+v", files)
	}
}

func TestWalk_SkipsLargeFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "small.txt", "small")

	big := make([]byte, 200)
	for i := range big {
		big[i] = 'A'
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "big.txt"), big, 0644); err != nil {
		t.Fatalf("write big: %v", err)
	}

	files, err := Walk(WalkerConfig{
		RootDir:     tmpDir,
		MaxFileSize: 100,
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	if _, ok := got["big.txt"]; ok {
		t.Error("big.txt should have been skipped (exceeds MaxFileSize)")
	}
	if _, ok := got["small.txt"]; !ok {
		t.Error("small.txt should have been kept")
	}
}

func TestWalk_DefaultExcludeDirs(t *testing.T) {
	tmpDir := t.TempDir()

	for _, dir := range []string{"node_modules", ".git", ".sensorkb"} {
		writeFile(t, tmpDir, filepath.Join(dir, "file.md"), "content")
	}
	writeFile(t, tmpDir, "doc.md", "content")

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "doc.md" {
		t.Errorf("expected only doc.md, got %+v", files)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, ".gitignore", "*.log\nsecret.txt\n")
	writeFile(t, tmpDir, "doc.md", "content")
	writeFile(t, tmpDir, "debug.log", "log data")
	writeFile(t, tmpDir, "secret.txt", "password")

	files, err := Walk(WalkerConfig{
		RootDir: tmpDir,
		Include: []string{"**/*"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	for _, excluded := range []string{"debug.log", "secret.txt"} {
		if _, ok := got[excluded]; ok {
			t.Errorf("%q should be excluded by .gitignore", excluded)
		}
	}
	if _, ok := got["doc.md"]; !ok {
		t.Error("doc.md should not be excluded")
	}
}

func TestDetectSourceType(t *testing.T) {
	tests := []struct {
		filename string
		want     kb.SourceType
	}{
		{"manual.md", kb.SourceMarkdown},
		{"manual.MD", kb.SourceMarkdown},
		{"restart.markdown", kb.SourceMarkdown},
		{"notes.txt", kb.SourceText},
		{"noextension", kb.SourceText},
	}

	for _, tc := range tests {
		if got := DetectSourceType(tc.filename); got != tc.want {
			t.Errorf("DetectSourceType(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestMatchesInclude(t *testing.T) {
	if !MatchesInclude("anything.md", nil) {
		t.Error("empty include patterns should include everything")
	}
	if !MatchesInclude("runbooks/restart.md", []string{"**/*.md"}) {
		t.Error("**/*.md should match runbooks/restart.md")
	}
	if MatchesInclude("main.go", []string{"**/*.md"}) {
		t.Error("**/*.md should not match main.go")
	}
}

func TestMatchesExclude(t *testing.T) {
	if MatchesExclude("anything.md", nil) {
		t.Error("empty exclude patterns should exclude nothing")
	}
	if !MatchesExclude("debug.log", []string{"*.log"}) {
		t.Error("*.log should match debug.log")
	}
}
