// Package walker discovers ingestible documents under a directory tree.
// It applies include/exclude globs, honours .gitignore, and screens out
// binary and oversized files before they reach the pipeline.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lab271/sensorkb/internal/kb"
)

// DefaultMaxFileSize caps ingested files at 4 MB.
const DefaultMaxFileSize int64 = 4 << 20

// DefaultIncludes select the document types the chunker understands.
var DefaultIncludes = []string{"**/*.md", "**/*.markdown", "**/*.txt"}

// FileInfo describes one discovered document.
type FileInfo struct {
	Path        string        // Absolute path on disk.
	RelPath     string        // Slash-separated path relative to the root.
	Size        int64         // File size in bytes.
	SourceType  kb.SourceType // text or markdown, by extension.
	ContentHash string        // SHA-256 hex digest of the content.
}

// WalkerConfig controls a traversal.
type WalkerConfig struct {
	RootDir     string
	Include     []string // Globs; empty means DefaultIncludes.
	Exclude     []string // Globs; matching files are dropped.
	MaxFileSize int64    // 0 means DefaultMaxFileSize.
}

// Walk returns metadata for every document under config.RootDir that
// survives filtering. Unreadable entries are skipped, not fatal.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	include := config.Include
	if len(include) == 0 {
		include = DefaultIncludes
	}
	ignored := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesGitignore(rel, ignored) ||
			!MatchesInclude(rel, include) ||
			MatchesExclude(rel, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		fi, err := describe(path, rel, info.Size())
		if err != nil {
			return nil
		}
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return files, nil
}

// describe reads a candidate file once: the leading bytes decide the
// binary screen, the full content feeds the hash.
func describe(path, rel string, size int64) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return FileInfo{}, err
	}
	for i := 0; i < n; i++ {
		if head[i] == 0 {
			return FileInfo{}, fmt.Errorf("walker: %s: binary content", rel)
		}
	}

	h := sha256.New()
	h.Write(head[:n])
	if _, err := io.Copy(h, f); err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:        path,
		RelPath:     filepath.ToSlash(rel),
		Size:        size,
		SourceType:  DetectSourceType(path),
		ContentHash: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// DetectSourceType maps a filename to the source type its contents are
// ingested as.
func DetectSourceType(name string) kb.SourceType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return kb.SourceMarkdown
	default:
		return kb.SourceText
	}
}

// loadGitignore returns the non-empty, non-comment lines of a
// .gitignore file. A missing file yields no patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore applies the common subset of gitignore semantics:
// bare names match any path component, slashed patterns match the whole
// relative path, a trailing slash restricts the pattern to directories.
func matchesGitignore(relPath string, patterns []string) bool {
	rel := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, rel); ok {
				return true
			}
			continue
		}
		if dirOnly {
			// A file path matches a directory pattern through its parents.
			for _, part := range strings.Split(filepath.Dir(rel), "/") {
				if ok, _ := filepath.Match(pattern, part); ok {
					return true
				}
			}
			continue
		}
		for _, part := range strings.Split(rel, "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
