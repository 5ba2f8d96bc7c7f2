package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes lists directories that never hold corpus documents.
// Matching subtrees are skipped in their entirety during traversal.
var DefaultExcludes = []string{
	".git",
	".sensorkb",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"dist",
	"build",
	".idea",
	".vscode",
	".DS_Store",
}

func shouldExcludeDir(name string) bool {
	for _, skip := range DefaultExcludes {
		if strings.EqualFold(name, skip) {
			return true
		}
	}
	return false
}

// MatchesInclude reports whether relPath matches one of the include
// patterns. An empty pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	return len(patterns) == 0 || matchAny(relPath, patterns)
}

// MatchesExclude reports whether relPath matches one of the exclude
// patterns. An empty pattern list excludes nothing.
func MatchesExclude(relPath string, patterns []string) bool {
	return len(patterns) > 0 && matchAny(relPath, patterns)
}

// matchAny matches relPath against glob patterns with ** support. A
// pattern may target the full relative path or just the file name.
func matchAny(relPath string, patterns []string) bool {
	rel := filepath.ToSlash(relPath)
	base := filepath.Base(rel)
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if ok, err := doublestar.PathMatch(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.PathMatch(p, base); err == nil && ok {
			return true
		}
	}
	return false
}
