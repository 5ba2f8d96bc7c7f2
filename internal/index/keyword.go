package index

import (
	"strings"
	"time"

	"github.com/lab271/sensorkb/internal/kb"
)

// keywordIndex is an in-memory inverted token index over chunk and note
// text. It supports exact and prefix token lookup; postings only select
// candidates, the final score comes from the same heuristic the store
// uses so both paths rank identically.
type keywordIndex struct {
	entries  map[string]*indexEntry
	postings map[string]map[string]struct{} // token -> set of entry ids
}

// indexEntry carries the metadata needed to filter and rank without going
// back to the store.
type indexEntry struct {
	id      string
	kind    kb.EntryKind
	parent  string
	source  kb.SourceType
	created time.Time
	text    string
	order   int64
}

func newKeywordIndex() *keywordIndex {
	return &keywordIndex{
		entries:  make(map[string]*indexEntry),
		postings: make(map[string]map[string]struct{}),
	}
}

func (k *keywordIndex) add(e *indexEntry) {
	k.remove(e.id)
	k.entries[e.id] = e
	for _, tok := range kb.Tokenize(e.text) {
		ids, ok := k.postings[tok]
		if !ok {
			ids = make(map[string]struct{})
			k.postings[tok] = ids
		}
		ids[e.id] = struct{}{}
	}
}

func (k *keywordIndex) remove(id string) {
	e, ok := k.entries[id]
	if !ok {
		return
	}
	for _, tok := range kb.Tokenize(e.text) {
		if ids, ok := k.postings[tok]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(k.postings, tok)
			}
		}
	}
	delete(k.entries, id)
}

// removeParent drops every entry belonging to the given document or
// sensor.
func (k *keywordIndex) removeParent(kind kb.EntryKind, parent string) {
	var doomed []string
	for id, e := range k.entries {
		if e.kind == kind && e.parent == parent {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		k.remove(id)
	}
}

// search selects candidates whose tokens match a query term exactly or by
// prefix, scores them with kb.KeywordScore, and returns scope-filtered
// hits (unsorted; the caller sorts and truncates).
func (k *keywordIndex) search(terms []string, scope kb.Filter) []kb.Hit {
	candidates := make(map[string]struct{})
	for _, term := range terms {
		for tok, ids := range k.postings {
			if tok == term || strings.HasPrefix(tok, term) {
				for id := range ids {
					candidates[id] = struct{}{}
				}
			}
		}
	}

	var hits []kb.Hit
	for id := range candidates {
		e := k.entries[id]
		if e == nil || !matchesScope(e, scope) {
			continue
		}
		score := kb.KeywordScore(e.text, terms)
		if score <= 0 {
			continue
		}
		hits = append(hits, kb.Hit{
			Kind:     e.kind,
			ID:       e.id,
			ParentID: e.parent,
			Text:     e.text,
			Score:    score,
			Order:    e.order,
		})
	}
	return hits
}

func matchesScope(e *indexEntry, scope kb.Filter) bool {
	if scope.DocumentID != "" && (e.kind != kb.KindChunk || e.parent != scope.DocumentID) {
		return false
	}
	if scope.OwnerID != "" && (e.kind != kb.KindNote || e.parent != scope.OwnerID) {
		return false
	}
	if scope.SourceType != "" && (e.kind != kb.KindChunk || e.source != scope.SourceType) {
		return false
	}
	if !scope.From.IsZero() && e.created.Before(scope.From) {
		return false
	}
	if !scope.To.IsZero() && e.created.After(scope.To) {
		return false
	}
	return true
}
