package pipeline

import "sync"

// docLocks serializes ingestion per document id. The delete-then-recreate
// sequence of a re-ingestion must not interleave with another run on the
// same id; independent documents proceed in parallel.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for id and returns its unlock func.
func (d *docLocks) acquire(id string) func() {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &sync.Mutex{}
		d.locks[id] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}
