package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lab271/sensorkb/internal/kb"
)

// embedOutcome is one chunk's embedding result, matched to the chunk by
// position rather than completion order.
type embedOutcome struct {
	vector []float32
	err    error
}

// embedAll runs embedding calls through a bounded worker pool, one call
// per text with its own timeout. An individual failure or timeout is
// recorded in the outcome, never propagated; only full-batch context
// cancellation reaches the caller.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) []embedOutcome {
	outcomes := make([]embedOutcome, len(texts))

	workers := p.cfg.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(texts) {
		workers = len(texts)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.embedOne(ctx, texts[i])
			}
		}()
	}

	for i := range texts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (p *Pipeline) embedOne(ctx context.Context, text string) embedOutcome {
	timeout := time.Duration(p.cfg.EmbedTimeoutSecs) * time.Second
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vecs, err := p.embedder.Embed(tctx, []string{text})
	if err != nil {
		return embedOutcome{err: fmt.Errorf("%w: %v", kb.ErrEmbeddingUnavailable, err)}
	}
	if len(vecs) != 1 {
		return embedOutcome{err: fmt.Errorf("%w: got %d vectors for one input", kb.ErrEmbeddingUnavailable, len(vecs))}
	}
	if len(vecs[0]) != p.store.Dimension() {
		return embedOutcome{err: fmt.Errorf("%w: embedder returned dimension %d, store requires %d",
			kb.ErrEmbeddingUnavailable, len(vecs[0]), p.store.Dimension())}
	}
	return embedOutcome{vector: vecs[0]}
}
