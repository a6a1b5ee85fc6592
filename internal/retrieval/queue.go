package retrieval

import (
	"context"
	"sync"

	"github.com/pennywise-app/pennywise/internal/common"
)

// Job is one unit of background indexing work: a batch of items for one user.
type Job struct {
	UserID string
	Items  []Item
}

// Queue runs indexing jobs in the background so callers (the import path in
// particular) never wait on embedding calls. Jobs run at least once; a job
// that fails is logged and dropped, never retried, so a flaky embedding
// service cannot wedge the queue.
type Queue struct {
	index *Index
	jobs  chan Job
	wg    sync.WaitGroup
	once  sync.Once
}

// NewQueue creates a queue over the given index with the given buffer size.
func NewQueue(index *Index, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		index: index,
		jobs:  make(chan Job, buffer),
	}
}

// Start launches the worker. Call once; Close stops it.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				q.run(ctx, job)
			}
		}
	}()
}

// Enqueue submits a job. It blocks only when the buffer is full.
func (q *Queue) Enqueue(job Job) {
	if len(job.Items) == 0 {
		return
	}
	q.jobs <- job
}

// Close stops accepting jobs and waits for in-flight work to drain.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context, job Job) {
	stored, err := q.index.UpsertBatch(ctx, job.UserID, job.Items)
	if err != nil {
		common.LogError(err, "Background indexing failed", common.Fields{
			"user_id": job.UserID,
			"items":   len(job.Items),
			"stored":  stored,
		})
		return
	}

	common.LogDebug("Indexed documents", common.Fields{
		"user_id": job.UserID,
		"stored":  stored,
	})
}
