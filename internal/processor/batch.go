package processor

import (
	"sync"
	"sync/atomic"
)

// Batch is the state shared by the workers of one Run: the done-counter and
// the stop flag. It is created per Run and handed to every worker.
type Batch struct {
	total   int
	updates chan<- ProgressUpdate

	mu   sync.Mutex
	done int

	stop atomic.Bool
}

func newBatch(total int, updates chan<- ProgressUpdate) *Batch {
	return &Batch{total: total, updates: updates}
}

// Stop asks workers not to start further jobs.
func (b *Batch) Stop() { b.stop.Store(true) }

// Stopped reports whether Stop was called.
func (b *Batch) Stopped() bool { return b.stop.Load() }

// Done returns the number of accounted jobs.
func (b *Batch) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// complete accounts for a started job. The counter increment and the
// progress emit share one critical section so observers see percentages in
// order.
func (b *Batch) complete(res Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	if b.updates == nil {
		return
	}
	if res.Err != nil {
		b.updates <- ProgressUpdate{
			Kind:    UpdateDiagnostic,
			Done:    b.done,
			Total:   b.total,
			Path:    res.Source,
			Message: res.Err.Error(),
		}
	}
	b.updates <- ProgressUpdate{
		Kind:    UpdateProgress,
		Percent: 100 * b.done / b.total,
		Done:    b.done,
		Total:   b.total,
		Path:    res.Source,
	}
}

func (b *Batch) finish() {
	if b.updates == nil {
		return
	}
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	pct := 100
	if b.total > 0 {
		pct = 100 * done / b.total
	}
	b.updates <- ProgressUpdate{Kind: UpdateFinished, Percent: pct, Done: done, Total: b.total}
}
