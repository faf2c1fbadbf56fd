package ingest

import (
	"context"
	"time"

	"github.com/armadaproject/dataservice-client/internal/common/armadaerrors"
	"github.com/armadaproject/dataservice-client/internal/common/metrics"
)

// runWorkerThread is the body of one worker goroutine: release whatever
// task it held, wait for budget and an available task, claim one under
// the discipline the configuration selects, fetch an element, and repeat
// until the iterator is cancelled or the job finishes. Exit always frees
// the thread's share of the outstanding-request budget.
func (it *Iterator) runWorkerThread() {
	var held *task
	var reserved *result

	for {
		// Release phase.
		it.mu.Lock()
		if held != nil {
			held.inUse = false
			held = nil
			it.workerThreadCV.Signal()
		}
		it.outstandingRequests--
		metrics.OutstandingRequests.Set(float64(it.outstandingRequests))

		// Wait phase.
		for !it.cancelled && !(it.elementSpaceAvailable() && it.taskAvailable()) && !it.jobFinished {
			it.workerThreadCV.Wait()
		}

		// Exit check.
		if it.cancelled || it.jobFinished {
			it.numRunningWorkerThreads--
			it.mu.Unlock()
			it.getNextCV.Broadcast()
			return
		}

		// Claim phase.
		var t *task
		enqueue := true
		if it.cfg.strictRoundRobin() {
			t = it.tasks[it.nextTaskIndex]
			r := &result{}
			it.results = append(it.results, r)
			reserved = r
			it.nextTaskIndex = (it.nextTaskIndex + 1) % len(it.tasks)
			enqueue = false
		} else {
			t = it.pickNonDeterministicTask()
			reserved = nil
		}
		t.inUse = true
		held = t
		it.outstandingRequests++
		metrics.OutstandingRequests.Set(float64(it.outstandingRequests))
		it.mu.Unlock()

		// Fetch phase (no mutex held).
		localResult := reserved
		if localResult == nil {
			localResult = &result{}
		}
		err := it.getElement(context.Background(), t, localResult, enqueue)
		if err != nil {
			it.mu.Lock()
			held.inUse = false
			held = nil
			it.outstandingRequests--
			metrics.OutstandingRequests.Set(float64(it.outstandingRequests))
			it.numRunningWorkerThreads--
			if it.status == nil {
				it.status = wrapWorkerError(t.workerAddress, err)
			}
			it.getNextCV.Broadcast()
			it.mu.Unlock()
			return
		}
	}
}

// pickNonDeterministicTask scans once around tasks_ from nextTaskIndex,
// picking the first free, unfinished task, and advances the cursor past
// it. Must be called with the mutex held and taskAvailable() already true.
func (it *Iterator) pickNonDeterministicTask() *task {
	n := len(it.tasks)
	for i := 0; i < n; i++ {
		idx := (it.nextTaskIndex + i) % n
		t := it.tasks[idx]
		if !t.inUse && !t.endOfSequence {
			it.nextTaskIndex = (idx + 1) % n
			return t
		}
	}
	// taskAvailable() guaranteed a candidate existed under the same lock
	// acquisition; this is unreachable outside of a broken invariant.
	panic("ingest: pickNonDeterministicTask found no eligible task despite taskAvailable()")
}

// getElement fetches one element for t, retrying transient failures with
// bounded backoff truncated to deadline. On success it publishes the
// result under the mutex: either filling in the pre-reserved placeholder
// (round-robin) or, if enqueue is true, appending result to results_.
func (it *Iterator) getElement(ctx context.Context, t *task, res *result, enqueue bool) error {
	deadline := time.Now().Add(5 * time.Minute)
	var lastErr error

	for numRetries := 0; ; numRetries++ {
		var consumerIndex, roundIndex *int64
		if it.cfg.strictRoundRobin() {
			ci := it.cfg.ConsumerIndex
			it.mu.Lock()
			ri := t.elementsRead
			it.mu.Unlock()
			consumerIndex, roundIndex = &ci, &ri
		}

		compressed, eos, err := t.worker.GetElement(ctx, t.id, consumerIndex, roundIndex)
		if err == nil {
			it.retries.Evict(t.id)
			return it.publishElement(t, res, enqueue, compressed, eos)
		}

		lastErr = err
		if !armadaerrors.IsTransient(err) {
			return err
		}

		it.mu.Lock()
		giveUp := t.endOfSequence || it.cancelled
		it.mu.Unlock()
		if giveUp {
			it.retries.Evict(t.id)
			return it.publishElement(t, res, enqueue, nil, true)
		}

		it.retries.AddRetryAttempt(t.id)
		metrics.WorkerRetries.WithLabelValues(t.id).Inc()

		backoff := computeBackoff(numRetries, defaultBackoffBase, defaultBackoffCap)
		now := time.Now()
		if now.After(deadline) {
			return lastErr
		}
		if remaining := deadline.Sub(now); backoff > remaining {
			backoff = remaining
		}
		time.Sleep(backoff)
	}
}

func (it *Iterator) publishElement(t *task, res *result, enqueue bool, compressed []byte, eos bool) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	res.ready = true
	res.endOfSequence = eos

	if eos {
		t.endOfSequence = true
		it.finishedTasks++
	} else {
		res.element = Element{Compressed: compressed, Codec: it.cfg.OutputCodec}
		t.elementsRead++
		metrics.ElementsRead.WithLabelValues(t.id).Inc()
		if enqueue {
			it.results = append(it.results, res)
		}
	}

	it.getNextCV.Broadcast()
	return nil
}

func wrapWorkerError(workerAddress string, err error) error {
	return &workerError{address: workerAddress, cause: err}
}

type workerError struct {
	address string
	cause   error
}

func (e *workerError) Error() string {
	return "worker " + e.address + ": " + e.cause.Error()
}

func (e *workerError) Unwrap() error {
	return e.cause
}
