package ingest

import (
	"context"
	"time"

	"github.com/armadaproject/dataservice-client/client"
	"github.com/armadaproject/dataservice-client/internal/common/metrics"
)

// taskManagerLoop polls the dispatcher for the current task set, diffs it
// against what the iterator already knows about, and provisions worker
// goroutines to match the outstanding-request budget. It runs until the
// iterator is cancelled.
func (it *Iterator) taskManagerLoop() {
	interval := time.Duration(it.cfg.taskRefreshInterval()) * time.Millisecond

	for {
		it.mu.Lock()
		cancelled := it.cancelled
		it.mu.Unlock()
		if cancelled {
			return
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		tasks, jobFinished, err := it.dispatch.GetTasks(ctx, it.jobClientID)
		cancel()
		metrics.TaskManagerPollLatency.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.TaskManagerPollErrors.Inc()
			it.log.WithError(err).Warn("GetTasks failed, will retry next interval")
		} else {
			it.applyTaskUpdate(tasks, jobFinished)
		}

		it.waitManagerTick(interval)
	}
}

// applyTaskUpdate reconciles the dispatcher's advertised task set with the
// tasks the iterator already knows about: tasks absent from the dispatcher
// are dropped, present tasks are left untouched, and new tasks get a
// worker client dialed and are appended.
func (it *Iterator) applyTaskUpdate(advertised []client.TaskInfo, jobFinished bool) {
	byID := make(map[string]client.TaskInfo, len(advertised))
	for _, t := range advertised {
		byID[t.TaskID] = t
	}

	it.mu.Lock()

	if jobFinished {
		it.jobFinished = true
		it.getNextCV.Broadcast()
		it.workerThreadCV.Broadcast()
		it.mu.Unlock()
		return
	}

	kept := it.tasks[:0]
	for _, t := range it.tasks {
		if _, present := byID[t.id]; present {
			delete(byID, t.id)
			kept = append(kept, t)
		} else if t.endOfSequence {
			it.finishedTasks--
		}
	}
	it.tasks = kept
	if it.nextTaskIndex >= len(it.tasks) {
		it.nextTaskIndex = 0
	}

	newTasks := make([]client.TaskInfo, 0, len(byID))
	for _, t := range advertised {
		if _, stillNew := byID[t.TaskID]; stillNew {
			newTasks = append(newTasks, t)
		}
	}
	it.mu.Unlock()

	for _, ti := range newTasks {
		worker, err := it.dialer.DialWorker(context.Background(), ti.WorkerAddress, it.cfg.Protocol)
		it.mu.Lock()
		if err != nil {
			it.log.WithError(err).WithField("worker", ti.WorkerAddress).Error("failed to create worker client")
			if it.status == nil {
				it.status = err
			}
			it.getNextCV.Broadcast()
			it.mu.Unlock()
			continue
		}
		it.tasks = append(it.tasks, &task{id: ti.TaskID, workerAddress: ti.WorkerAddress, worker: worker})
		it.mu.Unlock()
	}

	it.mu.Lock()
	if it.cfg.MaxOutstandingRequests == AutotuneOutstandingRequests {
		it.maxOutstandingRequests = int64(len(it.tasks))
		if it.maxOutstandingRequests == 0 {
			it.maxOutstandingRequests = 1
		}
	}
	metrics.ActiveTasks.Set(float64(len(it.tasks)))
	it.mu.Unlock()

	it.updateWorkerThreads()
}

// updateWorkerThreads spawns worker goroutines until
// numRunningWorkerThreads reaches maxOutstandingRequests. A thread counts
// against the outstanding-request budget from the moment it is spawned,
// before it has claimed any task.
func (it *Iterator) updateWorkerThreads() {
	it.mu.Lock()
	var toSpawn int
	for it.numRunningWorkerThreads < int(it.maxOutstandingRequests) {
		it.numRunningWorkerThreads++
		it.outstandingRequests++
		toSpawn++
	}
	metrics.OutstandingRequests.Set(float64(it.outstandingRequests))
	it.mu.Unlock()

	for i := 0; i < toSpawn; i++ {
		it.group.Go(func() error {
			it.runWorkerThread()
			return nil
		})
	}

	if toSpawn > 0 {
		it.mu.Lock()
		it.workerThreadCV.Broadcast()
		it.mu.Unlock()
	}
}

// waitManagerTick sleeps until interval has elapsed or the iterator is
// cancelled, whichever is first. sync.Cond has no built-in deadline, so a
// timer goroutine broadcasts managerThreadCV once interval elapses; this
// mirrors a condition-variable timed wait without abandoning the shared
// mutex for the whole sleep.
func (it *Iterator) waitManagerTick(interval time.Duration) {
	it.mu.Lock()
	defer it.mu.Unlock()

	deadline := time.Now().Add(interval)
	for !it.cancelled && time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		timer := time.AfterFunc(remaining, func() {
			it.mu.Lock()
			it.managerThreadCV.Broadcast()
			it.mu.Unlock()
		})
		it.managerThreadCV.Wait()
		timer.Stop()
	}
}
