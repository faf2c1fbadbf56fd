// Package ingest implements the client-side ingest engine: an Iterator
// that streams elements from a fleet of workers coordinated by a
// dispatcher, backed by a task manager goroutine and a pool of worker
// goroutines.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/armadaproject/dataservice-client/client"
	"github.com/armadaproject/dataservice-client/internal/common/armadacontext"
	"github.com/armadaproject/dataservice-client/internal/common/armadaerrors"
	"github.com/armadaproject/dataservice-client/internal/counter"
	"github.com/armadaproject/dataservice-client/internal/diagnostics"
)

// ErrUnimplemented is returned by Save and Restore: this engine does not
// support checkpointing an iterator's progress.
var ErrUnimplemented = errors.New("unimplemented: iterator serialization is not supported")

// ErrCancelled is returned by Next once the iterator has been cancelled.
var ErrCancelled = errors.New("iterator cancelled")

// Iterator is the public, pull-based entry point of the ingest engine. All
// exported methods are safe for concurrent use, though Next is typically
// called from a single consumer goroutine.
type Iterator struct {
	mu              sync.Mutex
	getNextCV       *sync.Cond
	workerThreadCV  *sync.Cond
	managerThreadCV *sync.Cond

	cfg      DatasetConfig
	dialer   client.Dialer
	dispatch client.DispatcherClient
	log      *logrus.Entry

	jobClientID int64

	tasks         []*task
	results       []*result
	nextTaskIndex int
	finishedTasks int

	outstandingRequests    int64
	maxOutstandingRequests int64

	numRunningWorkerThreads int
	managerStarted          bool

	cancelled   bool
	jobFinished bool
	status      error

	counterHandle *counter.Handle
	ownsCounter   bool

	retries diagnostics.TaskRetryCache

	group *errgroup.Group
}

// RetryAttempts reports how many consecutive transient-error retries the
// given task id has accumulated since its last successful fetch.
func (it *Iterator) RetryAttempts(taskID string) int {
	return it.retries.GetNumberOfRetryAttempts(taskID)
}

// NewIterator validates cfg, dials the dispatcher, and joins (or creates)
// the configured job. On success the returned Iterator is ready to serve
// Next; the task manager and worker goroutines are started lazily on the
// first call, matching the original "start the manager thread from
// GetNext" lifecycle.
func NewIterator(ctx context.Context, cfg DatasetConfig, dialer client.Dialer, log *logrus.Entry) (*Iterator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}

	dispatch, err := dialer.DialDispatcher(ctx, cfg.Address, cfg.Protocol)
	if err != nil {
		return nil, errors.Wrap(err, "dialing dispatcher")
	}

	it := &Iterator{
		cfg:                    cfg,
		dialer:                 dialer,
		dispatch:               dispatch,
		log:                    log,
		maxOutstandingRequests: cfg.MaxOutstandingRequests,
		retries:                diagnostics.NewInMemoryTaskRetryCache(),
	}
	it.getNextCV = sync.NewCond(&it.mu)
	it.workerThreadCV = sync.NewCond(&it.mu)
	it.managerThreadCV = sync.NewCond(&it.mu)

	group, _ := armadacontext.ErrGroup(armadacontext.New(context.Background(), log))
	it.group = group

	if it.maxOutstandingRequests == AutotuneOutstandingRequests {
		it.maxOutstandingRequests = 1
	}

	var jobKey *client.JobKey
	if name, ok := cfg.jobKeyName(); ok {
		h := counter.Default.LookupOrCreate("dataservice-iteration", name)
		it.counterHandle = h
		it.ownsCounter = true
		jobKey = &client.JobKey{JobName: name, IteratorIndex: h.Next()}
	}

	var numConsumers *int64
	if cfg.strictRoundRobin() {
		n := cfg.NumConsumers
		numConsumers = &n
	}

	jobClientID, err := it.getOrCreateJobWithRetry(ctx, jobKey, numConsumers)
	if err != nil {
		if it.counterHandle != nil {
			it.counterHandle.Release()
		}
		return nil, err
	}
	it.jobClientID = jobClientID

	return it, nil
}

// getOrCreateJobWithRetry retries transient dispatcher errors unboundedly,
// bounded only by ctx, so construction survives a dispatcher that is
// temporarily unavailable at startup.
func (it *Iterator) getOrCreateJobWithRetry(ctx context.Context, jobKey *client.JobKey, numConsumers *int64) (int64, error) {
	attempt := 0
	for {
		jobClientID, err := it.dispatch.GetOrCreateJob(ctx, it.cfg.DatasetID, it.cfg.ProcessingMode, jobKey, numConsumers)
		if err == nil {
			return jobClientID, nil
		}
		if !armadaerrors.IsTransient(err) {
			return 0, errors.Wrap(err, "GetOrCreateJob")
		}

		backoff := computeBackoff(attempt, defaultBackoffBase, defaultBackoffCap)
		it.log.WithError(err).WithField("backoff", backoff).Warn("transient error creating job, retrying")
		attempt++

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Next blocks until an element is ready, the job is drained, the iterator
// is cancelled, or ctx is done, whichever happens first.
func (it *Iterator) Next(ctx context.Context) (Element, bool, error) {
	it.mu.Lock()

	if !it.managerStarted && !it.cancelled {
		it.managerStarted = true
		it.group.Go(func() error {
			it.taskManagerLoop()
			return nil
		})
	}

	stopWatch := make(chan struct{})
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				it.mu.Lock()
				it.getNextCV.Broadcast()
				it.mu.Unlock()
			case <-stopWatch:
			}
		}()
	}
	defer close(stopWatch)

	for {
		ready := len(it.results) > 0 && it.results[0].ready
		drained := it.jobFinished && it.numRunningWorkerThreads == 0
		if ready || drained || it.cancelled || it.status != nil || ctx.Err() != nil {
			break
		}
		it.getNextCV.Wait()
	}

	switch {
	case it.cancelled:
		it.mu.Unlock()
		return Element{}, false, ErrCancelled
	case it.status != nil:
		err := it.status
		it.mu.Unlock()
		return Element{}, false, err
	case ctx.Err() != nil:
		err := ctx.Err()
		it.mu.Unlock()
		return Element{}, false, err
	case len(it.results) == 0:
		// Job drained with nothing left to deliver.
		it.mu.Unlock()
		return Element{}, true, nil
	}

	r := it.results[0]
	it.results = it.results[1:]
	eos := r.endOfSequence
	elem := r.element
	it.workerThreadCV.Signal()
	it.mu.Unlock()

	return elem, eos, nil
}

// Close cancels the iterator, joins the task manager and all worker
// goroutines through their errgroup, and releases the dispatcher job
// client best-effort.
func (it *Iterator) Close(ctx context.Context) error {
	it.mu.Lock()
	it.cancelled = true
	it.getNextCV.Broadcast()
	it.workerThreadCV.Broadcast()
	it.managerThreadCV.Broadcast()
	it.mu.Unlock()

	_ = it.group.Wait()

	if it.counterHandle != nil {
		it.counterHandle.Release()
	}

	if err := it.dispatch.ReleaseJobClient(ctx, it.jobClientID); err != nil {
		it.log.WithError(err).Warn("failed to release job client")
	}
	return nil
}

// Cancel transitions the iterator to cancelled without waiting for
// goroutines to exit, so a host framework's cancellation manager can call
// it independently of Close/teardown.
func (it *Iterator) Cancel() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.cancelled = true
	it.getNextCV.Broadcast()
	it.workerThreadCV.Broadcast()
	it.managerThreadCV.Broadcast()
}

// Save is explicitly unsupported.
func (it *Iterator) Save() error { return ErrUnimplemented }

// Restore is explicitly unsupported.
func (it *Iterator) Restore() error { return ErrUnimplemented }

// CheckExternalState reports that serialization is not supported, the
// contract a graph-serializer would consume before attempting to save
// this iterator's state.
func (it *Iterator) CheckExternalState() error {
	return errors.New("failed precondition: serialization not supported")
}

// elementSpaceAvailable reports whether there is budget to publish another
// result. Must be called with the mutex held.
func (it *Iterator) elementSpaceAvailable() bool {
	if it.cfg.strictRoundRobin() {
		return int64(len(it.results)) < it.maxOutstandingRequests
	}
	return int64(len(it.results))+it.outstandingRequests < it.maxOutstandingRequests
}

// taskAvailable reports whether a worker thread could make progress right
// now. Must be called with the mutex held.
func (it *Iterator) taskAvailable() bool {
	if it.cfg.strictRoundRobin() {
		if len(it.tasks) == 0 {
			return false
		}
		return !it.tasks[it.nextTaskIndex].inUse
	}
	return int64(it.finishedTasks)+it.outstandingRequests < int64(len(it.tasks))
}
