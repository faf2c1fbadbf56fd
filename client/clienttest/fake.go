// Package clienttest provides hand-rolled fakes for client.DispatcherClient
// and client.WorkerClient, scriptable enough to drive the scenarios the
// ingest engine needs to satisfy without a mocking framework.
package clienttest

import (
	"context"
	"sync"

	"github.com/armadaproject/dataservice-client/client"
)

// FakeDispatcher is a scriptable client.DispatcherClient. Tasks can be
// mutated at any time via SetTasks/RemoveTask/Finish; GetTasks observes
// whatever the latest call left in place.
type FakeDispatcher struct {
	mu             sync.Mutex
	nextJobID      int64
	tasks          []client.TaskInfo
	finished       bool
	released       []int64
	getTasksCalls  int
	getTasksErr    error
	getOrCreateErr error
}

func NewFakeDispatcher(tasks ...client.TaskInfo) *FakeDispatcher {
	return &FakeDispatcher{tasks: tasks}
}

func (f *FakeDispatcher) GetOrCreateJob(_ context.Context, _ int64, _ string, _ *client.JobKey, _ *int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOrCreateErr != nil {
		return 0, f.getOrCreateErr
	}
	f.nextJobID++
	return f.nextJobID, nil
}

func (f *FakeDispatcher) GetTasks(_ context.Context, _ int64) ([]client.TaskInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getTasksCalls++
	if f.getTasksErr != nil {
		return nil, false, f.getTasksErr
	}
	out := make([]client.TaskInfo, len(f.tasks))
	copy(out, f.tasks)
	return out, f.finished, nil
}

func (f *FakeDispatcher) ReleaseJobClient(_ context.Context, jobClientID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, jobClientID)
	return nil
}

func (f *FakeDispatcher) SetTasks(tasks ...client.TaskInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = tasks
}

func (f *FakeDispatcher) RemoveTask(taskID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.TaskID != taskID {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
}

func (f *FakeDispatcher) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = true
}

func (f *FakeDispatcher) SetGetTasksError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getTasksErr = err
}

func (f *FakeDispatcher) GetTasksCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getTasksCalls
}

func (f *FakeDispatcher) ReleasedJobIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.released))
	copy(out, f.released)
	return out
}

// FakeWorker is a scriptable client.WorkerClient. Elements is consumed in
// order; once exhausted (or from the start, if Elements is empty) further
// calls report end-of-sequence. Errs, if set, is
// consumed in lockstep with Elements and returned instead of a result.
type FakeWorker struct {
	mu       sync.Mutex
	Elements [][]byte
	Errs     []error
	pos      int
	calls    []fakeWorkerCall
}

type fakeWorkerCall struct {
	TaskID        string
	ConsumerIndex *int64
	RoundIndex    *int64
}

func NewFakeWorker(elements ...[]byte) *FakeWorker {
	return &FakeWorker{Elements: elements}
}

func (f *FakeWorker) GetElement(_ context.Context, taskID string, consumerIndex, roundIndex *int64) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeWorkerCall{TaskID: taskID, ConsumerIndex: consumerIndex, RoundIndex: roundIndex})

	if f.pos < len(f.Errs) && f.Errs[f.pos] != nil {
		err := f.Errs[f.pos]
		f.pos++
		return nil, false, err
	}

	if f.pos >= len(f.Elements) {
		return nil, true, nil
	}
	elem := f.Elements[f.pos]
	f.pos++
	return elem, false, nil
}

func (f *FakeWorker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// FakeDialer returns pre-built clients regardless of address/protocol,
// keyed by worker address so a test can hand each task's worker its own
// FakeWorker.
type FakeDialer struct {
	Dispatcher client.DispatcherClient
	Workers    map[string]client.WorkerClient
}

func NewFakeDialer(dispatcher client.DispatcherClient) *FakeDialer {
	return &FakeDialer{Dispatcher: dispatcher, Workers: map[string]client.WorkerClient{}}
}

func (d *FakeDialer) DialDispatcher(_ context.Context, _, _ string) (client.DispatcherClient, error) {
	return d.Dispatcher, nil
}

func (d *FakeDialer) DialWorker(_ context.Context, address, _ string) (client.WorkerClient, error) {
	w, ok := d.Workers[address]
	if !ok {
		return nil, errNoWorker(address)
	}
	return w, nil
}

type errNoWorker string

func (e errNoWorker) Error() string {
	return "clienttest: no fake worker registered for address " + string(e)
}
