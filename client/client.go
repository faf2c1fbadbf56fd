// Package client declares the dispatcher and worker RPC surfaces the ingest
// engine depends on. Their wire implementation, credential handling, and
// the exact encoding of compressed elements are deliberately left to the
// rpc package (or a caller-supplied implementation); this package only
// fixes the contract the ingest engine programs against.
package client

import (
	"context"
)

// JobKey identifies a job a consumer wants to share with other consumers.
// Two calls to GetOrCreateJob with equal JobKeys resolve to the same job,
// which is what lets several iterators read one dataset in lockstep.
type JobKey struct {
	JobName       string
	IteratorIndex int64
}

// TaskInfo is the dispatcher's advertisement of one worker-backed task.
type TaskInfo struct {
	TaskID        string
	WorkerAddress string
}

// DispatcherClient is the client-side view of the dispatcher RPC service.
// Implementations must be safe for concurrent use.
type DispatcherClient interface {
	// GetOrCreateJob resolves datasetID/processingMode (and, if jobKey is
	// non-nil, the shared job key) to a job client id. numConsumers is
	// nil unless the caller is participating in strict round-robin.
	GetOrCreateJob(ctx context.Context, datasetID int64, processingMode string, jobKey *JobKey, numConsumers *int64) (jobClientID int64, err error)

	// GetTasks returns the current task set for a job and whether the job
	// has finished producing new tasks.
	GetTasks(ctx context.Context, jobClientID int64) (tasks []TaskInfo, jobFinished bool, err error)

	// ReleaseJobClient releases the caller's reference to a job client.
	// Implementations should make this idempotent, since teardown calls it
	// best-effort and may call it more than once for the same id.
	ReleaseJobClient(ctx context.Context, jobClientID int64) error
}

// WorkerClient is the client-side view of a single worker's RPC service.
// Implementations must be safe for concurrent use.
type WorkerClient interface {
	// GetElement fetches the next element of taskID. consumerIndex and
	// roundIndex are nil outside strict round-robin mode; when set, the
	// worker uses them to serve the same logical round to every
	// cooperating consumer.
	GetElement(ctx context.Context, taskID string, consumerIndex, roundIndex *int64) (compressed []byte, endOfSequence bool, err error)
}

// Dialer constructs DispatcherClient and WorkerClient instances bound to a
// (address, protocol) pair, mirroring CreateDataServiceWorkerClient from
// the host framework this engine was extracted from.
type Dialer interface {
	DialDispatcher(ctx context.Context, address, protocol string) (DispatcherClient, error)
	DialWorker(ctx context.Context, address, protocol string) (WorkerClient, error)
}
