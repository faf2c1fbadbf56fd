package ingest

import "github.com/armadaproject/dataservice-client/client"

// task is a per-worker fetch handle. All fields are read and written only
// while the owning Iterator's mutex is held, except worker, which is
// immutable after construction and therefore safe to call without the
// lock (the lock discipline never holds the mutex across an RPC).
type task struct {
	id            string
	workerAddress string
	worker        client.WorkerClient

	elementsRead  int64
	inUse         bool
	endOfSequence bool
}
