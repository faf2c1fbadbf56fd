package ingest

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/armadaproject/dataservice-client/internal/diagnostics"
)

func newBareIteratorWithTasks(tasks ...*task) *Iterator {
	it := &Iterator{
		tasks:   tasks,
		log:     logrus.NewEntry(logrus.New()),
		retries: diagnostics.NewInMemoryTaskRetryCache(),
	}
	it.getNextCV = sync.NewCond(&it.mu)
	it.workerThreadCV = sync.NewCond(&it.mu)
	it.managerThreadCV = sync.NewCond(&it.mu)
	return it
}

func TestPickNonDeterministicTask_SkipsInUseAndFinishedTasks(t *testing.T) {
	t0 := &task{id: "t0", inUse: true}
	t1 := &task{id: "t1", endOfSequence: true}
	t2 := &task{id: "t2"}
	it := newBareIteratorWithTasks(t0, t1, t2)

	picked := it.pickNonDeterministicTask()

	assert.Equal(t, "t2", picked.id)
	assert.Equal(t, 0, it.nextTaskIndex)
}

func TestPickNonDeterministicTask_WrapsAroundFromCursor(t *testing.T) {
	t0 := &task{id: "t0", inUse: true}
	t1 := &task{id: "t1"}
	t2 := &task{id: "t2", inUse: true}
	it := newBareIteratorWithTasks(t0, t1, t2)
	it.nextTaskIndex = 2

	picked := it.pickNonDeterministicTask()

	assert.Equal(t, "t1", picked.id)
	assert.Equal(t, 2, it.nextTaskIndex)
}

func TestWrapWorkerError_UnwrapsToCause(t *testing.T) {
	cause := assert.AnError
	err := wrapWorkerError("worker:1234", cause)

	assert.Contains(t, err.Error(), "worker:1234")
	assert.Contains(t, err.Error(), cause.Error())

	we, ok := err.(*workerError)
	if assert.True(t, ok) {
		assert.Equal(t, cause, we.Unwrap())
	}
}

func TestPublishElement_EndOfSequenceMarksTaskAndFinishedCount(t *testing.T) {
	tk := &task{id: "t0"}
	it := newBareIteratorWithTasks(tk)
	res := &result{}

	err := it.publishElement(tk, res, true, nil, true)

	assert.NoError(t, err)
	assert.True(t, tk.endOfSequence)
	assert.Equal(t, 1, it.finishedTasks)
	assert.True(t, res.ready)
	assert.True(t, res.endOfSequence)
	assert.Empty(t, it.results, "an end-of-sequence result is never enqueued for delivery")
}

func TestPublishElement_EnqueuesReadyResultAndIncrementsElementsRead(t *testing.T) {
	tk := &task{id: "t0"}
	it := newBareIteratorWithTasks(tk)
	res := &result{}
	it.cfg.OutputCodec = "snappy"

	err := it.publishElement(tk, res, true, []byte("payload"), false)

	assert.NoError(t, err)
	assert.EqualValues(t, 1, tk.elementsRead)
	assert.False(t, res.endOfSequence)
	assert.Equal(t, Element{Compressed: []byte("payload"), Codec: "snappy"}, res.element)
	if assert.Len(t, it.results, 1) {
		assert.Same(t, res, it.results[0])
	}
}
