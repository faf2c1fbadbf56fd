package rpc

// Wire messages for the dispatcher and worker services. Field names are
// lower camel-case over JSON rather than protobuf tags since these
// services are JSON-over-gRPC (see codec.go).

type getOrCreateJobRequest struct {
	DatasetID      int64   `json:"datasetId"`
	ProcessingMode string  `json:"processingMode"`
	JobName        *string `json:"jobName,omitempty"`
	IteratorIndex  *int64  `json:"iteratorIndex,omitempty"`
	NumConsumers   *int64  `json:"numConsumers,omitempty"`
}

type getOrCreateJobResponse struct {
	JobClientID int64 `json:"jobClientId"`
}

type getTasksRequest struct {
	JobClientID int64 `json:"jobClientId"`
}

type taskInfoWire struct {
	TaskID        string `json:"taskId"`
	WorkerAddress string `json:"workerAddress"`
}

type getTasksResponse struct {
	Tasks       []taskInfoWire `json:"tasks"`
	JobFinished bool           `json:"jobFinished"`
}

type releaseJobClientRequest struct {
	JobClientID int64 `json:"jobClientId"`
}

type releaseJobClientResponse struct{}

type getElementRequest struct {
	TaskID        string `json:"taskId"`
	ConsumerIndex *int64 `json:"consumerIndex,omitempty"`
	RoundIndex    *int64 `json:"roundIndex,omitempty"`
}

type getElementResponse struct {
	CompressedElement []byte `json:"compressedElement"`
	EndOfSequence     bool   `json:"endOfSequence"`
}
