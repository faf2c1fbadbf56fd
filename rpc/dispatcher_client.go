package rpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/armadaproject/dataservice-client/client"
)

const (
	methodGetOrCreateJob   = "/dataservice.Dispatcher/GetOrCreateJob"
	methodGetTasks         = "/dataservice.Dispatcher/GetTasks"
	methodReleaseJobClient = "/dataservice.Dispatcher/ReleaseJobClient"
)

// dispatcherClient implements client.DispatcherClient over a plain
// grpc.ClientConn using the JSON codec registered in codec.go.
type dispatcherClient struct {
	conn *grpc.ClientConn
}

func (d *dispatcherClient) GetOrCreateJob(ctx context.Context, datasetID int64, processingMode string, jobKey *client.JobKey, numConsumers *int64) (int64, error) {
	req := &getOrCreateJobRequest{
		DatasetID:      datasetID,
		ProcessingMode: processingMode,
		NumConsumers:   numConsumers,
	}
	if jobKey != nil {
		req.JobName = &jobKey.JobName
		req.IteratorIndex = &jobKey.IteratorIndex
	}

	resp := &getOrCreateJobResponse{}
	if err := d.conn.Invoke(ctx, methodGetOrCreateJob, req, resp); err != nil {
		return 0, errors.WithStack(err)
	}
	return resp.JobClientID, nil
}

func (d *dispatcherClient) GetTasks(ctx context.Context, jobClientID int64) ([]client.TaskInfo, bool, error) {
	req := &getTasksRequest{JobClientID: jobClientID}
	resp := &getTasksResponse{}
	if err := d.conn.Invoke(ctx, methodGetTasks, req, resp); err != nil {
		return nil, false, errors.WithStack(err)
	}

	tasks := make([]client.TaskInfo, len(resp.Tasks))
	for i, t := range resp.Tasks {
		tasks[i] = client.TaskInfo{TaskID: t.TaskID, WorkerAddress: t.WorkerAddress}
	}
	return tasks, resp.JobFinished, nil
}

func (d *dispatcherClient) ReleaseJobClient(ctx context.Context, jobClientID int64) error {
	req := &releaseJobClientRequest{JobClientID: jobClientID}
	resp := &releaseJobClientResponse{}
	return errors.WithStack(d.conn.Invoke(ctx, methodReleaseJobClient, req, resp))
}
