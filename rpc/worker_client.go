package rpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

const methodGetElement = "/dataservice.Worker/GetElement"

// workerClient implements client.WorkerClient over a plain
// grpc.ClientConn using the JSON codec registered in codec.go.
type workerClient struct {
	conn *grpc.ClientConn
}

func (w *workerClient) GetElement(ctx context.Context, taskID string, consumerIndex, roundIndex *int64) ([]byte, bool, error) {
	req := &getElementRequest{
		TaskID:        taskID,
		ConsumerIndex: consumerIndex,
		RoundIndex:    roundIndex,
	}
	resp := &getElementResponse{}
	if err := w.conn.Invoke(ctx, methodGetElement, req, resp); err != nil {
		return nil, false, errors.WithStack(err)
	}
	return resp.CompressedElement, resp.EndOfSequence, nil
}
