package requestid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestAddGet(t *testing.T) {
	ctx := context.Background()

	id := New()
	ctx = AddToOutgoingContext(ctx, id)

	readId, ok := FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, readId)

	// overwriting appends rather than replaces, so the first value stays
	// at the front of the metadata slice and is what Get keeps returning.
	newId := New()
	ctx = AddToOutgoingContext(ctx, newId)
	readId, ok = FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, readId, "Get returns the first value appended")
}

func TestUnaryClientInterceptorStampsMissingId(t *testing.T) {
	var observedId string
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		id, ok := FromOutgoingContext(ctx)
		require.True(t, ok)
		observedId = id
		return nil
	}

	f := UnaryClientInterceptor()
	err := f(context.Background(), "/worker.Worker/GetElement", nil, nil, nil, invoker)
	require.NoError(t, err)
	assert.NotEmpty(t, observedId)
}

func TestUnaryClientInterceptorPreservesExistingId(t *testing.T) {
	id := New()
	ctx := AddToOutgoingContext(context.Background(), id)

	var observedId string
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, ok := FromOutgoingContext(ctx)
		require.True(t, ok)
		observedId = got
		return nil
	}

	f := UnaryClientInterceptor()
	err := f(ctx, "/worker.Worker/GetElement", nil, nil, nil, invoker)
	require.NoError(t, err)
	assert.Equal(t, id, observedId)
}
