// Package requestid annotates outgoing dispatcher/worker RPCs with a
// correlation id so that retries of the same logical call can be tied
// together in logs on both ends of the connection.
package requestid

import (
	"context"

	"github.com/renstrom/shortuuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// MetadataKey is the gRPC metadata key carrying the request id. This matches
// the header opentelemetry collectors commonly look for.
const MetadataKey = "x-request-id"

// New generates a fresh request id.
func New() string {
	return shortuuid.New()
}

// FromOutgoingContext returns the request id attached to ctx, if any.
func FromOutgoingContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		return "", false
	}
	ids := md.Get(MetadataKey)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// AddToOutgoingContext returns a context derived from ctx carrying id in its
// outgoing gRPC metadata.
func AddToOutgoingContext(ctx context.Context, id string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataKey, id)
}

// UnaryClientInterceptor stamps every unary call with a fresh request id
// unless the caller already attached one.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := FromOutgoingContext(ctx); !ok {
			ctx = AddToOutgoingContext(ctx, New())
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor stamps every streaming call with a fresh request
// id unless the caller already attached one.
func StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		if _, ok := FromOutgoingContext(ctx); !ok {
			ctx = AddToOutgoingContext(ctx, New())
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}
