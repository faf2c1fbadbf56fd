package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodec_RoundTripsMessages(t *testing.T) {
	c := jsonCodec{}
	req := &getTasksRequest{JobClientID: 42}

	data, err := c.Marshal(req)
	require.NoError(t, err)

	var got getTasksRequest
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, *req, got)
}

func TestJSONCodec_RegisteredUnderContentSubtype(t *testing.T) {
	assert.Equal(t, jsonCodecName, jsonCodec{}.Name())
	assert.NotNil(t, encoding.GetCodec(jsonCodecName))
}
