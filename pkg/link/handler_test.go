package link

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameMux(t *testing.T) {
	var routed []string
	handler := func(name string) FrameHandler {
		return HandleFrameFunc(func(ctx context.Context, f *Frame, reply *Frame) bool {
			routed = append(routed, name)
			return name == "text"
		})
	}
	mux := NewFrameMux().Handle(handler("text"), 'T', 't')
	reply := NewOwnedFrame(0, 8)
	ctx := context.Background()

	require.True(t, mux.HandleFrame(ctx, NewOwnedFrame('T', 8), reply))
	require.False(t, mux.HandleFrame(ctx, NewOwnedFrame(0x01, 8), reply))
	mux.Default = handler("default")
	require.False(t, mux.HandleFrame(ctx, NewOwnedFrame(0x01, 8), reply))
	require.True(t, mux.HandleFrame(ctx, NewOwnedFrame('t', 8), reply))
	require.Equal(t, []string{"text", "default", "text"}, routed)
}
