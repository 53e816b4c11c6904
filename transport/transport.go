package transport

import (
	"context"

	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// Transport is the abstract pipe transport the connection engine drives. A
// transport is owned exclusively by the engine for the lifetime of one
// connect attempt; it never retries internally, it only reports success or
// failure and lets the engine decide.
type Transport interface {
	// Connect attempts endpoint target when target >= 0, or probes
	// candidate endpoints 0..9 in order when target < 0, using the first
	// that accepts a connection. It returns the endpoint index that was
	// used.
	Connect(ctx context.Context, target int) (pipeIndex int, err error)

	// ReadFrame blocks for one poll window waiting for a complete frame.
	// It returns (frame, true) on success and (nil, false) if nothing
	// arrived within the window or the connection dropped; IsConnected
	// distinguishes the two after the call.
	ReadFrame(ctx context.Context) (*proto.RawFrame, bool)

	// WriteFrame writes a fully framed message and reports whether the
	// write succeeded.
	WriteFrame(ctx context.Context, frame *proto.RawFrame) bool

	IsConnected() bool
	Close() error
	Dispose()
}
