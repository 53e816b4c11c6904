package engine

import (
	"context"
	"sync"

	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// fakeTransport is an in-memory stand-in for transport.Transport, driven by
// the test through toEngine/Sent rather than a real pipe or socket.
type fakeTransport struct {
	connectErr error
	pipeIndex  int

	mu        sync.Mutex
	connected bool
	toEngine  chan *proto.RawFrame
	sent      []*proto.RawFrame
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{toEngine: make(chan *proto.RawFrame, 64)}
}

func (f *fakeTransport) Connect(ctx context.Context, target int) (int, error) {
	if f.connectErr != nil {
		return -1, f.connectErr
	}

	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()

	return f.pipeIndex, nil
}

func (f *fakeTransport) ReadFrame(ctx context.Context) (*proto.RawFrame, bool) {
	select {
	case frame, ok := <-f.toEngine:
		if !ok {
			return nil, false
		}
		return frame, true
	case <-ctx.Done():
		return nil, false
	default:
		return nil, false
	}
}

func (f *fakeTransport) WriteFrame(ctx context.Context, frame *proto.RawFrame) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return false
	}

	f.sent = append(f.sent, frame)
	return true
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Dispose() {}

func (f *fakeTransport) push(frame *proto.RawFrame) {
	f.toEngine <- frame
}

func (f *fakeTransport) sentFrames() []*proto.RawFrame {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*proto.RawFrame, len(f.sent))
	copy(out, f.sent)
	return out
}
