package rpc

import (
	"context"
	"sync"

	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// fakeTransport is a minimal in-memory transport.Transport for façade tests;
// it never fails to connect and records every frame written to it.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	toEngine  chan *proto.RawFrame
	sent      []*proto.RawFrame
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{toEngine: make(chan *proto.RawFrame, 64)}
}

func (f *fakeTransport) Connect(ctx context.Context, target int) (int, error) {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return 0, nil
}

func (f *fakeTransport) ReadFrame(ctx context.Context) (*proto.RawFrame, bool) {
	select {
	case frame, ok := <-f.toEngine:
		if !ok {
			return nil, false
		}
		return frame, true
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
