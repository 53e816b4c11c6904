package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// candidateCount is the number of well-known local endpoints Discord may be
// listening on (Stable, PTB, Canary, ...).
const candidateCount = 10

// defaultPollInterval bounds how long ReadFrame blocks before reporting
// "nothing arrived" when the peer is idle.
const defaultPollInterval = 500 * time.Millisecond

// PipeConn is the concrete Transport backed by a net.Conn: a Windows named
// pipe or a UNIX domain socket, chosen by the platform-specific openConn.
type PipeConn struct {
	pollInterval time.Duration

	mu            sync.Mutex
	conn          net.Conn
	connectedPipe int

	connected atomic.Bool
}

// NewPipeConn returns an unconnected PipeConn; callers must call Connect
// before Read/WriteFrame.
func NewPipeConn() *PipeConn {
	return &PipeConn{pollInterval: defaultPollInterval, connectedPipe: -1}
}

func (c *PipeConn) Connect(ctx context.Context, target int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if target >= 0 {
		conn, err := openConn(ctx, target)
		if err != nil {
			return -1, err
		}

		c.conn = conn
		c.connectedPipe = target
		c.connected.Store(true)

		return target, nil
	}

	var lastErr error

	for i := 0; i < candidateCount; i++ {
		conn, err := openConn(ctx, i)
		if err != nil {
			lastErr = err
			continue
		}

		c.conn = conn
		c.connectedPipe = i
		c.connected.Store(true)

		return i, nil
	}

	if lastErr == nil {
		lastErr = errors.New("transport: no candidate endpoint accepted a connection")
	}

	return -1, lastErr
}

func (c *PipeConn) ReadFrame(ctx context.Context) (*proto.RawFrame, bool) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, false
	}

	deadline := time.Now().Add(c.pollInterval)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		c.markDisconnected()
		return nil, false
	}

	header := make([]byte, proto.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		if isTimeout(err) {
			return nil, false
		}

		c.markDisconnected()
		return nil, false
	}

	opcode, length, err := proto.DecodeHeader(header)
	if err != nil {
		c.markDisconnected()
		return nil, false
	}

	if !opcode.Valid() {
		// Desync: surface as a frame so the engine can decide to terminate;
		// it still must drain `length` bytes to keep the stream aligned,
		// but a misbehaving peer that lies about length has already broken
		// the stream, so we don't try to recover further here.
		payload := make([]byte, length)
		_, _ = io.ReadFull(conn, payload)
		return &proto.RawFrame{Opcode: opcode, Payload: payload}, true
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(conn, payload); err != nil {
			c.markDisconnected()
			return nil, false
		}
	}

	return &proto.RawFrame{Opcode: opcode, Payload: payload}, true
}

func (c *PipeConn) WriteFrame(ctx context.Context, frame *proto.RawFrame) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return false
	}

	buf, err := proto.Encode(frame.Opcode, frame.Payload)
	if err != nil {
		return false
	}

	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		c.markDisconnected()
		return false
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			c.markDisconnected()
			return false
		}
	}

	if _, err := conn.Write(buf); err != nil {
		c.markDisconnected()
		return false
	}

	return true
}

func (c *PipeConn) IsConnected() bool {
	return c.connected.Load()
}

func (c *PipeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected.Store(false)

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

func (c *PipeConn) Dispose() {
	_ = c.Close()
}

func (c *PipeConn) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected.Store(false)

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
