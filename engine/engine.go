// Package engine implements the RPC connection engine: the background
// worker that owns the framed transport, drives the protocol state machine,
// and demultiplexes inbound frames into Messages.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/keybasecrypt/discord-rpc-go/backoff"
	"github.com/keybasecrypt/discord-rpc-go/ipcmetrics"
	"github.com/keybasecrypt/discord-rpc-go/proto"
	"github.com/keybasecrypt/discord-rpc-go/queue"
	"github.com/keybasecrypt/discord-rpc-go/transport"
)

// Engine owns the worker goroutine, the outbound/inbound queues, and the
// protocol state machine for one logical connection to a local Discord
// client. Construct with New and start the worker with Run.
type Engine struct {
	opts Options

	transport transport.Transport
	backoff   *backoff.Policy
	log       *zap.Logger

	outbound *queue.Queue[proto.OutboundCommand]
	inbound  *queue.Queue[Message]

	state         stateBox
	configuration atomic.Value // proto.Configuration

	nonce atomic.Uint64

	abort    atomic.Bool
	shutdown atomic.Bool
	wake     chan struct{}

	connectedPipe atomic.Int64

	run atomic.Bool
}

var errAlreadyRunning = fmt.Errorf("engine: already running")

// New constructs an Engine. It does not start the worker; call Run.
func New(opts Options) *Engine {
	opts.setDefaults()

	tp := opts.Transport
	if tp == nil {
		tp = transport.NewPipeConn()
	}

	bo := opts.Backoff
	if bo == nil {
		bo = backoff.New(opts.BackoffMin, opts.BackoffMax)
	}

	e := &Engine{
		opts:      opts,
		transport: tp,
		backoff:   bo,
		log:       opts.Logger,
		outbound: queue.New[proto.OutboundCommand](opts.OutboundQueueSize, func(dropped any) {
			opts.Logger.Error("outbound queue overflow, dropping oldest command", zap.Any("dropped", dropped))
			opts.Metrics.QueueDropped(ipcmetrics.QueueOutbound)
			if opts.OnQueueDrop != nil {
				opts.OnQueueDrop(dropped)
			}
		}),
		inbound: queue.New[Message](opts.InboundQueueSize, func(dropped any) {
			opts.Logger.Warn("inbound queue overflow, dropping oldest message")
			opts.Metrics.QueueDropped(ipcmetrics.QueueInbound)
		}),
	}
	e.connectedPipe.Store(-1)
	e.wake = make(chan struct{}, 1)

	return e
}

func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Enqueue pushes a command onto the outbound queue for the worker to
// transmit. It never blocks.
func (e *Engine) Enqueue(cmd proto.OutboundCommand) {
	if e.abort.Load() || e.shutdown.Load() {
		return
	}

	e.outbound.Push(cmd)
}

// Messages drains and returns every message queued since the last call
// (manual-events mode).
func (e *Engine) Messages() []Message {
	return e.inbound.DrainAll()
}

// deliver routes one produced message either to the OnMessage callback
// (auto-events mode, invoked synchronously on the worker goroutine) or to
// the inbound queue for the caller to drain later (manual-events mode).
func (e *Engine) deliver(msg Message) {
	if e.opts.Mode == ModeAuto {
		if e.opts.OnMessage != nil {
			e.opts.OnMessage(msg)
		}
		return
	}

	e.inbound.Push(msg)
}

// State reports the current protocol state.
func (e *Engine) State() State {
	return e.state.Get()
}

func (e *Engine) setState(s State) {
	e.state.Set(s)
	e.opts.Metrics.SetState(int(s))
}

// Configuration returns the configuration attached at the last READY, if
// any.
func (e *Engine) Configuration() (proto.Configuration, bool) {
	v := e.configuration.Load()
	if v == nil {
		return proto.Configuration{}, false
	}

	return v.(proto.Configuration), true
}

// Shutdown requests a graceful close: clear the outbound queue, enqueue a
// clear-presence command and the close sentinel, and let the worker hand
// Discord the farewell before it exits. Shutdown does not block; the worker
// exits on its own once Discord closes the pipe.
func (e *Engine) Shutdown(pid int) {
	if e.shutdown.Swap(true) {
		return
	}

	e.outbound.Clear()
	e.outbound.Push(proto.PresenceCommand{PID: pid, Activity: nil})
	e.outbound.Push(proto.CloseSentinel{})
}

// Abort hard-stops the engine: remaining commands are dropped, the
// transport is closed, and the worker exits at its next suspension point.
func (e *Engine) Abort() {
	e.abort.Store(true)
	e.signalWake()
}

// Run starts the worker and blocks until it exits (on abort, or on ctx
// cancellation). It returns errAlreadyRunning if called twice.
func (e *Engine) Run(ctx context.Context) error {
	if e.run.Swap(true) {
		return errAlreadyRunning
	}

	eg, eCtx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	eg.Go(func() error {
		select {
		case <-eCtx.Done():
			e.Abort()
		case <-stopped:
		}
		return nil
	})

	eg.Go(func() error {
		defer close(stopped)
		return e.workerLoop(eCtx)
	})

	return eg.Wait()
}

func (e *Engine) nextNonce() string {
	return strconv.FormatUint(e.nonce.Inc(), 10)
}

// workerLoop is the outer keep-alive loop: connect, handshake, run the
// inner loop, reconnect with backoff, until abort or a non-reconnecting
// shutdown.
func (e *Engine) workerLoop(ctx context.Context) error {
	for {
		if e.abort.Load() {
			return nil
		}

		if e.transport == nil {
			e.abort.Store(true)
			return nil
		}

		target := e.opts.Target

		connCtx, cancel := context.WithTimeout(ctx, e.opts.DialTimeout)
		pipe, err := e.transport.Connect(connCtx, target)
		cancel()

		if err != nil {
			e.opts.Metrics.ReconnectAttempted()
			e.deliver(newConnectionFailed(pipe))
			e.log.Info("connect failed, backing off", zap.Error(err))

			if !e.sleepBackoff(ctx) {
				return nil
			}

			continue
		}

		e.connectedPipe.Store(int64(pipe))
		e.deliver(newConnectionEstablished(pipe))

		handshake, err := json.Marshal(proto.HandshakeBody{V: proto.RPCVersion, ClientID: e.opts.ClientID})
		if err != nil {
			e.abort.Store(true)
			return err
		}

		handshakeCtx, hCancel := context.WithTimeout(ctx, e.opts.HandshakeTimeout)
		ok := e.transport.WriteFrame(handshakeCtx, &proto.RawFrame{Opcode: proto.OpcodeHandshake, Payload: handshake})
		hCancel()

		if !ok {
			_ = e.transport.Close()
			e.setState(StateDisconnected)

			if !e.sleepBackoff(ctx) {
				return nil
			}

			continue
		}

		e.setState(StateConnecting)

		e.innerLoop(ctx)

		_ = e.transport.Close()
		e.setState(StateDisconnected)

		if e.abort.Load() {
			return nil
		}

		if e.shutdown.Load() {
			// Either Discord confirmed the handwave, or the pipe broke
			// before it could: either way shutdown never reconnects.
			return nil
		}

		if !e.sleepBackoff(ctx) {
			return nil
		}
	}
}

func (e *Engine) sleepBackoff(ctx context.Context) bool {
	delay := e.backoff.NextDelay()

	select {
	case <-time.After(delay):
		return true
	case <-e.wake:
		return !e.abort.Load()
	case <-ctx.Done():
		return false
	}
}

// innerLoop runs while the connection is live; it returns false once the
// connection should not be retried within this workerLoop iteration (a
// normal read/dispatch loop exit always returns to the outer loop, which
// decides reconnect vs. terminal exit based on abort/shutdown).
func (e *Engine) innerLoop(ctx context.Context) bool {
	mainloop := true

	for mainloop && !e.abort.Load() && e.transport.IsConnected() {
		frame, ok := e.transport.ReadFrame(ctx)
		if ok {
			e.opts.Metrics.FrameReceived()
			mainloop = e.dispatchFrame(ctx, frame)
		}

		if e.transport.IsConnected() && !e.abort.Load() {
			e.writeDrain(ctx)
		}

		if !mainloop {
			break
		}

		select {
		case <-e.outbound.Updated():
		case <-e.inbound.Updated():
		case <-e.wake:
		case <-time.After(e.opts.PollInterval):
		case <-ctx.Done():
			return false
		}
	}

	return mainloop
}

// dispatchFrame handles one inbound frame and reports whether the inner
// loop should keep running.
func (e *Engine) dispatchFrame(ctx context.Context, frame *proto.RawFrame) bool {
	switch frame.Opcode {
	case proto.OpcodeClose:
		var payload proto.ClosePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			e.log.Error("failed to decode close payload", zap.Error(err))
		}

		e.deliver(newClose(payload.Code, payload.Message))

		return false

	case proto.OpcodePing:
		e.transport.WriteFrame(ctx, &proto.RawFrame{Opcode: proto.OpcodePong, Payload: frame.Payload})
		return true

	case proto.OpcodePong:
		return true

	case proto.OpcodeFrame:
		if e.shutdown.Load() {
			return true
		}

		return e.dispatchCommandFrame(frame.Payload)

	default:
		// Handshake from the peer, or a genuinely unknown opcode: desync.
		e.log.Error("protocol error: unexpected opcode from peer", zap.Stringer("opcode", frame.Opcode))
		return false
	}
}

func (e *Engine) dispatchCommandFrame(payload []byte) bool {
	env, err := proto.UnmarshalEnvelope(payload)
	if err != nil {
		e.log.Error("failed to decode frame payload, dropping", zap.Error(err))
		return true
	}

	if e.state.Get() == StateConnecting {
		if env.Evt != nil && *env.Evt == proto.EventReady && env.Cmd == proto.CommandDispatch {
			var ready proto.ReadyData
			if err := json.Unmarshal(env.Data, &ready); err != nil {
				e.log.Error("failed to decode READY payload", zap.Error(err))
				return true
			}

			e.configuration.Store(ready.Config)
			e.setState(StateConnected)
			e.backoff.Reset()
			e.deliver(newReady(ready.User, ready.Config))

			return true
		}

		e.log.Debug("ignoring frame while connecting", zap.String("cmd", string(env.Cmd)))
		return true
	}

	if e.state.Get() != StateConnected {
		return true
	}

	if env.Evt != nil && *env.Evt == proto.EventError {
		var errBody proto.Error
		if err := json.Unmarshal(env.Data, &errBody); err != nil {
			e.log.Error("failed to decode error payload", zap.Error(err))
			return true
		}

		e.deliver(newError(errBody))
		return true
	}

	e.routeResponse(env)

	return true
}

// routeResponse dispatches on payload.cmd while Connected.
func (e *Engine) routeResponse(env proto.Envelope) {
	switch env.Cmd {
	case proto.CommandDispatch:
		if env.Evt == nil {
			e.log.Debug("dispatch with no evt, dropping")
			return
		}

		switch *env.Evt {
		case proto.EventActivityJoin:
			var data proto.SecretData
			if err := json.Unmarshal(env.Data, &data); err == nil {
				e.deliver(newJoin(data.Secret))
			}
		case proto.EventActivitySpectate:
			var data proto.SecretData
			if err := json.Unmarshal(env.Data, &data); err == nil {
				e.deliver(newSpectate(data.Secret))
			}
		case proto.EventActivityJoinRequest:
			var data proto.JoinRequestData
			if err := json.Unmarshal(env.Data, &data); err == nil {
				e.deliver(newJoinRequest(data.User))
			}
		default:
			e.log.Debug("unhandled dispatch event", zap.String("evt", string(*env.Evt)))
		}

	case proto.CommandAuthorize:
		var resp proto.AuthorizeResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			e.log.Error("failed to decode authorize response", zap.Error(err))
			return
		}
		e.deliver(newAuthorize(resp.Code))

	case proto.CommandAuthenticate:
		var resp proto.AuthenticateResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			e.log.Error("failed to decode authenticate response", zap.Error(err))
			return
		}
		e.deliver(newAuthenticate(resp))

	case proto.CommandSetActivity:
		e.deliver(newPresence(env.Data))

	case proto.CommandGetVoiceSettings, proto.CommandSetVoiceSettings:
		e.deliver(newVoiceSettings(env.Data))

	case proto.CommandSubscribe:
		if env.Evt != nil {
			e.deliver(newSubscribe(*env.Evt))
		}

	case proto.CommandUnsubscribe:
		if env.Evt != nil {
			e.deliver(newUnsubscribe(*env.Evt))
		}

	case proto.CommandSendActivityJoinInvite, proto.CommandCloseActivityJoinRequest:
		e.log.Debug("join response acknowledged", zap.String("cmd", string(env.Cmd)))

	default:
		e.log.Debug("unknown response cmd, dropping", zap.String("cmd", string(env.Cmd)))
	}
}

// writeDrain transmits queued outbound commands while connected, one at a
// time, stopping at the first write failure or at the
// close sentinel.
func (e *Engine) writeDrain(ctx context.Context) {
	for e.transport.IsConnected() && e.state.Get() == StateConnected {
		head, ok := e.outbound.PeekFront()
		if !ok {
			return
		}

		if _, isClose := head.(proto.CloseSentinel); isClose {
			e.writeHandwave(ctx)
			e.outbound.PopFront()
			return
		}

		if e.abort.Load() {
			e.outbound.PopFront()
			continue
		}

		nonce := e.nextNonce()

		env, err := head.PreparePayload(nonce)
		if err != nil {
			e.log.Error("failed to prepare command payload, dropping", zap.Error(err))
			e.outbound.PopFront()
			continue
		}

		body, err := env.Marshal()
		if err != nil {
			e.log.Error("failed to marshal command envelope, dropping", zap.Error(err))
			e.outbound.PopFront()
			continue
		}

		if !e.transport.WriteFrame(ctx, &proto.RawFrame{Opcode: proto.OpcodeFrame, Payload: body}) {
			// Leave it at the head; the outer loop will reconnect and retry.
			return
		}

		e.opts.Metrics.FrameSent()
		e.outbound.PopFront()
	}
}

// writeHandwave sends the farewell frame: the handshake body, framed under
// OpcodeClose.
func (e *Engine) writeHandwave(ctx context.Context) {
	body, err := json.Marshal(proto.HandshakeBody{V: proto.RPCVersion, ClientID: e.opts.ClientID})
	if err != nil {
		e.log.Error("failed to marshal handwave body", zap.Error(err))
		return
	}

	e.transport.WriteFrame(ctx, &proto.RawFrame{Opcode: proto.OpcodeClose, Payload: body})
}

// ConnectedPipe reports the endpoint index currently in use, or -1 if not
// connected.
func (e *Engine) ConnectedPipe() int {
	return int(e.connectedPipe.Load())
}
