package rpc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybasecrypt/discord-rpc-go/presence"
	"github.com/keybasecrypt/discord-rpc-go/proto"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}

	t.Fatal("condition not met within timeout")
}

func pushReady(ft *fakeTransport) {
	evt := proto.EventReady
	data, _ := json.Marshal(proto.ReadyData{
		V:      proto.RPCVersion,
		User:   proto.User{ID: "1", Username: "tester"},
		Config: proto.Configuration{CDNHost: "cdn.discordapp.com"},
	})

	env := proto.Envelope{Cmd: proto.CommandDispatch, Evt: &evt, Data: data}
	payload, _ := env.Marshal()

	ft.push(&proto.RawFrame{Opcode: proto.OpcodeFrame, Payload: payload})
}

func TestOperationsRequireInitialize(t *testing.T) {
	c := New(Options{ClientID: "cid"})

	assert.ErrorIs(t, c.SetPresence(nil), ErrNotInitialized)
	assert.ErrorIs(t, c.Subscribe(EventFlagJoin), ErrNotInitialized)
	assert.ErrorIs(t, c.Dispose(), ErrNotInitialized)
}

func TestSetPresenceRejectsSecretsWithoutURIRegistration(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	secret := "s"
	a := &presence.Activity{Secrets: &presence.Secrets{Join: &secret}}

	err := c.SetPresence(a)
	assert.ErrorIs(t, err, ErrBadPresenceSecrets)
}

func TestSetPresenceRejectsInvertedPartySize(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	current, max := 5, 2
	a := &presence.Activity{Party: &presence.Party{CurrentSize: &current, MaxSize: &max}}

	err := c.SetPresence(a)
	assert.ErrorIs(t, err, ErrBadPresencePartySize)
}

func TestSubscribeRequiresURIRegistered(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	err := c.Subscribe(EventFlagJoin)
	assert.ErrorIs(t, err, ErrURISchemeNotRegistered)
}

func TestUnsubscribeRequiresURIRegistered(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	err := c.Unsubscribe(EventFlagJoin)
	assert.ErrorIs(t, err, ErrURISchemeNotRegistered)
}

func TestSetPresenceEnqueuesFrameOnceConnected(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	waitFor(t, time.Second, func() bool {
		for _, f := range ft.sentFrames() {
			if f.Opcode == proto.OpcodeHandshake {
				return true
			}
		}
		return false
	})

	pushReady(ft)

	state := "hi"
	require.NoError(t, c.SetPresence(&presence.Activity{State: &state}))

	waitFor(t, time.Second, func() bool {
		for _, f := range ft.sentFrames() {
			if f.Opcode != proto.OpcodeFrame {
				continue
			}
			env, err := proto.UnmarshalEnvelope(f.Payload)
			if err == nil && env.Cmd == proto.CommandSetActivity {
				return true
			}
		}
		return false
	})
}

func TestSetPresenceSkipsIdenticalWhenConfigured(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{
		ClientID:              "cid",
		Transport:             ft,
		Mode:                  ModeManual,
		PollInterval:          5 * time.Millisecond,
		DisposeTimeout:        20 * time.Millisecond,
		SkipIdenticalPresence: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	state := "hi"
	require.NoError(t, c.SetPresence(&presence.Activity{State: &state}))
	require.NoError(t, c.SetPresence(&presence.Activity{State: &state}))

	count := 0
	for _, f := range ft.sentFrames() {
		if f.Opcode != proto.OpcodeFrame {
			continue
		}
		env, err := proto.UnmarshalEnvelope(f.Payload)
		if err == nil && env.Cmd == proto.CommandSetActivity {
			count++
		}
	}

	assert.LessOrEqual(t, count, 1)
}

type fakeURIRegistrar struct {
	ok       bool
	err      error
	gotAppID string
	gotSteam *string
	gotExec  *string
}

func (r *fakeURIRegistrar) Register(appID string, steamAppID, executable *string) (bool, error) {
	r.gotAppID = appID
	r.gotSteam = steamAppID
	r.gotExec = executable
	return r.ok, r.err
}

func TestInitializeRegistersURIScheme(t *testing.T) {
	ft := newFakeTransport()
	registrar := &fakeURIRegistrar{ok: true}
	c := New(Options{
		ClientID:       "cid",
		Transport:      ft,
		Mode:           ModeManual,
		PollInterval:   5 * time.Millisecond,
		DisposeTimeout: 20 * time.Millisecond,
		URIScheme:      registrar,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	assert.Equal(t, "cid", registrar.gotAppID)
	assert.True(t, c.opts.URIRegistered)

	// Registration having succeeded, a presence with secrets is now
	// accepted without ErrBadPresenceSecrets.
	secret := "s"
	err := c.SetPresence(&presence.Activity{Secrets: &presence.Secrets{Join: &secret}})
	assert.NoError(t, err)
}

type fakeOAuthExchanger struct {
	token string
	err   error
	code  string
}

func (e *fakeOAuthExchanger) Exchange(code string) (string, error) {
	e.code = code
	return e.token, e.err
}

func TestAuthenticateWithCodeExchangesThenAuthenticates(t *testing.T) {
	ft := newFakeTransport()
	exchanger := &fakeOAuthExchanger{token: "tok-123"}
	c := New(Options{
		ClientID:       "cid",
		Transport:      ft,
		Mode:           ModeManual,
		PollInterval:   5 * time.Millisecond,
		DisposeTimeout: 20 * time.Millisecond,
		OAuth:          exchanger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	require.NoError(t, c.AuthenticateWithCode("auth-code"))
	assert.Equal(t, "auth-code", exchanger.code)

	// Queued commands are only written once the connection reaches READY.
	pushReady(ft)

	waitFor(t, time.Second, func() bool {
		for _, f := range ft.sentFrames() {
			if f.Opcode != proto.OpcodeFrame {
				continue
			}
			env, err := proto.UnmarshalEnvelope(f.Payload)
			if err == nil && env.Cmd == proto.CommandAuthenticate {
				return true
			}
		}
		return false
	})
}

func TestAuthenticateWithCodeRequiresExchanger(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))
	defer c.Dispose()

	err := c.AuthenticateWithCode("auth-code")
	assert.ErrorIs(t, err, ErrOAuthExchangerNotConfigured)
}

func TestDisposeIsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	c := New(Options{ClientID: "cid", Transport: ft, Mode: ModeManual, PollInterval: 5 * time.Millisecond, DisposeTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Initialize(ctx))

	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())
}
