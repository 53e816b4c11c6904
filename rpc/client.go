// Package rpc is the public client façade: presence management, event
// subscription, the OAuth2 command shims, and voice-settings control, all
// driven through an engine.Engine.
package rpc

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/keybasecrypt/discord-rpc-go/engine"
	"github.com/keybasecrypt/discord-rpc-go/presence"
	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// Client is the host application's handle onto one Rich Presence
// connection. All operations are non-blocking; their effects are carried by
// the engine's outbound queue.
type Client struct {
	opts Options
	eng  *engine.Engine
	log  *zap.Logger
	pid  int

	initMu      sync.Mutex
	initialized atomic.Bool
	disposed    atomic.Bool
	runDone     chan struct{}

	mu              sync.Mutex
	currentPresence *presence.Activity
	subscriptions   EventFlags
	user            *proto.User
	configuration   *proto.Configuration
}

// New constructs a Client. It does not connect; call Initialize.
func New(opts Options) *Client {
	if opts.PID == 0 {
		opts.PID = os.Getpid()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DisposeTimeout <= 0 {
		opts.DisposeTimeout = 5 * time.Second
	}

	return &Client{
		opts:    opts,
		log:     opts.Logger,
		pid:     opts.PID,
		runDone: make(chan struct{}),
	}
}

// Initialize starts the worker and begins connecting. It returns
// ErrDisposed if the client was already disposed and ErrAlreadyInitialized
// if Initialize was already called.
func (c *Client) Initialize(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrDisposed
	}

	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized.Load() {
		return ErrAlreadyInitialized
	}

	if c.opts.URIScheme != nil {
		ok, err := c.opts.URIScheme.Register(c.opts.ClientID, c.opts.SteamAppID, c.opts.Executable)
		if err != nil {
			c.log.Warn("URI scheme registration failed", zap.Error(err))
		}
		c.opts.URIRegistered = ok
	}

	c.eng = engine.New(c.opts.toEngineOptions(c.handleMessage))

	// initialized is set only once c.eng is fully constructed: every other
	// method gates on initialized.Load() before touching c.eng, so this
	// ordering is what keeps those checks from ever observing a nil engine.
	c.initialized.Store(true)

	go func() {
		defer close(c.runDone)

		if err := c.eng.Run(ctx); err != nil {
			c.log.Error("engine run exited with error", zap.Error(err))
		}
	}()

	return nil
}

// Dispose is shutdown-then-abort: it requests the graceful farewell, gives
// Discord a bounded window to acknowledge it, then force-stops the worker
// so Dispose always returns once that window elapses. It is safe to call
// more than once.
func (c *Client) Dispose() error {
	if !c.initialized.Load() {
		return ErrNotInitialized
	}

	if c.disposed.Swap(true) {
		return nil
	}

	c.eng.Shutdown(c.pid)

	select {
	case <-time.After(c.opts.DisposeTimeout):
	case <-c.runDone:
	}

	c.eng.Abort()
	<-c.runDone

	return nil
}

func (c *Client) requireUsable() error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if !c.initialized.Load() {
		return ErrNotInitialized
	}
	return nil
}

// SetPresence sets (non-nil) or clears (nil) the current Rich Presence.
// When SkipIdenticalPresence is set and presence deep-equals the last one
// sent, the command is suppressed.
func (c *Client) SetPresence(activity *presence.Activity) error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	if activity != nil {
		if activity.HasSecrets() && !c.opts.URIRegistered {
			return ErrBadPresenceSecrets
		}
		if activity.PartySizeInverted() {
			return ErrBadPresencePartySize
		}
		if activity.HasSecrets() && !activity.HasParty() {
			c.log.Warn("presence has secrets but no party; join/spectate buttons will not display")
		}
	}

	c.mu.Lock()
	if c.opts.SkipIdenticalPresence && c.currentPresence.Equal(activity) {
		c.mu.Unlock()
		return nil
	}
	c.currentPresence = activity.Clone()
	c.mu.Unlock()

	return c.sendPresence(activity)
}

func (c *Client) sendPresence(activity *presence.Activity) error {
	var raw json.RawMessage

	if activity != nil {
		encoded, err := json.Marshal(activity)
		if err != nil {
			return err
		}
		raw = encoded
	}

	c.eng.Enqueue(proto.PresenceCommand{PID: c.pid, Activity: raw})

	return nil
}

// currentActivityClone returns a deep clone of the cached presence so
// Update helpers can patch a field without racing other callers.
func (c *Client) currentActivityClone() *presence.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentPresence == nil {
		return &presence.Activity{}
	}

	return c.currentPresence.Clone()
}

// UpdateState patches the `state` field of the cached presence and resends.
func (c *Client) UpdateState(state string) error {
	a := c.currentActivityClone()
	a.State = &state
	return c.SetPresence(a)
}

// UpdateDetails patches the `details` field of the cached presence and
// resends.
func (c *Client) UpdateDetails(details string) error {
	a := c.currentActivityClone()
	a.Details = &details
	return c.SetPresence(a)
}

// UpdateParty patches the party field of the cached presence and resends.
func (c *Client) UpdateParty(party *presence.Party) error {
	a := c.currentActivityClone()
	a.Party = party
	return c.SetPresence(a)
}

// UpdateTimestamps patches the timestamps field of the cached presence and
// resends.
func (c *Client) UpdateTimestamps(ts *presence.Timestamps) error {
	a := c.currentActivityClone()
	a.Timestamps = ts
	return c.SetPresence(a)
}

// UpdateAssets patches the assets field of the cached presence and resends.
func (c *Client) UpdateAssets(assets *presence.Assets) error {
	a := c.currentActivityClone()
	a.Assets = assets
	return c.SetPresence(a)
}

// UpdateSecrets patches the secrets field of the cached presence and
// resends.
func (c *Client) UpdateSecrets(secrets *presence.Secrets) error {
	a := c.currentActivityClone()
	a.Secrets = secrets
	return c.SetPresence(a)
}

// UpdateButtons patches the action buttons of the cached presence and
// resends.
func (c *Client) UpdateButtons(buttons []presence.Button) error {
	a := c.currentActivityClone()
	a.Buttons = buttons
	return c.SetPresence(a)
}

// Subscribe adds flags to the current subscription set, enqueuing a
// SUBSCRIBE command for every newly-added event.
func (c *Client) Subscribe(flags EventFlags) error {
	if err := c.requireUsable(); err != nil {
		return err
	}
	if !c.opts.URIRegistered {
		return ErrURISchemeNotRegistered
	}

	c.mu.Lock()
	current := c.subscriptions
	want := current | flags
	c.subscriptions = want
	c.mu.Unlock()

	toSubscribe, _ := diffSubscriptions(current, want)
	for _, evt := range toSubscribe {
		c.eng.Enqueue(proto.SubscribeCommand{Event: evt})
	}

	return nil
}

// Unsubscribe clears flags from the current subscription set, enqueuing an
// UNSUBSCRIBE command for every newly-removed event.
func (c *Client) Unsubscribe(flags EventFlags) error {
	if err := c.requireUsable(); err != nil {
		return err
	}
	if !c.opts.URIRegistered {
		return ErrURISchemeNotRegistered
	}

	c.mu.Lock()
	current := c.subscriptions
	want := current &^ flags
	c.subscriptions = want
	c.mu.Unlock()

	_, toUnsubscribe := diffSubscriptions(current, want)
	for _, evt := range toUnsubscribe {
		c.eng.Enqueue(proto.SubscribeCommand{Event: evt, Unsubscribe: true})
	}

	return nil
}

// Authorize begins the OAuth2 authorize handshake for clientID/scopes.
func (c *Client) Authorize(clientID string, scopes []string) error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	callID := uuid.NewString()
	c.log.Debug("authorize requested", zap.String("call_id", callID), zap.Strings("scopes", scopes))

	c.eng.Enqueue(proto.AuthorizeCommand{ClientID: clientID, Scopes: scopes})

	return nil
}

// Authenticate exchanges accessToken (obtained out-of-band via OAuthExchanger)
// for a user/scopes summary.
func (c *Client) Authenticate(accessToken string) error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	callID := uuid.NewString()
	c.log.Debug("authenticate requested", zap.String("call_id", callID))

	c.eng.Enqueue(proto.AuthenticateCommand{AccessToken: accessToken})

	return nil
}

// AuthenticateWithCode exchanges an OAuth2 authorization code for an access
// token via the configured OAuthExchanger, then calls Authenticate with the
// resulting token. It returns ErrOAuthExchangerNotConfigured if no
// OAuthExchanger was configured, since that is a misconfiguration the caller
// can fix before touching the connection.
func (c *Client) AuthenticateWithCode(code string) error {
	if err := c.requireUsable(); err != nil {
		return err
	}
	if c.opts.OAuth == nil {
		return ErrOAuthExchangerNotConfigured
	}

	accessToken, err := c.opts.OAuth.Exchange(code)
	if err != nil {
		return err
	}

	return c.Authenticate(accessToken)
}

// Respond answers a pending join request, accepting or declining it.
func (c *Client) Respond(userID string, accept bool) error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	callID := uuid.NewString()
	c.log.Debug("join response", zap.String("call_id", callID), zap.String("user_id", userID), zap.Bool("accept", accept))

	c.eng.Enqueue(proto.RespondCommand{UserID: userID, Accept: accept})

	return nil
}

// GetVoiceSettings requests the current voice settings.
func (c *Client) GetVoiceSettings() error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	c.eng.Enqueue(proto.GetVoiceSettingsCommand{})

	return nil
}

// SetVoiceSettings pushes new voice settings, an opaque caller-provided JSON
// document.
func (c *Client) SetVoiceSettings(settings json.RawMessage) error {
	if err := c.requireUsable(); err != nil {
		return err
	}

	c.eng.Enqueue(proto.SetVoiceSettingsCommand{Settings: settings})

	return nil
}

// Invoke drains the inbound queue and applies the message application
// rules, returning the messages delivered this call. It is only valid in
// manual-events mode.
func (c *Client) Invoke() ([]engine.Message, error) {
	if err := c.requireUsable(); err != nil {
		return nil, err
	}
	if c.opts.Mode != ModeManual {
		return nil, ErrAutoEventsForbidsInvoke
	}

	msgs := c.eng.Messages()
	for _, m := range msgs {
		c.handleMessage(m)
	}

	return msgs, nil
}

// handleMessage applies the message application rules, then (whether called
// from the worker goroutine in auto mode, or from Invoke in manual mode)
// passes the message through to the caller's event callback.
func (c *Client) handleMessage(msg engine.Message) {
	switch v := msg.(type) {
	case *engine.Ready:
		c.mu.Lock()
		user := v.User
		config := v.Configuration
		c.user = &user
		c.configuration = &config
		c.mu.Unlock()

		c.synchronizeState()

	case *engine.Presence:
		c.applyPresenceUpdate(v.Presence)

	case *engine.Subscribe:
		if flag, ok := flagForEvent(v.Event); ok {
			c.mu.Lock()
			c.subscriptions |= flag
			c.mu.Unlock()
		}

	case *engine.Unsubscribe:
		if flag, ok := flagForEvent(v.Event); ok {
			c.mu.Lock()
			c.subscriptions &^= flag
			c.mu.Unlock()
		}

	case *engine.JoinRequest:
		c.mu.Lock()
		if c.configuration != nil {
			v.Configuration = *c.configuration
		}
		c.mu.Unlock()
	}

	if c.opts.OnEvent != nil {
		c.opts.OnEvent(msg)
	}
}

func (c *Client) applyPresenceUpdate(raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		c.mu.Lock()
		c.currentPresence = nil
		c.mu.Unlock()
		return
	}

	var incoming presence.Activity
	if err := json.Unmarshal(raw, &incoming); err != nil {
		c.log.Error("failed to decode presence update", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.currentPresence = presence.MergeNonNil(c.currentPresence, &incoming)
	c.mu.Unlock()
}

// synchronizeState re-issues the current presence and, if the URI scheme is
// registered, re-applies the full subscription set. Called once per READY;
// no ordering guarantee survives a reconnect, so this is what restores it.
func (c *Client) synchronizeState() {
	c.mu.Lock()
	presenceToResend := c.currentPresence.Clone()
	subs := c.subscriptions
	c.mu.Unlock()

	_ = c.sendPresence(presenceToResend)

	if !c.opts.URIRegistered {
		return
	}

	for _, fe := range flagEvents {
		if subs.has(fe.flag) {
			c.eng.Enqueue(proto.SubscribeCommand{Event: fe.evt})
		}
	}
}
