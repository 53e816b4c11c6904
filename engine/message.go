package engine

import (
	"encoding/json"
	"time"

	"github.com/keybasecrypt/discord-rpc-go/proto"
)

// MessageType tags the Message variants so callers can switch without a
// type assertion chain.
type MessageType int

const (
	MessageConnectionEstablished MessageType = iota
	MessageConnectionFailed
	MessageReady
	MessageClose
	MessageError
	MessagePresence
	MessageJoinRequest
	MessageJoin
	MessageSpectate
	MessageSubscribe
	MessageUnsubscribe
	MessageAuthorize
	MessageAuthenticate
	MessageVoiceSettings
)

// Message is what callers consume, either by polling the inbound queue
// (manual-events mode) or via callback on the worker goroutine (auto-events
// mode). Every variant embeds Base for its Type and creation timestamp.
type Message interface {
	Type() MessageType
	CreatedAt() time.Time
}

// Base is the common envelope every Message variant embeds; this is the
// "envelope, not inheritance" relationship the design notes call for.
type Base struct {
	MsgType   MessageType
	Timestamp time.Time
}

func newBase(t MessageType) Base {
	return Base{MsgType: t, Timestamp: time.Now()}
}

func (b Base) Type() MessageType    { return b.MsgType }
func (b Base) CreatedAt() time.Time { return b.Timestamp }

type ConnectionEstablished struct {
	Base
	Pipe int
}

type ConnectionFailed struct {
	Base
	Pipe int
}

type Ready struct {
	Base
	User          proto.User
	Configuration proto.Configuration
}

type Close struct {
	Base
	Code   int
	Reason string
}

// Error carries the server-error payload. It implements the error
// interface itself, and Unwrap exposes the underlying proto.Error so that
// errors.As(msg, &protoErr) works on a delivered *Error.
type Error struct {
	Base
	Code    int
	Message string
}

func (e *Error) Error() string {
	return proto.Error{Code: e.Code, Message: e.Message}.Error()
}

// Unwrap exposes the server error as a proto.Error for errors.As/errors.Is.
func (e *Error) Unwrap() error {
	return proto.Error{Code: e.Code, Message: e.Message}
}

type Presence struct {
	Base
	Presence json.RawMessage
}

type JoinRequest struct {
	Base
	User proto.User
	// Configuration is attached by the façade before delivery; it is the
	// Configuration most recently seen at READY, carried here so avatar
	// helpers can resolve the user's CDN asset without a second lookup.
	Configuration proto.Configuration
}

type Join struct {
	Base
	Secret string
}

type Spectate struct {
	Base
	Secret string
}

type Subscribe struct {
	Base
	Event proto.ServerEvent
}

type Unsubscribe struct {
	Base
	Event proto.ServerEvent
}

type Authorize struct {
	Base
	Code string
}

type Authenticate struct {
	Base
	User        proto.User
	Scopes      []string
	Expires     string
	Application proto.Application
}

type VoiceSettings struct {
	Base
	Settings json.RawMessage
}

func newConnectionEstablished(pipe int) *ConnectionEstablished {
	return &ConnectionEstablished{Base: newBase(MessageConnectionEstablished), Pipe: pipe}
}

func newConnectionFailed(pipe int) *ConnectionFailed {
	return &ConnectionFailed{Base: newBase(MessageConnectionFailed), Pipe: pipe}
}

func newReady(user proto.User, config proto.Configuration) *Ready {
	return &Ready{Base: newBase(MessageReady), User: user, Configuration: config}
}

func newClose(code int, reason string) *Close {
	return &Close{Base: newBase(MessageClose), Code: code, Reason: reason}
}

func newError(e proto.Error) *Error {
	return &Error{Base: newBase(MessageError), Code: e.Code, Message: e.Message}
}

func newPresence(data json.RawMessage) *Presence {
	return &Presence{Base: newBase(MessagePresence), Presence: data}
}

func newJoinRequest(user proto.User) *JoinRequest {
	return &JoinRequest{Base: newBase(MessageJoinRequest), User: user}
}

func newJoin(secret string) *Join {
	return &Join{Base: newBase(MessageJoin), Secret: secret}
}

func newSpectate(secret string) *Spectate {
	return &Spectate{Base: newBase(MessageSpectate), Secret: secret}
}

func newSubscribe(evt proto.ServerEvent) *Subscribe {
	return &Subscribe{Base: newBase(MessageSubscribe), Event: evt}
}

func newUnsubscribe(evt proto.ServerEvent) *Unsubscribe {
	return &Unsubscribe{Base: newBase(MessageUnsubscribe), Event: evt}
}

func newAuthorize(code string) *Authorize {
	return &Authorize{Base: newBase(MessageAuthorize), Code: code}
}

func newAuthenticate(resp proto.AuthenticateResponse) *Authenticate {
	return &Authenticate{
		Base:        newBase(MessageAuthenticate),
		User:        resp.User,
		Scopes:      resp.Scopes,
		Expires:     resp.Expires,
		Application: resp.Application,
	}
}

func newVoiceSettings(data json.RawMessage) *VoiceSettings {
	return &VoiceSettings{Base: newBase(MessageVoiceSettings), Settings: data}
}
