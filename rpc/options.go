package rpc

import (
	"time"

	"go.uber.org/zap"

	"github.com/keybasecrypt/discord-rpc-go/backoff"
	"github.com/keybasecrypt/discord-rpc-go/engine"
	"github.com/keybasecrypt/discord-rpc-go/ipcmetrics"
	"github.com/keybasecrypt/discord-rpc-go/transport"
)

// EventMode mirrors engine.MessageMode at the façade's public surface.
type EventMode = engine.MessageMode

const (
	ModeManual = engine.ModeManual
	ModeAuto   = engine.ModeAuto
)

// URIRegistrar registers the host application's URI scheme with the OS so
// join/spectate links can relaunch it. It is an external collaborator; the
// core only reads the resulting boolean.
type URIRegistrar interface {
	Register(appID string, steamAppID, executable *string) (bool, error)
}

// OAuthExchanger performs the out-of-band HTTPS OAuth2 code exchange that
// produces the access token later passed to Authenticate. The core never
// touches HTTP itself.
type OAuthExchanger interface {
	Exchange(code string) (accessToken string, err error)
}

// Options configures a Client.
type Options struct {
	ClientID string
	Target   int // fixed endpoint index 0..9, or < 0 to probe

	PID int // defaults to os.Getpid()

	SkipIdenticalPresence bool

	Mode    EventMode
	OnEvent func(engine.Message)

	URIScheme     URIRegistrar
	SteamAppID    *string
	Executable    *string
	OAuth         OAuthExchanger
	URIRegistered bool // set true once URIScheme.Register has succeeded; Initialize sets this itself when URIScheme is non-nil

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	PollInterval     time.Duration
	BackoffMin       time.Duration
	BackoffMax       time.Duration

	// DisposeTimeout bounds how long Dispose waits for Discord to
	// acknowledge the graceful farewell before force-stopping the worker.
	// Zero uses a 5-second default.
	DisposeTimeout time.Duration

	OutboundQueueSize int

	// InboundQueueSize follows engine.Options.InboundQueueSize's
	// convention: zero (unset) defaults to engine.DefaultInboundQueueSize,
	// negative explicitly requests "never buffer". In ModeManual that drops
	// every inbound message; ModeAuto never buffers and delivers through
	// OnEvent whatever this value is.
	InboundQueueSize int

	Transport transport.Transport
	Backoff   *backoff.Policy
	Logger    *zap.Logger
	Metrics   *ipcmetrics.Metrics
}

func (o *Options) toEngineOptions(onMessage func(engine.Message)) engine.Options {
	return engine.Options{
		ClientID:          o.ClientID,
		Target:            o.Target,
		DialTimeout:       o.DialTimeout,
		HandshakeTimeout:  o.HandshakeTimeout,
		PollInterval:      o.PollInterval,
		BackoffMin:        o.BackoffMin,
		BackoffMax:        o.BackoffMax,
		OutboundQueueSize: o.OutboundQueueSize,
		InboundQueueSize:  o.InboundQueueSize,
		Mode:              o.Mode,
		OnMessage:         onMessage,
		Transport:         o.Transport,
		Backoff:           o.Backoff,
		Logger:            o.Logger,
		Metrics:           o.Metrics,
	}
}
