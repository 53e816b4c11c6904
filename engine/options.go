package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/keybasecrypt/discord-rpc-go/backoff"
	"github.com/keybasecrypt/discord-rpc-go/ipcmetrics"
	"github.com/keybasecrypt/discord-rpc-go/transport"
)

// MessageMode selects how inbound messages reach the caller.
type MessageMode int

const (
	// ModeManual delivers messages only through the inbound queue; the
	// caller must drain it (façade's Invoke()).
	ModeManual MessageMode = iota
	// ModeAuto invokes OnMessage synchronously on the worker goroutine for
	// every inbound message; messages are not queued in this mode.
	ModeAuto
)

// Options configures an Engine. New fills in defaults for unset fields.
type Options struct {
	ClientID string
	Target   int // fixed endpoint index, or < 0 to probe 0..9

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	PollInterval     time.Duration

	BackoffMin time.Duration
	BackoffMax time.Duration

	OutboundQueueSize int

	// InboundQueueSize bounds the inbound message queue. Zero (the type's
	// natural unset value) is "use the default" (DefaultInboundQueueSize);
	// a negative value explicitly requests "never buffer" per spec §4.4
	// ("0 means never buffer; deliver only via callback"), the same way
	// Target uses a negative value to mean "probe" rather than "unset".
	// setDefaults translates both into the capacity queue.New expects,
	// where 0 is the "never buffer" sentinel.
	InboundQueueSize int

	Mode      MessageMode
	OnMessage func(Message)

	Transport transport.Transport // nil uses transport.NewPipeConn()
	Backoff   *backoff.Policy     // nil uses backoff.New(BackoffMin, BackoffMax)
	Logger    *zap.Logger         // nil uses zap.NewNop()
	Metrics   *ipcmetrics.Metrics // nil records nothing

	// OnQueueDrop, if set, is called whenever the outbound queue drops a
	// command to overflow. The engine always logs each drop at error level;
	// rpc.Client does not set this hook.
	OnQueueDrop func(dropped any)
}

// DefaultInboundQueueSize is the inbound queue capacity used when
// InboundQueueSize is left at its zero value.
const DefaultInboundQueueSize = 128

func (o *Options) setDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.OutboundQueueSize <= 0 {
		o.OutboundQueueSize = 512
	}
	switch {
	case o.InboundQueueSize == 0:
		o.InboundQueueSize = DefaultInboundQueueSize
	case o.InboundQueueSize < 0:
		o.InboundQueueSize = 0 // explicit "never buffer; deliver only via callback"
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
