package ipcconfig

import "github.com/keybasecrypt/discord-rpc-go/rpc"

// ApplyTo overlays the loaded configuration onto opts. Every non-zero field
// of this Config overwrites the matching field of opts, including values the
// caller set before the call; zero-valued fields leave opts untouched.
// Target and SkipIdenticalPresence are always assigned.
func (c *Config) ApplyTo(opts *rpc.Options) {
	if c.ClientID != "" {
		opts.ClientID = c.ClientID
	}
	// Target always carries a meaningful value once loaded (defaults to -1,
	// "probe"), so unlike the other fields it is never left at a zero value
	// that should be treated as "unset".
	opts.Target = c.Target
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.HandshakeTimeout > 0 {
		opts.HandshakeTimeout = c.HandshakeTimeout
	}
	if c.PollInterval > 0 {
		opts.PollInterval = c.PollInterval
	}
	if c.BackoffMin > 0 {
		opts.BackoffMin = c.BackoffMin
	}
	if c.BackoffMax > 0 {
		opts.BackoffMax = c.BackoffMax
	}
	if c.OutboundQueueSize > 0 {
		opts.OutboundQueueSize = c.OutboundQueueSize
	}
	if c.InboundQueueSize > 0 {
		opts.InboundQueueSize = c.InboundQueueSize
	}

	opts.SkipIdenticalPresence = c.SkipIdenticalPresence
}
