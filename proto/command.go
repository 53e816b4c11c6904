package proto

import "encoding/json"

// OutboundCommand is the seam between a typed command variant and the wire
// envelope: each variant knows its own cmd and how to serialize its args.
// This replaces the source's command class hierarchy with a flat interface
// plus one struct per variant, per the rewrite's sum-type guidance.
type OutboundCommand interface {
	// PreparePayload builds the envelope to send for this command, given the
	// nonce the engine has allocated for it.
	PreparePayload(nonce string) (Envelope, error)
}

// SetActivityArgs is the args body of a SET_ACTIVITY command.
type SetActivityArgs struct {
	PID      int             `json:"pid"`
	Activity json.RawMessage `json:"activity,omitempty"`
}

// PresenceCommand sets or clears (activity == nil) the current presence.
type PresenceCommand struct {
	PID      int
	Activity json.RawMessage // nil clears the presence
}

func (c PresenceCommand) PreparePayload(nonce string) (Envelope, error) {
	args, err := json.Marshal(SetActivityArgs{PID: c.PID, Activity: c.Activity})
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Cmd: CommandSetActivity, Nonce: nonce, Args: args}, nil
}

// RespondArgs is shared by the accept and reject shapes of a join response.
type RespondArgs struct {
	UserID string `json:"user_id"`
}

// RespondCommand answers a pending ACTIVITY_JOIN_REQUEST.
type RespondCommand struct {
	UserID string
	Accept bool
}

func (c RespondCommand) PreparePayload(nonce string) (Envelope, error) {
	args, err := json.Marshal(RespondArgs{UserID: c.UserID})
	if err != nil {
		return Envelope{}, err
	}

	cmd := CommandCloseActivityJoinRequest
	if c.Accept {
		cmd = CommandSendActivityJoinInvite
	}

	return Envelope{Cmd: cmd, Nonce: nonce, Args: args}, nil
}

// SubscribeArgs is the args body of a SUBSCRIBE/UNSUBSCRIBE command.
type SubscribeArgs struct{}

// SubscribeCommand subscribes or unsubscribes from a single server event.
type SubscribeCommand struct {
	Event       ServerEvent
	Unsubscribe bool
}

func (c SubscribeCommand) PreparePayload(nonce string) (Envelope, error) {
	args, err := json.Marshal(SubscribeArgs{})
	if err != nil {
		return Envelope{}, err
	}

	cmd := CommandSubscribe
	if c.Unsubscribe {
		cmd = CommandUnsubscribe
	}

	evt := c.Event

	return Envelope{Cmd: cmd, Nonce: nonce, Args: args, Evt: &evt}, nil
}

// AuthorizeArgs is the args body of an AUTHORIZE command.
type AuthorizeArgs struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
}

// AuthorizeCommand begins the OAuth2 authorize handshake.
type AuthorizeCommand struct {
	ClientID string
	Scopes   []string
}

func (c AuthorizeCommand) PreparePayload(nonce string) (Envelope, error) {
	args, err := json.Marshal(AuthorizeArgs{ClientID: c.ClientID, Scopes: c.Scopes})
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Cmd: CommandAuthorize, Nonce: nonce, Args: args}, nil
}

// AuthenticateArgs is the args body of an AUTHENTICATE command.
type AuthenticateArgs struct {
	AccessToken string `json:"access_token"`
}

// AuthenticateCommand exchanges an access token for a user/scopes summary.
type AuthenticateCommand struct {
	AccessToken string
}

func (c AuthenticateCommand) PreparePayload(nonce string) (Envelope, error) {
	args, err := json.Marshal(AuthenticateArgs{AccessToken: c.AccessToken})
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{Cmd: CommandAuthenticate, Nonce: nonce, Args: args}, nil
}

// GetVoiceSettingsCommand requests the current voice settings; it carries no
// args.
type GetVoiceSettingsCommand struct{}

func (c GetVoiceSettingsCommand) PreparePayload(nonce string) (Envelope, error) {
	return Envelope{Cmd: CommandGetVoiceSettings, Nonce: nonce}, nil
}

// SetVoiceSettingsCommand pushes new voice settings; Settings is an opaque
// caller-provided JSON document (the voice-settings domain model is outside
// core scope).
type SetVoiceSettingsCommand struct {
	Settings json.RawMessage
}

func (c SetVoiceSettingsCommand) PreparePayload(nonce string) (Envelope, error) {
	return Envelope{Cmd: CommandSetVoiceSettings, Nonce: nonce, Args: c.Settings}, nil
}

// CloseSentinel is a marker value, never serialized through PreparePayload.
// The write-drain loop special-cases it: instead of a normal Frame, it sends
// the handshake-shaped farewell body under OpcodeClose (the "handwave") and
// never invokes PreparePayload on it.
type CloseSentinel struct{}

func (c CloseSentinel) PreparePayload(string) (Envelope, error) {
	return Envelope{}, nil
}
