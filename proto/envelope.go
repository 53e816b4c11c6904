package proto

import "encoding/json"

// RPCVersion is the handshake protocol version this client speaks.
const RPCVersion = 1

// Command identifies the cmd field of a command/dispatch envelope.
type Command string

const (
	CommandDispatch                 Command = "DISPATCH"
	CommandSetActivity              Command = "SET_ACTIVITY"
	CommandSendActivityJoinInvite   Command = "SEND_ACTIVITY_JOIN_INVITE"
	CommandCloseActivityJoinRequest Command = "CLOSE_ACTIVITY_JOIN_REQUEST"
	CommandSubscribe                Command = "SUBSCRIBE"
	CommandUnsubscribe              Command = "UNSUBSCRIBE"
	CommandAuthorize                Command = "AUTHORIZE"
	CommandAuthenticate             Command = "AUTHENTICATE"
	CommandGetVoiceSettings         Command = "GET_VOICE_SETTINGS"
	CommandSetVoiceSettings         Command = "SET_VOICE_SETTINGS"
)

// ServerEvent identifies the evt field, present on dispatch frames and on
// error/subscription acknowledgements.
type ServerEvent string

const (
	EventReady               ServerEvent = "READY"
	EventError               ServerEvent = "ERROR"
	EventActivityJoin        ServerEvent = "ACTIVITY_JOIN"
	EventActivitySpectate    ServerEvent = "ACTIVITY_SPECTATE"
	EventActivityJoinRequest ServerEvent = "ACTIVITY_JOIN_REQUEST"
)

// HandshakeBody is sent exactly once per connection, immediately after
// transport connect, framed with OpcodeHandshake.
type HandshakeBody struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

// ClosePayload decodes the body of an OpcodeClose frame.
type ClosePayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the JSON shape of every Frame-opcode payload, in both
// directions: `{"cmd","nonce","args","evt"}` outbound, plus "data" inbound.
// Deserialization tolerates unknown fields; unset fields are omitted on
// encode.
type Envelope struct {
	Cmd   Command         `json:"cmd"`
	Nonce string          `json:"nonce,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
	Evt   *ServerEvent    `json:"evt,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes the envelope to its wire JSON form.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope decodes a Frame payload into an Envelope, tolerating
// unknown fields.
func UnmarshalEnvelope(payload []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return Envelope{}, err
	}

	return e, nil
}
