package proto

import "encoding/json"

// ReadyData is the `data` body of the DISPATCH/READY frame that completes
// the handshake.
type ReadyData struct {
	V      int           `json:"v"`
	Config Configuration `json:"config"`
	User   User          `json:"user"`
}

// Configuration arrives with READY and is attached to user-avatar helpers.
type Configuration struct {
	CDNHost     string `json:"cdn_host"`
	APIEndpoint string `json:"api_endpoint"`
}

// User is the Discord user summary carried by READY/AUTHENTICATE/join
// events.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar,omitempty"`
}

// JoinRequestData is the `data` body of an ACTIVITY_JOIN_REQUEST dispatch.
type JoinRequestData struct {
	User User `json:"user"`
}

// SecretData is the `data` body of ACTIVITY_JOIN / ACTIVITY_SPECTATE
// dispatches.
type SecretData struct {
	Secret string `json:"secret"`
}

// AuthorizeResponse is the `data` body of an AUTHORIZE reply.
type AuthorizeResponse struct {
	Code string `json:"code"`
}

// Application is the `application` sub-object of an AUTHENTICATE reply.
type Application struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
	ID          string `json:"id"`
	Name        string `json:"name"`
}

// AuthenticateResponse is the `data` body of an AUTHENTICATE reply.
type AuthenticateResponse struct {
	User        User        `json:"user"`
	Scopes      []string    `json:"scopes"`
	Expires     string      `json:"expires"`
	Application Application `json:"application"`
}

// SubscribeResponse is the `data`/`evt` ack of a SUBSCRIBE/UNSUBSCRIBE.
type SubscribeResponse struct {
	Evt ServerEvent `json:"evt"`
}

// RichPresenceResponse is the echoed `data` body of a SET_ACTIVITY reply; it
// is null when the presence was cleared.
type RichPresenceResponse = json.RawMessage

// VoiceSettingsResponse is the `data` body of a GET/SET_VOICE_SETTINGS
// reply. The voice-settings domain model itself is outside core scope, so
// it is carried as an opaque document.
type VoiceSettingsResponse = json.RawMessage
