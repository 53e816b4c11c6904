package proto

import "strconv"

// Error is the `data` body of an envelope whose evt is EventError (§4.5.1)
// — the server-error payload Discord sends in reply to a bad command.
// engine.Error unwraps to one of these so callers can errors.As against it.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return "discord code " + strconv.Itoa(e.Code) + ": " + e.Message
}
