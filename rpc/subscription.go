package rpc

import "github.com/keybasecrypt/discord-rpc-go/proto"

// EventFlags is a bitmask over the subscribable server events.
type EventFlags uint8

const (
	EventFlagJoin EventFlags = 1 << iota
	EventFlagSpectate
	EventFlagJoinRequest
)

func (f EventFlags) has(bit EventFlags) bool { return f&bit != 0 }

var flagEvents = []struct {
	flag EventFlags
	evt  proto.ServerEvent
}{
	{EventFlagJoin, proto.EventActivityJoin},
	{EventFlagSpectate, proto.EventActivitySpectate},
	{EventFlagJoinRequest, proto.EventActivityJoinRequest},
}

// diffSubscriptions returns the set-bit and clear-bit events needed to move
// from `current` to `want`.
func diffSubscriptions(current, want EventFlags) (toSubscribe, toUnsubscribe []proto.ServerEvent) {
	for _, fe := range flagEvents {
		wasOn := current.has(fe.flag)
		wantOn := want.has(fe.flag)

		switch {
		case wantOn && !wasOn:
			toSubscribe = append(toSubscribe, fe.evt)
		case !wantOn && wasOn:
			toUnsubscribe = append(toUnsubscribe, fe.evt)
		}
	}

	return toSubscribe, toUnsubscribe
}

func flagForEvent(evt proto.ServerEvent) (EventFlags, bool) {
	for _, fe := range flagEvents {
		if fe.evt == evt {
			return fe.flag, true
		}
	}

	return 0, false
}
