package presence

import "encoding/json"

// activityJSONEqual compares two activities by their wire representation,
// which is the same notion of "identical" SET_ACTIVITY dedup cares about:
// two presences that would produce the same JSON are the same presence.
func activityJSONEqual(a, b *Activity) bool {
	aj, aErr := json.Marshal(a)
	bj, bErr := json.Marshal(b)
	if aErr != nil || bErr != nil {
		return false
	}

	return string(aj) == string(bj)
}
