// Package presence is the Rich Presence domain model serialized by
// SET_ACTIVITY commands: validation, cloning, and merge-on-update
// semantics for the activity the façade sends to Discord.
package presence

// Timestamps marks when an activity started and/or will end, both as Unix
// seconds.
type Timestamps struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Assets names the large/small images and their hover text shown alongside
// an activity.
type Assets struct {
	LargeImage *string `json:"large_image,omitempty"`
	LargeText  *string `json:"large_text,omitempty"`
	SmallImage *string `json:"small_image,omitempty"`
	SmallText  *string `json:"small_text,omitempty"`
}

// Party describes the group the user is playing with.
type Party struct {
	ID          *string `json:"id,omitempty"`
	CurrentSize *int    `json:"current_size,omitempty"`
	MaxSize     *int    `json:"max_size,omitempty"`
}

// Secrets carry the join/spectate tokens Discord hands back to other users
// who click the activity's action buttons.
type Secrets struct {
	Join     *string `json:"join,omitempty"`
	Spectate *string `json:"spectate,omitempty"`
	Match    *string `json:"match,omitempty"`
}

// Button is one of up to two action buttons rendered on the activity card.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Activity is the full Rich Presence document sent as the `activity` field
// of a SET_ACTIVITY command.
type Activity struct {
	State      *string     `json:"state,omitempty"`
	Details    *string     `json:"details,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Party      *Party      `json:"party,omitempty"`
	Secrets    *Secrets    `json:"secrets,omitempty"`
	Instance   *bool       `json:"instance,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// HasSecrets reports whether any join/spectate/match secret is set.
func (a *Activity) HasSecrets() bool {
	if a == nil || a.Secrets == nil {
		return false
	}

	s := a.Secrets

	return s.Join != nil || s.Spectate != nil || s.Match != nil
}

// HasParty reports whether party membership is set.
func (a *Activity) HasParty() bool {
	return a != nil && a.Party != nil
}

// PartySizeInverted reports whether the party's max size is smaller than its
// current size, the one invariant SET_ACTIVITY validation rejects.
func (a *Activity) PartySizeInverted() bool {
	if !a.HasParty() {
		return false
	}

	p := a.Party
	if p.MaxSize == nil || p.CurrentSize == nil {
		return false
	}

	return *p.MaxSize < *p.CurrentSize
}

// Clone deep-copies the activity so callers can mutate the copy without
// racing the cached value the façade keeps.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}

	clone := *a

	clone.State = clonePtr(a.State)
	clone.Details = clonePtr(a.Details)
	clone.Instance = clonePtr(a.Instance)
	clone.Timestamps = a.Timestamps.Clone()
	clone.Assets = a.Assets.Clone()
	clone.Party = a.Party.Clone()
	clone.Secrets = a.Secrets.Clone()
	if a.Buttons != nil {
		clone.Buttons = append([]Button(nil), a.Buttons...)
	}

	return &clone
}

// MergeNonNil returns a clone of base with every non-nil field of patch
// overlaid on top, field-wise (no partial in-place mutation).
func MergeNonNil(base, patch *Activity) *Activity {
	if patch == nil {
		return base.Clone()
	}
	if base == nil {
		return patch.Clone()
	}

	merged := base.Clone()

	if patch.State != nil {
		merged.State = patch.State
	}
	if patch.Details != nil {
		merged.Details = patch.Details
	}
	if patch.Timestamps != nil {
		merged.Timestamps = patch.Timestamps.Clone()
	}
	if patch.Assets != nil {
		merged.Assets = patch.Assets.Clone()
	}
	if patch.Party != nil {
		merged.Party = patch.Party.Clone()
	}
	if patch.Secrets != nil {
		merged.Secrets = patch.Secrets.Clone()
	}
	if patch.Instance != nil {
		merged.Instance = patch.Instance
	}
	if patch.Buttons != nil {
		merged.Buttons = append([]Button(nil), patch.Buttons...)
	}

	return merged
}

// Equal reports deep equality, used for skip_identical_presence dedup.
func (a *Activity) Equal(other *Activity) bool {
	if a == nil || other == nil {
		return a == other
	}

	return activityJSONEqual(a, other)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (t *Timestamps) Clone() *Timestamps {
	if t == nil {
		return nil
	}
	return &Timestamps{Start: clonePtr(t.Start), End: clonePtr(t.End)}
}

func (a *Assets) Clone() *Assets {
	if a == nil {
		return nil
	}
	return &Assets{LargeImage: clonePtr(a.LargeImage), LargeText: clonePtr(a.LargeText), SmallImage: clonePtr(a.SmallImage), SmallText: clonePtr(a.SmallText)}
}

func (p *Party) Clone() *Party {
	if p == nil {
		return nil
	}
	return &Party{ID: clonePtr(p.ID), CurrentSize: clonePtr(p.CurrentSize), MaxSize: clonePtr(p.MaxSize)}
}

func (s *Secrets) Clone() *Secrets {
	if s == nil {
		return nil
	}
	return &Secrets{Join: clonePtr(s.Join), Spectate: clonePtr(s.Spectate), Match: clonePtr(s.Match)}
}
