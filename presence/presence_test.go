package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestHasSecrets(t *testing.T) {
	var a Activity
	assert.False(t, a.HasSecrets())

	a.Secrets = &Secrets{Join: strPtr("j")}
	assert.True(t, a.HasSecrets())
}

func TestPartySizeInverted(t *testing.T) {
	a := Activity{Party: &Party{CurrentSize: intPtr(5), MaxSize: intPtr(2)}}
	assert.True(t, a.PartySizeInverted())

	a.Party.MaxSize = intPtr(10)
	assert.False(t, a.PartySizeInverted())
}

func TestCloneIsDeep(t *testing.T) {
	a := &Activity{
		State:   strPtr("playing"),
		Party:   &Party{CurrentSize: intPtr(1), MaxSize: intPtr(4)},
		Buttons: []Button{{Label: "Join", URL: "https://example.com"}},
	}

	clone := a.Clone()
	require.NotNil(t, clone)

	*clone.Party.CurrentSize = 2
	clone.Buttons[0].Label = "changed"

	assert.Equal(t, 1, *a.Party.CurrentSize)
	assert.Equal(t, "Join", a.Buttons[0].Label)
}

func TestMergeNonNilOverlaysOnlySetFields(t *testing.T) {
	base := &Activity{
		State:   strPtr("base state"),
		Details: strPtr("base details"),
	}
	patch := &Activity{
		Details: strPtr("patched details"),
	}

	merged := MergeNonNil(base, patch)

	assert.Equal(t, "base state", *merged.State)
	assert.Equal(t, "patched details", *merged.Details)
}

func TestMergeNonNilNilBaseOrPatch(t *testing.T) {
	patch := &Activity{State: strPtr("s")}

	assert.Equal(t, patch.State, MergeNonNil(nil, patch).State)
	assert.Nil(t, MergeNonNil(patch, nil).Details)
}

func TestEqual(t *testing.T) {
	a := &Activity{State: strPtr("x")}
	b := &Activity{State: strPtr("x")}
	c := &Activity{State: strPtr("y")}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, (*Activity)(nil).Equal(nil))
	assert.False(t, a.Equal(nil))
}
