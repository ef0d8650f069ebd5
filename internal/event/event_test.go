package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), "kind %q should be valid", k)
	}
	assert.False(t, Kind("bullet_exploded").Valid())
	assert.False(t, Kind("").Valid())
}

func TestKind_IsWorkspace(t *testing.T) {
	assert.True(t, WorkspaceCreated.IsWorkspace())
	assert.True(t, WorkspaceRenamed.IsWorkspace())
	assert.True(t, WorkspaceDeleted.IsWorkspace())
	assert.False(t, BulletCreated.IsWorkspace())
	assert.False(t, BulletCheckedUpdated.IsWorkspace())
}

func TestPayload_RoundTrip(t *testing.T) {
	in := CreatedPayload{
		ID:        "blt_1",
		ParentID:  "blt_0",
		Index:     2,
		Content:   "hello",
		Context:   "a note",
		Checked:   true,
		CreatedAt: 1700000000000,
	}

	raw, err := MarshalPayload(in)
	require.NoError(t, err)

	var out CreatedPayload
	require.NoError(t, UnmarshalPayload(raw, &out))
	assert.Equal(t, in, out)
}

func TestIsEncrypted(t *testing.T) {
	env, err := MarshalPayload(EncryptedPayload{Encrypted: true, IV: "AA==", Data: "AA=="})
	require.NoError(t, err)
	assert.True(t, IsEncrypted(env))

	plain, err := MarshalPayload(CreatedPayload{ID: "blt_1"})
	require.NoError(t, err)
	assert.False(t, IsEncrypted(plain))

	assert.False(t, IsEncrypted(json.RawMessage("not json")))
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	c := NewClock()

	prev := c.Next()
	for i := 0; i < 10_000; i++ {
		ts := c.Next()
		require.Greater(t, ts, prev, "timestamps must be strictly increasing")
		prev = ts
	}
}

func TestClock_SameMillisecondBurst(t *testing.T) {
	// Freeze the wall clock entirely: every reading lands on the same
	// millisecond, so monotonicity must come from the floor.
	frozen := time.UnixMilli(1700000000000)
	c := &Clock{now: func() time.Time { return frozen }}

	assert.Equal(t, int64(1700000000000), c.Next())
	assert.Equal(t, int64(1700000000001), c.Next())
	assert.Equal(t, int64(1700000000002), c.Next())
}

func TestClock_WallClockStepBackwards(t *testing.T) {
	times := []time.Time{
		time.UnixMilli(2000),
		time.UnixMilli(1000), // stepped back
		time.UnixMilli(3000),
	}
	i := 0
	c := &Clock{now: func() time.Time { t := times[i]; i++; return t }}

	assert.Equal(t, int64(2000), c.Next())
	assert.Equal(t, int64(2001), c.Next(), "backwards step must not repeat or regress")
	assert.Equal(t, int64(3000), c.Next())
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(100)
	assert.Equal(t, int64(100), c.Next())
	assert.Equal(t, int64(101), c.Next())
}
