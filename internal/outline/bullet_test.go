package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/ident"
)

func sampleForest() []*Bullet {
	return []*Bullet{
		{ID: "blt_a", Content: "A", CreatedAt: 1, Children: []*Bullet{
			{ID: "blt_b", Content: "B", CreatedAt: 2, Checked: true, Children: []*Bullet{}},
			{ID: "blt_c", Content: "C", CreatedAt: 3, Context: "note", Children: []*Bullet{}},
		}},
		{ID: "blt_d", Content: "D", CreatedAt: 4, Collapsed: true, Children: []*Bullet{}},
	}
}

func TestClone_Independent(t *testing.T) {
	orig := sampleForest()
	copied := CloneForest(orig)

	require.True(t, Equal(orig, copied))

	copied[0].Content = "changed"
	copied[0].Children[0].Checked = false

	assert.Equal(t, "A", orig[0].Content, "mutating the clone must not touch the original")
	assert.True(t, orig[0].Children[0].Checked)
}

func TestWalk_DepthFirstOrder(t *testing.T) {
	var order []string
	Walk(sampleForest(), func(b *Bullet) bool {
		order = append(order, b.ID)
		return true
	})
	assert.Equal(t, []string{"blt_a", "blt_b", "blt_c", "blt_d"}, order)
}

func TestFind(t *testing.T) {
	forest := sampleForest()
	assert.Equal(t, "C", Find(forest, "blt_c").Content)
	assert.Nil(t, Find(forest, "blt_missing"))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 4, Count(sampleForest()))
	assert.Equal(t, 0, Count(nil))
}

func TestEqual(t *testing.T) {
	a := sampleForest()
	b := sampleForest()
	require.True(t, Equal(a, b))

	b[0].Children[1].Context = "different"
	assert.False(t, Equal(a, b))

	c := sampleForest()
	c[0].Children = c[0].Children[:1]
	assert.False(t, Equal(a, c))
}

func TestNormalize_Defaults(t *testing.T) {
	forest := []*Bullet{
		{Content: "no id or timestamp", Children: []*Bullet{{ID: "blt_kid"}}},
	}
	ids := ident.NewFixed("blt_new")

	out := Normalize(forest, ids, 42)

	require.Len(t, out, 1)
	assert.Equal(t, "blt_new", out[0].ID)
	assert.Equal(t, int64(42), out[0].CreatedAt)
	require.Len(t, out[0].Children, 1)
	assert.Equal(t, "blt_kid", out[0].Children[0].ID)
	assert.Equal(t, int64(42), out[0].Children[0].CreatedAt)
	assert.NotNil(t, out[0].Children[0].Children)
}

func TestNormalize_NilForest(t *testing.T) {
	out := Normalize(nil, ident.NewFixed(), 1)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCreationEvents_DepthFirst(t *testing.T) {
	events, err := CreationEvents("ws_1", sampleForest(), event.NewFixedClock(10))
	require.NoError(t, err)
	require.Len(t, events, 4)

	var ids []string
	var parents []string
	for _, e := range events {
		assert.Equal(t, event.BulletCreated, e.Kind)
		assert.Equal(t, "ws_1", e.WorkspaceID)
		var p event.CreatedPayload
		require.NoError(t, event.UnmarshalPayload(e.Payload, &p))
		ids = append(ids, p.ID)
		parents = append(parents, p.ParentID)
	}
	assert.Equal(t, []string{"blt_a", "blt_b", "blt_c", "blt_d"}, ids)
	assert.Equal(t, []string{"", "blt_a", "blt_a", ""}, parents)

	// Timestamps strictly increasing in emission order.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Timestamp, events[i-1].Timestamp)
	}
}
