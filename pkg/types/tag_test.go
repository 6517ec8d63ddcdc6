package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCatalogAdd(t *testing.T) {
	var c TagCatalog

	vip, created, err := c.Add(Tag{ID: "tag-1", Name: " VIP ", Color: "#FF5A5F"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "VIP", vip.Name)

	again, created, err := c.Add(Tag{Name: "vip"})
	require.NoError(t, err)
	assert.False(t, created, "case-insensitive duplicate must reuse the existing tag")
	assert.Equal(t, vip, again)
	assert.Equal(t, 1, c.Len())

	fresh, created, err := c.Add(Tag{Name: "Press"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, fresh.ID)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, fresh.Color)

	_, _, err = c.Add(Tag{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = c.Add(Tag{ID: "tag-1", Name: "Other"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTagCatalogRemove(t *testing.T) {
	c := NewTagCatalog(
		Tag{ID: "tag-1", Name: "VIP"},
		Tag{ID: "tag-2", Name: "Friend"},
		Tag{ID: "tag-3", Name: "friend"},
	)
	require.Equal(t, 2, c.Len())

	clone := c.Clone()
	assert.True(t, c.Remove("tag-1"))
	assert.False(t, c.Remove("tag-1"))

	_, ok := c.Lookup("VIP")
	assert.False(t, ok)
	_, ok = clone.Lookup("vip")
	assert.True(t, ok, "clone must not see removals")

	tag, ok := c.Get("tag-2")
	require.True(t, ok)
	assert.Equal(t, "Friend", tag.Name)
}
