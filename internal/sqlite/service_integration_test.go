package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rumor/internal/service"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

var _ service.Backend = (*Backend)(nil)

func TestServiceStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	svc, err := service.New(service.WithBackend(attached(t, dir)))
	require.NoError(t, err)

	alice, err := svc.CreateGuest(ctx, types.GuestInput{FullName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.CreateGuest(ctx, types.GuestInput{FullName: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	carol, err := svc.CreateGuest(ctx, types.GuestInput{FullName: "Carol", Email: "carol@example.com"})
	require.NoError(t, err)

	_, err = svc.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{alice.ID}, TagsToAdd: []string{"VIP"}})
	require.NoError(t, err)
	_, err = svc.DeleteGuests(ctx, []string{bob.ID})
	require.NoError(t, err)
	summer, _, err := svc.CreateTag(ctx, types.TagCreateRequest{Name: "Summer"})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveTag(ctx, "tag-5"))

	restarted, err := service.New(service.WithBackend(attached(t, dir)))
	require.NoError(t, err)

	res, err := restarted.QueryGuests(ctx, types.QueryRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, alice.ID, res.Guests[0].ID)
	assert.Equal(t, []string{"VIP"}, res.Guests[0].Tags)
	assert.Equal(t, carol.ID, res.Guests[1].ID)

	tags, err := restarted.ListTags(ctx)
	require.NoError(t, err)
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.Name
	}
	assert.Equal(t, []string{"VIP", "Friend", "Family", "Business", summer.Name}, names)
}
