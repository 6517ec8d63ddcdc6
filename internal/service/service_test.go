package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

var errDisk = errors.New("disk full")

// memBackend records persisted state in memory and can be told to fail.
type memBackend struct {
	guests map[string]types.Guest
	order  []string
	tags   []types.Tag
	fail   bool
	saves  int
}

func newMemBackend() *memBackend {
	return &memBackend{guests: map[string]types.Guest{}}
}

func (b *memBackend) Load() ([]types.Guest, []types.Tag, error) {
	var out []types.Guest
	for _, id := range b.order {
		if g, ok := b.guests[id]; ok {
			out = append(out, g)
		}
	}
	return out, b.tags, nil
}

func (b *memBackend) SaveGuests(guests ...types.Guest) error {
	if b.fail {
		return errDisk
	}
	for _, g := range guests {
		if _, ok := b.guests[g.ID]; !ok {
			b.order = append(b.order, g.ID)
		}
		b.guests[g.ID] = g
	}
	b.saves++
	return nil
}

func (b *memBackend) DeleteGuests(ids ...string) error {
	if b.fail {
		return errDisk
	}
	for _, id := range ids {
		delete(b.guests, id)
	}
	return nil
}

func (b *memBackend) SaveTag(tag types.Tag) error {
	if b.fail {
		return errDisk
	}
	b.tags = append(b.tags, tag)
	return nil
}

func (b *memBackend) DeleteTag(id string) error {
	if b.fail {
		return errDisk
	}
	for i, t := range b.tags {
		if t.ID == id {
			b.tags = append(b.tags[:i], b.tags[i+1:]...)
			break
		}
	}
	return nil
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := New(opts...)
	require.NoError(t, err)
	return s
}

func TestNewSeedsStarterTags(t *testing.T) {
	b := newMemBackend()
	s := newService(t, WithBackend(b))

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 5)
	assert.Equal(t, "VIP", tags[0].Name)
	assert.Len(t, b.tags, 5, "starter tags are persisted")

	again := newService(t, WithBackend(b))
	tags, _ = again.ListTags(context.Background())
	assert.Len(t, tags, 5, "a loaded catalog is not seeded twice")
}

func TestNewWithEmptyTagsOption(t *testing.T) {
	s := newService(t, WithTags())
	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestNewRejectsDuplicateGuests(t *testing.T) {
	_, err := New(WithGuests(types.Guest{ID: "a"}, types.Guest{ID: "a"}))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateQueryDelete(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	s := newService(t, WithBackend(b))

	alice, err := s.CreateGuest(ctx, types.GuestInput{FullName: "Alice", Email: "alice@example.com", FollowerCount: 100, RSVPStatus: types.RSVPAttending})
	require.NoError(t, err)
	bob, err := s.CreateGuest(ctx, types.GuestInput{FullName: "Bob", Email: "bob@example.com", FollowerCount: 5000})
	require.NoError(t, err)
	assert.Equal(t, types.RSVPPending, bob.RSVPStatus)

	res, err := s.QueryGuests(ctx, types.QueryRequest{Sort: &types.Sort{Field: types.SortFollowerCount, Direction: types.SortDesc}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, bob.ID, res.Guests[0].ID)

	n, err := s.DeleteGuests(ctx, []string{alice.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	coll, _ := s.Snapshot()
	assert.Equal(t, 1, coll.Len())
	assert.NotContains(t, b.guests, alice.ID)
	assert.Contains(t, b.guests, bob.ID)
}

func TestCreateGuestValidation(t *testing.T) {
	s := newService(t)
	_, err := s.CreateGuest(context.Background(), types.GuestInput{FullName: "No Email"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDeleteGuestsRequiresIDs(t *testing.T) {
	s := newService(t)
	_, err := s.DeleteGuests(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestUpdateGuestTags(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithGuests(
		types.Guest{ID: "a", Tags: []string{"B"}},
		types.Guest{ID: "b", Tags: []string{"Press"}},
	))

	updated, err := s.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{"b", "a", "zzz"}, TagsToAdd: []string{"A"}, TagsToRemove: []string{"B"}})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, []string{"A"}, updated[0].Tags)
	assert.Equal(t, []string{"Press", "A"}, updated[1].Tags)

	_, err = s.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{"a"}})
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = s.UpdateGuestTags(ctx, types.TagUpdateRequest{TagsToAdd: []string{"A"}})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestGuestTagsJoinCatalog(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	s := newService(t, WithBackend(b))

	g, err := s.CreateGuest(ctx, types.GuestInput{FullName: "Ada", Email: "ada@x", Tags: []string{"vip", "NeverInCatalog", " "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"VIP", "NeverInCatalog"}, g.Tags)

	updated, err := s.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{g.ID}, TagsToAdd: []string{"AlsoUnknown", "alsounknown"}})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, []string{"VIP", "NeverInCatalog", "AlsoUnknown"}, updated[0].Tags)

	updated, err = s.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{"ghost"}, TagsToAdd: []string{"Orphan"}})
	require.NoError(t, err)
	assert.Empty(t, updated)

	n, err := s.Import(ctx, []types.Guest{{ID: "imp-1", Tags: []string{"press", "Imported"}}, {ID: "imp-2", Tags: []string{"imported"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	coll, cat := s.Snapshot()
	assert.Equal(t, 8, cat.Len())
	assert.Len(t, b.tags, 8, "registered tags are persisted")
	coll.Range(func(g types.Guest) bool {
		for _, name := range g.Tags {
			tag, ok := cat.Lookup(name)
			if assert.True(t, ok, name) {
				assert.Equal(t, tag.Name, name)
			}
		}
		return true
	})
	_, ok := cat.Lookup("Orphan")
	assert.False(t, ok, "an edit that changes no guest registers nothing")

	imp, _ := coll.Get("imp-2")
	assert.Equal(t, []string{"Imported"}, imp.Tags)
}

func TestPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	s := newService(t, WithBackend(b), WithGuests(types.Guest{ID: "a", Tags: []string{"VIP"}}))
	b.fail = true

	_, err := s.CreateGuest(ctx, types.GuestInput{FullName: "X", Email: "x@x"})
	assert.ErrorIs(t, err, errDisk)

	_, err = s.CreateGuest(ctx, types.GuestInput{FullName: "X", Email: "x@x", Tags: []string{"Fresh"}})
	assert.ErrorIs(t, err, errDisk)

	_, err = s.DeleteGuests(ctx, []string{"a"})
	assert.ErrorIs(t, err, errDisk)

	_, err = s.UpdateGuestTags(ctx, types.TagUpdateRequest{GuestIDs: []string{"a"}, TagsToRemove: []string{"VIP"}})
	assert.ErrorIs(t, err, errDisk)

	_, _, err = s.CreateTag(ctx, types.TagCreateRequest{Name: "New"})
	assert.ErrorIs(t, err, errDisk)

	coll, cat := s.Snapshot()
	require.Equal(t, 1, coll.Len())
	g, _ := coll.Get("a")
	assert.Equal(t, []string{"VIP"}, g.Tags)
	assert.Equal(t, 5, cat.Len())
}

func TestCreateAndRemoveTag(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithGuests(types.Guest{ID: "a", Tags: []string{"Summer"}}))

	tag, created, err := s.CreateTag(ctx, types.TagCreateRequest{Name: "  Summer "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Summer", tag.Name)
	assert.NotEmpty(t, tag.Color)

	again, created, err := s.CreateTag(ctx, types.TagCreateRequest{Name: "summer", Color: "#000000"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag, again)

	_, _, err = s.CreateTag(ctx, types.TagCreateRequest{Name: "   "})
	assert.ErrorIs(t, err, types.ErrValidation)

	require.NoError(t, s.RemoveTag(ctx, tag.ID))
	assert.ErrorIs(t, s.RemoveTag(ctx, tag.ID), types.ErrNotFound)

	coll, _ := s.Snapshot()
	g, _ := coll.Get("a")
	assert.Equal(t, []string{"Summer"}, g.Tags, "removing a tag leaves guests alone")

	res, err := s.QueryGuests(ctx, types.QueryRequest{Filters: types.Filters{Tag: types.Ptr("Summer")}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	b := newMemBackend()
	s := newService(t, WithBackend(b), WithGuests(types.Guest{ID: "a"}))

	n, err := s.Import(ctx, []types.Guest{{ID: "a"}, {ID: "b", FullName: "Bee"}, {ID: ""}, {ID: "c"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	coll, _ := s.Snapshot()
	assert.Equal(t, 3, coll.Len())
	assert.Contains(t, b.guests, "b")
	assert.Contains(t, b.guests, "c")
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newService(t)

	_, err := s.QueryGuests(ctx, types.QueryRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.CreateGuest(ctx, types.GuestInput{FullName: "A", Email: "a@x"})
	assert.ErrorIs(t, err, context.Canceled)

	coll, _ := s.Snapshot()
	assert.Equal(t, 0, coll.Len())
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := newService(t, WithMetrics(m))

	_, err := s.CreateGuest(ctx, types.GuestInput{FullName: "A", Email: "a@x"})
	require.NoError(t, err)
	_, err = s.CreateGuest(ctx, types.GuestInput{FullName: "B"})
	require.Error(t, err)
	_, err = s.QueryGuests(ctx, types.QueryRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guestsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.tagsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.queryDuration))
}
