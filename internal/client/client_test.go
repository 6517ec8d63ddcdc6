package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
	_, err = New("ftp://example.com")
	assert.Error(t, err)
}

func TestQueryGuestsEncodesRequest(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		respond(w, http.StatusOK, types.QueryResult{Guests: []types.Guest{{ID: "a"}}, Total: 1, Page: 2, Limit: 10, TotalPages: 1})
	})

	res, err := c.QueryGuests(context.Background(), types.QueryRequest{
		Page: 2, Limit: 10,
		Filters: types.Filters{Tag: types.Ptr("VIP"), InvitedBefore: types.Ptr(false)},
		Sort:    &types.Sort{Field: types.SortEmail, Direction: types.SortDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/guests", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "VIP", q.Get("tag"))
	assert.Equal(t, "false", q.Get("invitedBefore"))
	assert.Equal(t, "email", q.Get("sortField"))
	assert.Equal(t, "desc", q.Get("sortDirection"))
	assert.False(t, q.Has("search"))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
		msg    string
	}{
		{"bad request", http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request: ids array is required"}, types.ErrValidation, "ids array is required"},
		{"not found", http.StatusNotFound, types.ErrorResponse{Error: "tag missing"}, types.ErrNotFound, "tag missing"},
		{"server error", http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to delete guests"}, types.ErrTransient, "Failed to delete guests"},
		{"bad gateway without body", http.StatusBadGateway, nil, types.ErrTransient, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				respond(w, tt.status, tt.body)
			})
			_, err := c.DeleteGuests(context.Background(), []string{"a"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.ListTags(context.Background())
	assert.ErrorIs(t, err, types.ErrTransient)
}

func TestTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.QueryGuests(context.Background(), types.QueryRequest{})
	assert.ErrorIs(t, err, types.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreateTagStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req types.TagCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status := http.StatusCreated
		if req.Name == "VIP" {
			status = http.StatusOK
		}
		respond(w, status, types.Tag{ID: "tag-x", Name: req.Name, Color: "#123456"})
	})

	tag, created, err := c.CreateTag(context.Background(), types.TagCreateRequest{Name: "Summer"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Summer", tag.Name)

	_, created, err = c.CreateTag(context.Background(), types.TagCreateRequest{Name: "VIP"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRemoveTag(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.RemoveTag(context.Background(), "tag-1"))
	assert.Equal(t, "/api/tags/tag-1", path)
}

func TestRemoveTagEscapesID(t *testing.T) {
	mux := http.NewServeMux()
	var id, raw string
	mux.HandleFunc("DELETE /api/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, raw = r.PathValue("id"), r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux.ServeHTTP)

	require.NoError(t, c.RemoveTag(context.Background(), "a/b?c#d"))
	assert.Equal(t, "a/b?c#d", id)
	assert.Empty(t, raw)
}

func TestUpdateGuestTagsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req types.TagUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a"}, req.GuestIDs)
		assert.Equal(t, []string{"VIP"}, req.TagsToAdd)
		respond(w, http.StatusOK, types.TagUpdateResponse{UpdatedGuests: []types.Guest{{ID: "a", Tags: []string{"VIP"}}}})
	})

	updated, err := c.UpdateGuestTags(context.Background(), types.TagUpdateRequest{GuestIDs: []string{"a"}, TagsToAdd: []string{"VIP"}})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, []string{"VIP"}, updated[0].Tags)
}
