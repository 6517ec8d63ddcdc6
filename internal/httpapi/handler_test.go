package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rumor/internal/service"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

func testGuests() []types.Guest {
	return []types.Guest{
		{ID: "A", FullName: "Alice", Email: "alice@example.com", FollowerCount: 100, RSVPStatus: types.RSVPAttending, Tags: []string{"VIP"}},
		{ID: "B", FullName: "Bob", Email: "bob@example.com", FollowerCount: 5000, RSVPStatus: types.RSVPDeclined, Tags: []string{}},
		{ID: "C", FullName: "Carol", Email: "carol@example.com", FollowerCount: 50, RSVPStatus: types.RSVPAttending, Tags: []string{}},
	}
}

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *service.Service) {
	t.Helper()
	svc, err := service.New(service.WithGuests(testGuests()...))
	require.NoError(t, err)
	return NewHandler(svc, opts...), svc
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decodeBody[types.ErrorResponse](t, rec).Error
}

func TestListGuests(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/guests?minFollowers=60&status=attending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	res := decodeBody[types.QueryResult](t, rec)
	require.Len(t, res.Guests, 1)
	assert.Equal(t, "A", res.Guests[0].ID)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, types.DefaultLimit, res.Limit)

	rec = do(t, h, http.MethodGet, "/api/guests?sortField=followerCount&sortDirection=desc", "")
	res = decodeBody[types.QueryResult](t, rec)
	require.Len(t, res.Guests, 3)
	assert.Equal(t, "B", res.Guests[0].ID)

	rec = do(t, h, http.MethodGet, "/api/guests?page=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"guests":[]`)

	rec = do(t, h, http.MethodGet, "/api/guests?limit=9223372036854775807", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeBody[types.QueryResult](t, rec)
	assert.Equal(t, 1, res.TotalPages)
	assert.Len(t, res.Guests, 3)
}

func TestListGuestsRejectsMalformedParams(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, q := range []string{"page=x", "limit=0", "minFollowers=lots", "status=maybe", "invitedBefore=perhaps", "sortField=email&sortDirection=up"} {
		rec := do(t, h, http.MethodGet, "/api/guests?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.True(t, strings.HasPrefix(errorOf(t, rec), "Invalid request: "), q)
	}
}

func TestCreateGuest(t *testing.T) {
	h, svc := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/guests", `{"fullName":"Dana","email":"dana@example.com","tags":["VIP"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	g := decodeBody[types.Guest](t, rec)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, types.RSVPPending, g.RSVPStatus)
	coll, _ := svc.Snapshot()
	assert.True(t, coll.Contains(g.ID))

	rec = do(t, h, http.MethodPost, "/api/guests", `{"fullName":"No Email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request: email is required", errorOf(t, rec))

	rec = do(t, h, http.MethodPost, "/api/guests", `{not json`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create guest", errorOf(t, rec))
}

func TestDeleteGuests(t *testing.T) {
	h, svc := newTestHandler(t)

	rec := do(t, h, http.MethodDelete, "/api/guests", `{"ids":["A","ghost","C"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[types.DeleteResponse](t, rec)
	assert.Equal(t, 2, res.DeletedCount)
	assert.Equal(t, "Successfully deleted 2 guests", res.Message)
	coll, _ := svc.Snapshot()
	assert.Equal(t, 1, coll.Len())

	for _, body := range []string{`{"ids":[]}`, `{}`, `garbage`, ""} {
		rec = do(t, h, http.MethodDelete, "/api/guests", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid request: ids array is required", errorOf(t, rec), body)
	}
}

func TestUpdateGuestTags(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPatch, "/api/guests", `{"guestIds":["A","B","ghost"],"tagsToAdd":["Press"],"tagsToRemove":["VIP"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[types.TagUpdateResponse](t, rec)
	assert.Equal(t, "Successfully updated tags for 3 guests", res.Message)
	require.Len(t, res.UpdatedGuests, 2)
	assert.Equal(t, []string{"Press"}, res.UpdatedGuests[0].Tags)
	assert.Equal(t, []string{"Press"}, res.UpdatedGuests[1].Tags)

	tests := []struct {
		body, want string
	}{
		{`{"tagsToAdd":["X"]}`, "Invalid request: guestIds array is required"},
		{`{"guestIds":["A"]}`, "Invalid request: either tagsToAdd or tagsToRemove array is required"},
		{`{"guestIds":["A"],"tagsToAdd":[""]}`, "Invalid request: either tagsToAdd or tagsToRemove array is required"},
		{`{"guestIds":"A"}`, "Invalid request: malformed request body"},
	}
	for _, tt := range tests {
		rec = do(t, h, http.MethodPatch, "/api/guests", tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.Equal(t, tt.want, errorOf(t, rec), tt.body)
	}
}

func TestTags(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/tags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[types.TagListResponse](t, rec).Tags, 5)

	rec = do(t, h, http.MethodPost, "/api/tags", `{"name":"Summer","color":"#123456"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	tag := decodeBody[types.Tag](t, rec)
	assert.Equal(t, "#123456", tag.Color)

	rec = do(t, h, http.MethodPost, "/api/tags", `{"name":"summer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tag.ID, decodeBody[types.Tag](t, rec).ID)

	rec = do(t, h, http.MethodPost, "/api/tags", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request: tag name is required", errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/api/tags/"+tag.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/tags/"+tag.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorOf(t, rec), tag.ID)
}

func TestRouting(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/guests", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are off without a gatherer")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, err := service.New(service.WithMetrics(service.NewMetrics(reg)))
	require.NoError(t, err)
	h := NewHandler(svc, WithGatherer(reg))

	do(t, h, http.MethodPost, "/api/guests", `{"fullName":"Dana","email":"dana@example.com"}`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "rumor_mutations_total")
	assert.Contains(t, body, "rumor_guests 1")
}

// brokenService fails every call with an internal error.
type brokenService struct{}

var errBroken = errors.New("disk on fire")

func (brokenService) QueryGuests(context.Context, types.QueryRequest) (types.QueryResult, error) {
	return types.QueryResult{}, errBroken
}
func (brokenService) CreateGuest(context.Context, types.GuestInput) (types.Guest, error) {
	return types.Guest{}, errBroken
}
func (brokenService) DeleteGuests(context.Context, []string) (int, error) { return 0, errBroken }
func (brokenService) UpdateGuestTags(context.Context, types.TagUpdateRequest) ([]types.Guest, error) {
	return nil, errBroken
}
func (brokenService) ListTags(context.Context) ([]types.Tag, error) { return nil, errBroken }
func (brokenService) CreateTag(context.Context, types.TagCreateRequest) (types.Tag, bool, error) {
	return types.Tag{}, false, errBroken
}
func (brokenService) RemoveTag(context.Context, string) error { return errBroken }

func TestInternalErrorsUseFixedMessages(t *testing.T) {
	h := NewHandler(brokenService{})
	tests := []struct {
		method, target, body, want string
	}{
		{http.MethodGet, "/api/guests", "", "Failed to fetch guests"},
		{http.MethodPost, "/api/guests", `{"fullName":"A","email":"a@x"}`, "Failed to create guest"},
		{http.MethodDelete, "/api/guests", `{"ids":["A"]}`, "Failed to delete guests"},
		{http.MethodPatch, "/api/guests", `{"guestIds":["A"],"tagsToAdd":["X"]}`, "Failed to update guest tags"},
		{http.MethodGet, "/api/tags", "", "Failed to load tags"},
		{http.MethodPost, "/api/tags", `{"name":"X"}`, "Failed to save tag"},
		{http.MethodDelete, "/api/tags/t1", "", "Failed to save tag"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}
