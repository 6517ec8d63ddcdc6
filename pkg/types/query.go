package types

import "strings"

// Pagination defaults applied when a request leaves page or limit unset.
const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// SortField names a guest field the query engine can order by.
type SortField string

// Sortable fields. FollowerCount sorts numerically; the rest compare
// case-insensitively.
const (
	SortFullName        SortField = "fullName"
	SortRSVPStatus      SortField = "rsvpStatus"
	SortInstagramHandle SortField = "instagramHandle"
	SortFollowerCount   SortField = "followerCount"
	SortEmail           SortField = "email"
)

var knownSortFields = map[SortField]bool{
	SortFullName:        true,
	SortRSVPStatus:      true,
	SortInstagramHandle: true,
	SortFollowerCount:   true,
	SortEmail:           true,
}

// Known reports whether f is a sortable field.
func (f SortField) Known() bool {
	return knownSortFields[f]
}

// SortDirection orders results ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts "asc" or "desc" in any case. An empty string
// means ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	default:
		return "", ValidationError("invalid sortDirection %q (valid: asc, desc)", s)
	}
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Sort orders query results by one field.
type Sort struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Filters holds the optional guest predicates of a query. A nil field is
// inactive; all active fields must hold for a guest to match. Empty
// strings are treated as inactive too.
type Filters struct {
	Status        *RSVPStatus `json:"status,omitempty"`
	MinFollowers  *int        `json:"minFollowers,omitempty"`
	MaxFollowers  *int        `json:"maxFollowers,omitempty"`
	Tag           *string     `json:"tag,omitempty"`
	InvitedBefore *bool       `json:"invitedBefore,omitempty"`
	Search        *string     `json:"search,omitempty"`
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return activeStatus(f.Status) == "" &&
		f.MinFollowers == nil &&
		f.MaxFollowers == nil &&
		activeString(f.Tag) == "" &&
		f.InvitedBefore == nil &&
		activeString(f.Search) == ""
}

// Clone returns a copy of f that shares no pointers with it.
func (f Filters) Clone() Filters {
	return Filters{
		Status:        clonePtr(f.Status),
		MinFollowers:  clonePtr(f.MinFollowers),
		MaxFollowers:  clonePtr(f.MaxFollowers),
		Tag:           clonePtr(f.Tag),
		InvitedBefore: clonePtr(f.InvitedBefore),
		Search:        clonePtr(f.Search),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ActiveStatus returns the status filter, or "" when inactive.
func (f Filters) ActiveStatus() RSVPStatus { return activeStatus(f.Status) }

// ActiveTag returns the tag filter, or "" when inactive.
func (f Filters) ActiveTag() string { return activeString(f.Tag) }

// ActiveSearch returns the search filter, or "" when inactive.
func (f Filters) ActiveSearch() string { return activeString(f.Search) }

func activeStatus(p *RSVPStatus) RSVPStatus {
	if p == nil {
		return ""
	}
	return *p
}

func activeString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// QueryRequest describes one page of a filtered, sorted guest listing.
type QueryRequest struct {
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	Filters Filters `json:"filters"`
	Sort    *Sort   `json:"sort,omitempty"`
}

// Normalized returns r with non-positive page and limit replaced by the
// defaults and an empty sort direction set to ascending.
func (r QueryRequest) Normalized() QueryRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Sort != nil && r.Sort.Direction == "" {
		s := *r.Sort
		s.Direction = SortAsc
		r.Sort = &s
	}
	return r
}

// QueryResult is one page of matching guests.
type QueryResult struct {
	Guests     []Guest `json:"guests"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// Ptr returns a pointer to v. It is a convenience for building Filters.
func Ptr[T any](v T) *T {
	return &v
}
