package syncstore

import (
	"slices"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Status is the fetch lifecycle of the loaded page.
type Status int

// Fetch statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one immutable snapshot of the client view. Reduce never
// modifies a State it is given; slices in a State must not be modified by
// the holder either.
type State struct {
	// Guests is the last fetched page, with local mutations applied.
	Guests     []types.Guest
	Total      int
	TotalPages int
	Page       int
	Limit      int

	Filters types.Filters
	Sort    *types.Sort

	// Selected holds guest ids in selection order. Selection is kept across
	// page and filter changes.
	Selected []string

	Status Status
	// Err is the message of the last failed fetch or mutation; cleared by
	// the next successful fetch.
	Err string

	// Tags caches the server's tag catalog.
	Tags []types.Tag

	// IssuedSeq is the sequence number of the latest issued fetch and
	// AppliedSeq that of the latest applied response.
	IssuedSeq  uint64
	AppliedSeq uint64

	// Version increases by one with every change to the state.
	Version uint64
}

// InitialState is the state of a new store: page 1, default limit, no
// filters, no sort, nothing loaded.
func InitialState() State {
	return State{
		Guests:   []types.Guest{},
		Page:     types.DefaultPage,
		Limit:    types.DefaultLimit,
		Selected: []string{},
		Tags:     []types.Tag{},
	}
}

// Request returns the query the state's next fetch issues.
func (s State) Request() types.QueryRequest {
	req := types.QueryRequest{Page: s.Page, Limit: s.Limit, Filters: s.Filters.Clone()}
	if s.Sort != nil {
		sort := *s.Sort
		req.Sort = &sort
	}
	return req
}

// IsSelected reports whether id is selected.
func (s State) IsSelected(id string) bool {
	return slices.Contains(s.Selected, id)
}

// Loading reports whether a fetch is outstanding.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

// Guest returns the loaded guest with the given id.
func (s State) Guest(id string) (types.Guest, bool) {
	for _, g := range s.Guests {
		if g.ID == id {
			return g.Clone(), true
		}
	}
	return types.Guest{}, false
}
