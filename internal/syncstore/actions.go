package syncstore

import "github.com/mesh-intelligence/rumor/pkg/types"

// Action is a state transition the reducer understands. The set is closed:
// only types in this package implement it.
type Action interface {
	actionMarker()
}

// View actions.
type (
	// SetFilters replaces all filters and returns to page 1.
	SetFilters struct{ Filters types.Filters }
	// ClearFilters removes every filter and returns to page 1.
	ClearFilters struct{}
	// SetSort sorts by Field. Choosing the current field toggles the
	// direction; a new field starts ascending. Returns to page 1.
	SetSort struct{ Field types.SortField }
	// SetPage moves to a 1-based page. Non-positive pages become 1.
	SetPage struct{ Page int }
	// SetLimit changes the page size and returns to page 1.
	SetLimit struct{ Limit int }
)

// Selection actions.
type (
	Select         struct{ IDs []string }
	Deselect       struct{ IDs []string }
	ToggleSelect   struct{ ID string }
	SelectAll      struct{ IDs []string }
	ClearSelection struct{}
)

// Fetch lifecycle actions. Responses whose Seq is not the latest issued
// are discarded.
type (
	QueryIssued    struct{ Seq uint64 }
	QuerySucceeded struct {
		Seq    uint64
		Result types.QueryResult
	}
	QueryFailed struct {
		Seq uint64
		Err string
	}
)

// Confirmed mutations, dispatched only after the server succeeded.
type (
	GuestAdded       struct{ Guest types.Guest }
	GuestsDeleted    struct{ IDs []string }
	GuestTagsUpdated struct {
		IDs    []string
		Add    []string
		Remove []string
	}
	MutationFailed struct{ Err string }
)

// Tag catalog cache actions.
type (
	TagsLoaded struct{ Tags []types.Tag }
	TagAdded   struct{ Tag types.Tag }
	TagRemoved struct{ ID string }
)

func (SetFilters) actionMarker()       {}
func (ClearFilters) actionMarker()     {}
func (SetSort) actionMarker()          {}
func (SetPage) actionMarker()          {}
func (SetLimit) actionMarker()         {}
func (Select) actionMarker()           {}
func (Deselect) actionMarker()         {}
func (ToggleSelect) actionMarker()     {}
func (SelectAll) actionMarker()        {}
func (ClearSelection) actionMarker()   {}
func (QueryIssued) actionMarker()      {}
func (QuerySucceeded) actionMarker()   {}
func (QueryFailed) actionMarker()      {}
func (GuestAdded) actionMarker()       {}
func (GuestsDeleted) actionMarker()    {}
func (GuestTagsUpdated) actionMarker() {}
func (MutationFailed) actionMarker()   {}
func (TagsLoaded) actionMarker()       {}
func (TagAdded) actionMarker()         {}
func (TagRemoved) actionMarker()       {}
