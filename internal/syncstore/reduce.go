package syncstore

import (
	"slices"

	"github.com/mesh-intelligence/rumor/internal/mutation"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Reduce returns the state after applying a to s. s is not modified.
// Version is bumped when the state changes; a discarded stale response
// returns s as is.
func Reduce(s State, a Action) State {
	next, changed := reduce(s, a)
	if !changed {
		return s
	}
	next.Version = s.Version + 1
	return next
}

// reduce applies a and reports whether anything changed. It leaves Version
// alone.
func reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case SetFilters:
		s.Filters = a.Filters.Clone()
		s.Page = types.DefaultPage
	case ClearFilters:
		s.Filters = types.Filters{}
		s.Page = types.DefaultPage
	case SetSort:
		if s.Sort != nil && s.Sort.Field == a.Field {
			s.Sort = &types.Sort{Field: a.Field, Direction: s.Sort.Direction.Toggle()}
		} else {
			s.Sort = &types.Sort{Field: a.Field, Direction: types.SortAsc}
		}
		s.Page = types.DefaultPage
	case SetPage:
		s.Page = max(a.Page, types.DefaultPage)
	case SetLimit:
		s.Limit = a.Limit
		if s.Limit < 1 {
			s.Limit = types.DefaultLimit
		}
		s.Page = types.DefaultPage

	case Select:
		s.Selected = appendMissing(s.Selected, a.IDs...)
	case Deselect:
		s.Selected = without(s.Selected, a.IDs)
	case ToggleSelect:
		if s.IsSelected(a.ID) {
			s.Selected = without(s.Selected, []string{a.ID})
		} else {
			s.Selected = appendMissing(s.Selected, a.ID)
		}
	case SelectAll:
		s.Selected = appendMissing(nil, a.IDs...)
	case ClearSelection:
		s.Selected = []string{}

	case QueryIssued:
		if a.Seq <= s.IssuedSeq {
			return s, false
		}
		s.IssuedSeq = a.Seq
		s.Status = StatusLoading
	case QuerySucceeded:
		if a.Seq != s.IssuedSeq {
			return s, false
		}
		s.Guests = cloneGuests(a.Result.Guests)
		s.Total = a.Result.Total
		s.TotalPages = a.Result.TotalPages
		s.AppliedSeq = a.Seq
		s.Status = StatusReady
		s.Err = ""
	case QueryFailed:
		if a.Seq != s.IssuedSeq {
			return s, false
		}
		s.AppliedSeq = a.Seq
		s.Status = StatusFailed
		s.Err = a.Err

	case GuestAdded:
		s.Guests = append(slices.Clip(s.Guests), a.Guest.Clone())
		s.Total++
		s.TotalPages = types.TotalPages(s.Total, s.Limit)
	case GuestsDeleted:
		drop := make(map[string]bool, len(a.IDs))
		for _, id := range a.IDs {
			drop[id] = true
		}
		guests := make([]types.Guest, 0, len(s.Guests))
		for _, g := range s.Guests {
			if !drop[g.ID] {
				guests = append(guests, g)
			}
		}
		s.Guests = guests
		s.Total = max(s.Total-len(a.IDs), 0)
		s.TotalPages = types.TotalPages(s.Total, s.Limit)
		s.Selected = []string{}
	case GuestTagsUpdated:
		target := make(map[string]bool, len(a.IDs))
		for _, id := range a.IDs {
			target[id] = true
		}
		guests := make([]types.Guest, len(s.Guests))
		for i, g := range s.Guests {
			if target[g.ID] {
				g = g.Clone()
				g.Tags = mutation.EditTags(g.Tags, a.Add, a.Remove)
			}
			guests[i] = g
		}
		s.Guests = guests
		s.Selected = []string{}
	case MutationFailed:
		s.Err = a.Err

	case TagsLoaded:
		s.Tags = slices.Clone(a.Tags)
		if s.Tags == nil {
			s.Tags = []types.Tag{}
		}
	case TagAdded:
		if slices.ContainsFunc(s.Tags, func(t types.Tag) bool { return t.ID == a.Tag.ID }) {
			return s, false
		}
		s.Tags = append(slices.Clip(s.Tags), a.Tag)
	case TagRemoved:
		s.Tags = slices.DeleteFunc(slices.Clone(s.Tags), func(t types.Tag) bool { return t.ID == a.ID })

	default:
		return s, false
	}
	return s, true
}

// appendMissing returns a new slice holding ids followed by each of add not
// already present.
func appendMissing(ids []string, add ...string) []string {
	out := make([]string, len(ids), len(ids)+len(add))
	copy(out, ids)
	for _, id := range add {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// without returns a new slice of ids minus those in drop.
func without(ids, drop []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(drop, id) {
			out = append(out, id)
		}
	}
	return out
}

func cloneGuests(guests []types.Guest) []types.Guest {
	out := make([]types.Guest, len(guests))
	for i, g := range guests {
		out[i] = g.Clone()
	}
	return out
}
