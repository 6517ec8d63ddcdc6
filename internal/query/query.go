// Package query implements the guest listing pipeline: filter, sort, and
// paginate over a Collection. Everything here is pure; the collection is
// never modified and no state is kept between calls.
package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Run applies req to coll and returns the requested page.
//
// Filters are conjunctive. Without a sort, or with a field the engine does
// not know, guests keep collection insertion order. Sorting is stable in
// both directions. A page past the end yields an empty Guests slice.
// Non-positive page or limit fall back to the defaults. Run never fails.
func Run(coll types.Collection, req types.QueryRequest) types.QueryResult {
	req = req.Normalized()
	m := newMatcher(req.Filters)

	var matched []types.Guest
	coll.Range(func(g types.Guest) bool {
		if m.match(g) {
			matched = append(matched, g)
		}
		return true
	})

	if req.Sort != nil {
		matched = sortGuests(matched, *req.Sort)
	}

	total := len(matched)
	page := Paginate(matched, req.Page, req.Limit)

	guests := make([]types.Guest, len(page))
	for i, g := range page {
		guests[i] = g.Clone()
	}
	return types.QueryResult{
		Guests:     guests,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: types.TotalPages(total, req.Limit),
	}
}

// Matches reports whether g satisfies every active filter in f.
func Matches(g types.Guest, f types.Filters) bool {
	return newMatcher(f).match(g)
}

// Paginate returns the slice of guests for a 1-based page. Pages outside
// the sequence return an empty slice.
func Paginate(guests []types.Guest, page, limit int) []types.Guest {
	if page < 1 || limit < 1 || page > types.TotalPages(len(guests), limit) {
		return guests[:0:0]
	}
	start := (page - 1) * limit
	end := start + min(limit, len(guests)-start)
	return guests[start:end]
}

// matcher holds filters with the search needle folded once per query.
type matcher struct {
	f      types.Filters
	fold   cases.Caser
	needle string
}

func newMatcher(f types.Filters) *matcher {
	m := &matcher{f: f, fold: cases.Fold()}
	if s := f.ActiveSearch(); s != "" {
		m.needle = m.fold.String(s)
	}
	return m
}

func (m *matcher) match(g types.Guest) bool {
	f := m.f
	if s := f.ActiveStatus(); s != "" && g.RSVPStatus != s {
		return false
	}
	if f.MinFollowers != nil && g.FollowerCount < *f.MinFollowers {
		return false
	}
	if f.MaxFollowers != nil && g.FollowerCount > *f.MaxFollowers {
		return false
	}
	if t := f.ActiveTag(); t != "" && !g.HasTag(t) {
		return false
	}
	if f.InvitedBefore != nil && g.InvitedBefore != *f.InvitedBefore {
		return false
	}
	if m.needle != "" &&
		!strings.Contains(m.fold.String(g.FullName), m.needle) &&
		!strings.Contains(m.fold.String(g.InstagramHandle), m.needle) &&
		!strings.Contains(m.fold.String(g.Email), m.needle) {
		return false
	}
	return true
}

// keyed pairs a guest with its precomputed sort key.
type keyed struct {
	guest types.Guest
	text  string
}

// sortGuests orders guests by s.Field. Unknown fields leave the order as is.
func sortGuests(guests []types.Guest, s types.Sort) []types.Guest {
	if !s.Field.Known() || len(guests) < 2 {
		return guests
	}
	sign := 1
	if s.Direction == types.SortDesc {
		sign = -1
	}

	if s.Field == types.SortFollowerCount {
		slices.SortStableFunc(guests, func(a, b types.Guest) int {
			return sign * cmp.Compare(a.FollowerCount, b.FollowerCount)
		})
		return guests
	}

	fold := cases.Fold()
	items := make([]keyed, len(guests))
	for i, g := range guests {
		items[i] = keyed{guest: g, text: fold.String(textField(g, s.Field))}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return sign * strings.Compare(a.text, b.text)
	})
	for i, it := range items {
		guests[i] = it.guest
	}
	return guests
}

func textField(g types.Guest, f types.SortField) string {
	switch f {
	case types.SortFullName:
		return g.FullName
	case types.SortRSVPStatus:
		return string(g.RSVPStatus)
	case types.SortInstagramHandle:
		return g.InstagramHandle
	case types.SortEmail:
		return g.Email
	default:
		return ""
	}
}
