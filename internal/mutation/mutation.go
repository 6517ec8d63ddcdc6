// Package mutation computes guest collection changes: create, bulk delete,
// and bulk tag edits. Each function takes a collection and returns a new
// one; the input collection is never modified, and persisting or
// broadcasting the result is the caller's job.
package mutation

import (
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// newID generates guest ids. Overridden in tests.
var newID = types.NewGuestID

// maxIDAttempts bounds id generation when a candidate collides with an id
// the collection has already held.
const maxIDAttempts = 8

// Create validates in, assigns a fresh id, and appends the guest.
// An empty RSVP status defaults to pending. Returns a validation error if
// fullName or email is blank, followerCount is negative, or the status is
// not recognized.
func Create(coll types.Collection, in types.GuestInput) (types.Collection, types.Guest, error) {
	if err := in.Validate(); err != nil {
		return coll, types.Guest{}, err
	}
	if in.RSVPStatus == "" {
		in.RSVPStatus = types.RSVPPending
	}

	ed := coll.Edit()
	var id string
	for range maxIDAttempts {
		if candidate := newID(); !ed.Known(candidate) {
			id = candidate
			break
		}
	}
	if id == "" {
		return coll, types.Guest{}, types.ValidationError("could not allocate a unique guest id")
	}

	g := in.Guest(id)
	if err := ed.Insert(g); err != nil {
		return coll, types.Guest{}, err
	}
	return ed.Collection(), g.Clone(), nil
}

// DeleteMany removes every guest whose id is in ids. Unknown ids are
// ignored. The count is the number of guests actually removed; an id
// repeated in ids counts once.
func DeleteMany(coll types.Collection, ids []string) (types.Collection, int) {
	ed := coll.Edit()
	deleted := 0
	for _, id := range ids {
		if ed.Delete(id) {
			deleted++
		}
	}
	if deleted == 0 {
		return coll, 0
	}
	return ed.Collection(), deleted
}

// UpdateTags applies EditTags(add, remove) to every guest in guestIDs and
// returns the updated guests in collection order. Unknown ids are ignored.
// Returns a validation error if add and remove are both empty.
func UpdateTags(coll types.Collection, guestIDs, add, remove []string) (types.Collection, []types.Guest, error) {
	if len(add) == 0 && len(remove) == 0 {
		return coll, nil, types.ValidationError("either tagsToAdd or tagsToRemove array is required")
	}

	targets := make(map[string]bool, len(guestIDs))
	for _, id := range guestIDs {
		targets[id] = true
	}

	ed := coll.Edit()
	updated := make([]types.Guest, 0, len(targets))
	coll.Range(func(g types.Guest) bool {
		if !targets[g.ID] {
			return true
		}
		next := g.Clone()
		next.Tags = EditTags(g.Tags, add, remove)
		ed.Replace(next)
		updated = append(updated, next)
		return true
	})
	return ed.Collection(), updated, nil
}

// EditTags returns tags with every name in remove dropped and then every
// name in add appended if not already present. A name in both lists ends
// up present. Applying the same edit twice gives the same result as
// applying it once. Existing order is kept; the result is never nil.
func EditTags(tags, add, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, t := range remove {
		drop[t] = true
	}

	out := make([]string, 0, len(tags)+len(add))
	seen := make(map[string]bool, len(tags)+len(add))
	for _, t := range tags {
		if drop[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range add {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
