package types

import (
	"strings"

	"github.com/google/uuid"
)

// RSVPStatus is a guest's attendance answer.
type RSVPStatus string

// RSVP statuses. A guest holds exactly one of these.
const (
	RSVPAttending RSVPStatus = "attending"
	RSVPDeclined  RSVPStatus = "declined"
	RSVPPending   RSVPStatus = "pending"
	RSVPInvited   RSVPStatus = "invited"
)

// validRSVPStatuses is the set of recognized RSVP status values.
var validRSVPStatuses = map[RSVPStatus]bool{
	RSVPAttending: true,
	RSVPDeclined:  true,
	RSVPPending:   true,
	RSVPInvited:   true,
}

// RSVPStatuses lists all statuses in display order.
var RSVPStatuses = []RSVPStatus{RSVPAttending, RSVPDeclined, RSVPPending, RSVPInvited}

// Valid reports whether s is a recognized status.
func (s RSVPStatus) Valid() bool {
	return validRSVPStatuses[s]
}

// ParseRSVPStatus converts s into an RSVPStatus.
// Returns a validation error if s is not a recognized status.
func ParseRSVPStatus(s string) (RSVPStatus, error) {
	status := RSVPStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", ValidationError("invalid rsvpStatus %q (valid: attending, declined, pending, invited)", s)
	}
	return status, nil
}

// Guest is a person tracked for an event.
// Tags is an ordered set: each name appears at most once and the order is
// the order names were first applied.
type Guest struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	RSVPStatus      RSVPStatus `json:"rsvpStatus"`
	InstagramHandle string     `json:"instagramHandle"`
	FollowerCount   int        `json:"followerCount"`
	Tags            []string   `json:"tags"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	InvitedBefore   bool       `json:"invitedBefore"`
	Notes           string     `json:"notes,omitempty"`
}

// HasTag reports whether the guest carries the tag name (exact match).
func (g Guest) HasTag(name string) bool {
	for _, t := range g.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Clone returns a copy of g that does not share its tag slice.
// The copy's Tags is never nil.
func (g Guest) Clone() Guest {
	tags := make([]string, len(g.Tags))
	copy(tags, g.Tags)
	g.Tags = tags
	return g
}

// GuestInput is the payload for creating a guest: every Guest field except
// the id, which the server assigns.
type GuestInput struct {
	FullName        string     `json:"fullName"`
	RSVPStatus      RSVPStatus `json:"rsvpStatus"`
	InstagramHandle string     `json:"instagramHandle"`
	FollowerCount   int        `json:"followerCount"`
	Tags            []string   `json:"tags"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	InvitedBefore   bool       `json:"invitedBefore"`
	Notes           string     `json:"notes,omitempty"`
}

// Validate checks the fields a guest cannot exist without.
// An empty RSVPStatus is accepted; the mutation engine defaults it.
func (in GuestInput) Validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return ValidationError("fullName is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return ValidationError("email is required")
	}
	if in.FollowerCount < 0 {
		return ValidationError("followerCount must not be negative")
	}
	if in.RSVPStatus != "" && !in.RSVPStatus.Valid() {
		return ValidationError("invalid rsvpStatus %q", in.RSVPStatus)
	}
	return nil
}

// Guest builds a Guest with the given id from the input.
// Duplicate tag names are dropped, keeping the first occurrence.
func (in GuestInput) Guest(id string) Guest {
	return Guest{
		ID:              id,
		FullName:        in.FullName,
		RSVPStatus:      in.RSVPStatus,
		InstagramHandle: in.InstagramHandle,
		FollowerCount:   in.FollowerCount,
		Tags:            uniqueNames(in.Tags),
		Email:           in.Email,
		Phone:           in.Phone,
		InvitedBefore:   in.InvitedBefore,
		Notes:           in.Notes,
	}
}

// uniqueNames returns names without duplicates or empty entries, in first
// occurrence order. The result is never nil.
func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// NewGuestID generates a fresh guest id of the form "guest-<UUID v7>".
func NewGuestID() string {
	return "guest-" + newUUID()
}

// NewTagID generates a fresh tag id of the form "tag-<UUID v7>".
func NewTagID() string {
	return "tag-" + newUUID()
}

// newUUID generates a UUID v7, falling back to v4 if v7 generation fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
