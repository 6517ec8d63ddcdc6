package types

import "strings"

// Request and response bodies of the write endpoints.

// DeleteRequest is the body of a bulk guest delete.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// Validate rejects a missing or empty id list.
func (r DeleteRequest) Validate() error {
	if len(r.IDs) == 0 {
		return ValidationError("ids array is required")
	}
	return nil
}

// DeleteResponse reports how many guests a bulk delete removed.
type DeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// TagUpdateRequest adds and removes tag names on a set of guests.
type TagUpdateRequest struct {
	GuestIDs     []string `json:"guestIds"`
	TagsToAdd    []string `json:"tagsToAdd,omitempty"`
	TagsToRemove []string `json:"tagsToRemove,omitempty"`
}

// Validate rejects an empty guest list or a request with no tag changes.
// Blank names are not changes.
func (r TagUpdateRequest) Validate() error {
	if len(r.GuestIDs) == 0 {
		return ValidationError("guestIds array is required")
	}
	if !hasName(r.TagsToAdd) && !hasName(r.TagsToRemove) {
		return ValidationError("either tagsToAdd or tagsToRemove array is required")
	}
	return nil
}

func hasName(names []string) bool {
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			return true
		}
	}
	return false
}

// TagUpdateResponse carries the guests a tag update touched.
type TagUpdateResponse struct {
	Message       string  `json:"message"`
	UpdatedGuests []Guest `json:"updatedGuests"`
}

// TagCreateRequest is the body of a catalog tag creation.
type TagCreateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TagListResponse lists the tag catalog.
type TagListResponse struct {
	Tags []Tag `json:"tags"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
