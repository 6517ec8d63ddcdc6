package types

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Tag is a named, colored label from the shared catalog. Color is a display
// hint only; queries match guests by tag name.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagCatalog is the ordered set of known tags. Names are unique under
// case-insensitive comparison. The zero value is an empty catalog.
//
// Guests may carry names that are no longer in the catalog; nothing in
// rumor treats that as an error.
type TagCatalog struct {
	tags []Tag
}

// NewTagCatalog builds a catalog from tags, skipping any whose name
// duplicates an earlier one.
func NewTagCatalog(tags ...Tag) TagCatalog {
	var c TagCatalog
	for _, t := range tags {
		if _, ok := c.Lookup(t.Name); ok {
			continue
		}
		c.tags = append(c.tags, t)
	}
	return c
}

// Len returns the number of tags in the catalog.
func (c TagCatalog) Len() int {
	return len(c.tags)
}

// Tags returns a copy of the catalog in insertion order. Never nil.
func (c TagCatalog) Tags() []Tag {
	out := make([]Tag, len(c.tags))
	copy(out, c.tags)
	return out
}

// Lookup finds a tag by name, ignoring case and surrounding whitespace.
func (c TagCatalog) Lookup(name string) (Tag, bool) {
	key := strings.TrimSpace(name)
	for _, t := range c.tags {
		if strings.EqualFold(t.Name, key) {
			return t, true
		}
	}
	return Tag{}, false
}

// Get finds a tag by id.
func (c TagCatalog) Get(id string) (Tag, bool) {
	for _, t := range c.tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// Add inserts a tag and returns the catalog entry plus whether it was newly
// created. The name is trimmed; a name that matches an existing tag
// case-insensitively returns that tag with created == false. An empty ID
// is generated and an empty color is picked at random.
func (c *TagCatalog) Add(tag Tag) (Tag, bool, error) {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return Tag{}, false, ValidationError("tag name is required")
	}
	if existing, ok := c.Lookup(tag.Name); ok {
		return existing, false, nil
	}
	if tag.ID == "" {
		tag.ID = NewTagID()
	}
	if _, ok := c.Get(tag.ID); ok {
		return Tag{}, false, ValidationError("tag id %q already exists", tag.ID)
	}
	if tag.Color == "" {
		tag.Color = RandomColor()
	}
	c.tags = append(c.tags, tag)
	return tag, true, nil
}

// Remove deletes the tag with the given id. Guests that carry its name are
// left untouched. Returns false if no tag has that id.
func (c *TagCatalog) Remove(id string) bool {
	for i, t := range c.tags {
		if t.ID == id {
			c.tags = append(c.tags[:i:i], c.tags[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a catalog that does not share storage with c.
func (c TagCatalog) Clone() TagCatalog {
	return TagCatalog{tags: c.Tags()}
}

// RandomColor returns a random "#rrggbb" color.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}
