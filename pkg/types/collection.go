package types

// Collection is the guest arena: guests keyed by id plus their insertion
// order. A Collection value is never modified after it is built; changes go
// through Edit, which works on a private copy. The zero value is an empty
// collection.
//
// A Collection also remembers every id it has ever held, so an id removed
// from it cannot be inserted again.
type Collection struct {
	order   []string
	guests  map[string]Guest
	retired map[string]struct{}
}

// NewCollection builds a collection holding guests in the given order.
// Returns a validation error if an id is empty or repeated.
func NewCollection(guests ...Guest) (Collection, error) {
	ed := Collection{}.Edit()
	for _, g := range guests {
		if err := ed.Insert(g); err != nil {
			return Collection{}, err
		}
	}
	return ed.Collection(), nil
}

// Len returns the number of guests.
func (c Collection) Len() int {
	return len(c.order)
}

// Get returns a copy of the guest with the given id.
func (c Collection) Get(id string) (Guest, bool) {
	g, ok := c.guests[id]
	if !ok {
		return Guest{}, false
	}
	return g.Clone(), true
}

// Contains reports whether a guest with the given id is present.
func (c Collection) Contains(id string) bool {
	_, ok := c.guests[id]
	return ok
}

// Known reports whether id is present or was held and later removed.
func (c Collection) Known(id string) bool {
	if c.Contains(id) {
		return true
	}
	_, ok := c.retired[id]
	return ok
}

// Guests returns copies of all guests in insertion order. Never nil.
func (c Collection) Guests() []Guest {
	out := make([]Guest, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.guests[id].Clone())
	}
	return out
}

// Range calls fn for each guest in insertion order until fn returns false.
// fn receives the stored value; it must not modify the guest's Tags.
func (c Collection) Range(fn func(Guest) bool) {
	for _, id := range c.order {
		if !fn(c.guests[id]) {
			return
		}
	}
}

// Edit returns an Editor over a private copy of c.
func (c Collection) Edit() *Editor {
	guests := make(map[string]Guest, len(c.guests))
	for id, g := range c.guests {
		guests[id] = g
	}
	retired := make(map[string]struct{}, len(c.retired))
	for id := range c.retired {
		retired[id] = struct{}{}
	}
	order := make([]string, len(c.order), len(c.order)+1)
	copy(order, c.order)
	return &Editor{order: order, guests: guests, retired: retired}
}

// Editor accumulates changes to a collection copy. It is not safe for
// concurrent use.
type Editor struct {
	order   []string
	guests  map[string]Guest
	retired map[string]struct{}
	removed bool
}

// Known reports whether id is present in the editor or was ever removed.
func (e *Editor) Known(id string) bool {
	if _, ok := e.guests[id]; ok {
		return true
	}
	_, ok := e.retired[id]
	return ok
}

// Insert appends a new guest. Returns a validation error if the id is empty
// or has been used before.
func (e *Editor) Insert(g Guest) error {
	if g.ID == "" {
		return ValidationError("guest id is required")
	}
	if e.Known(g.ID) {
		return ValidationError("guest id %q already used", g.ID)
	}
	e.guests[g.ID] = g.Clone()
	e.order = append(e.order, g.ID)
	return nil
}

// Replace overwrites an existing guest in place, keeping its position.
// Returns false if no guest has that id.
func (e *Editor) Replace(g Guest) bool {
	if _, ok := e.guests[g.ID]; !ok {
		return false
	}
	e.guests[g.ID] = g.Clone()
	return true
}

// Delete removes the guest with the given id and retires the id.
// Returns false if no guest has that id.
func (e *Editor) Delete(id string) bool {
	if _, ok := e.guests[id]; !ok {
		return false
	}
	delete(e.guests, id)
	e.retired[id] = struct{}{}
	e.removed = true
	return true
}

// Collection returns the edited collection. The editor must not be used
// afterwards.
func (e *Editor) Collection() Collection {
	order := e.order
	if e.removed {
		order = make([]string, 0, len(e.guests))
		for _, id := range e.order {
			if _, ok := e.guests[id]; ok {
				order = append(order, id)
			}
		}
	}
	return Collection{order: order, guests: e.guests, retired: e.retired}
}
