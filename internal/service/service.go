// Package service holds the authoritative guest collection and tag catalog.
//
// A Service answers queries from a read-locked snapshot and serializes every
// mutation behind a single writer lock. Each mutation computes the next
// collection with the mutation engine, persists the change through the
// Backend when one is configured, and only then commits it. A persistence
// failure leaves the held state untouched.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/rumor/internal/mutation"
	"github.com/mesh-intelligence/rumor/internal/query"
	"github.com/mesh-intelligence/rumor/internal/seed"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Backend persists guests and tags. Implementations need not be safe for
// concurrent use; the service calls them under its writer lock.
type Backend interface {
	Load() ([]types.Guest, []types.Tag, error)
	SaveGuests(guests ...types.Guest) error
	DeleteGuests(ids ...string) error
	SaveTag(tag types.Tag) error
	DeleteTag(id string) error
}

// Service owns the guest collection and tag catalog.
type Service struct {
	mu      sync.RWMutex
	guests  types.Collection
	tags    types.TagCatalog
	backend Backend
	log     zerolog.Logger
	metrics *Metrics
}

// Option configures a Service.
type Option func(*options)

type options struct {
	backend Backend
	log     zerolog.Logger
	metrics *Metrics
	guests  []types.Guest
	tags    []types.Tag
	hasTags bool
}

// WithBackend loads initial state from b and persists every mutation to it.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger sets the service logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records mutation counts and query timings to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithGuests adds guests to the initial collection, after any loaded from
// the backend.
func WithGuests(guests ...types.Guest) Option {
	return func(o *options) { o.guests = append(o.guests, guests...) }
}

// WithTags sets the initial tag catalog. Without it, an empty catalog is
// filled with the starter tags.
func WithTags(tags ...types.Tag) Option {
	return func(o *options) {
		o.tags = append(o.tags, tags...)
		o.hasTags = true
	}
}

// New builds a Service. It returns an error if the backend cannot be loaded
// or the initial guests contain an empty or repeated id.
func New(opts ...Option) (*Service, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var guests []types.Guest
	var tags []types.Tag
	if o.backend != nil {
		g, t, err := o.backend.Load()
		if err != nil {
			return nil, fmt.Errorf("loading backend: %w", err)
		}
		guests, tags = g, t
	}
	guests = append(guests, o.guests...)
	tags = append(tags, o.tags...)

	coll, err := types.NewCollection(guests...)
	if err != nil {
		return nil, fmt.Errorf("building collection: %w", err)
	}

	s := &Service{
		guests:  coll,
		tags:    types.NewTagCatalog(tags...),
		backend: o.backend,
		log:     o.log,
		metrics: o.metrics,
	}
	if s.tags.Len() == 0 && !o.hasTags {
		if err := s.seedTags(); err != nil {
			return nil, err
		}
	}
	s.metrics.sizes(s.guests.Len(), s.tags.Len())
	s.log.Info().Int("guests", s.guests.Len()).Int("tags", s.tags.Len()).Msg("service ready")
	return s, nil
}

func (s *Service) seedTags() error {
	for _, t := range seed.StarterTags() {
		if s.backend != nil {
			if err := s.backend.SaveTag(t); err != nil {
				return fmt.Errorf("saving starter tag %s: %w", t.Name, err)
			}
		}
		if _, _, err := s.tags.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// QueryGuests runs req against the current collection.
func (s *Service) QueryGuests(ctx context.Context, req types.QueryRequest) (types.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return types.QueryResult{}, err
	}
	start := time.Now()
	s.mu.RLock()
	coll := s.guests
	s.mu.RUnlock()

	res := query.Run(coll, req)
	s.metrics.observeQuery(time.Since(start).Seconds())
	return res, nil
}

// CreateGuest validates in and adds it as a new guest. Tag names the
// catalog does not hold are added to it first; known names take the
// catalog's spelling.
func (s *Service) CreateGuest(ctx context.Context, in types.GuestInput) (types.Guest, error) {
	if err := ctx.Err(); err != nil {
		return types.Guest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.tags.Clone()
	tags, added, err := resolveTags(&pending, in.Tags)
	var next types.Collection
	var g types.Guest
	if err == nil {
		in.Tags = tags
		next, g, err = mutation.Create(s.guests, in)
	}
	if err == nil {
		err = s.registerTags("create", added)
	}
	if err == nil && s.backend != nil {
		err = s.persist("create", s.backend.SaveGuests(g))
	}
	s.metrics.mutation("create", err)
	if err != nil {
		return types.Guest{}, err
	}
	s.commit(next)
	s.log.Info().Str("id", g.ID).Msg("guest created")
	return g, nil
}

// DeleteGuests removes the guests with the given ids and returns how many
// existed. Unknown ids are ignored. An empty id list is a validation error.
func (s *Service) DeleteGuests(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := (types.DeleteRequest{IDs: ids}).Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, n := mutation.DeleteMany(s.guests, ids)
	var err error
	if n > 0 && s.backend != nil {
		err = s.persist("delete", s.backend.DeleteGuests(ids...))
	}
	s.metrics.mutation("delete", err)
	if err != nil {
		return 0, err
	}
	s.commit(next)
	s.log.Info().Int("requested", len(ids)).Int("deleted", n).Msg("guests deleted")
	return n, nil
}

// UpdateGuestTags applies the tag edit in req to each listed guest and
// returns the guests it changed, in collection order. Added names are
// resolved against the catalog as in CreateGuest, but only when at least
// one guest changes.
func (s *Service) UpdateGuestTags(ctx context.Context, req types.TagUpdateRequest) ([]types.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.tags.Clone()
	tags, added, err := resolveTags(&pending, req.TagsToAdd)
	var next types.Collection
	var updated []types.Guest
	if err == nil {
		next, updated, err = mutation.UpdateTags(s.guests, req.GuestIDs, tags, req.TagsToRemove)
	}
	if err == nil && len(updated) > 0 {
		err = s.registerTags("update_tags", added)
	}
	if err == nil && len(updated) > 0 && s.backend != nil {
		err = s.persist("update_tags", s.backend.SaveGuests(updated...))
	}
	s.metrics.mutation("update_tags", err)
	if err != nil {
		return nil, err
	}
	s.commit(next)
	s.log.Info().
		Int("guests", len(updated)).
		Strs("add", tags).
		Strs("remove", req.TagsToRemove).
		Msg("guest tags updated")
	return updated, nil
}

// ListTags returns the tag catalog in insertion order.
func (s *Service) ListTags(ctx context.Context) ([]types.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tags.Tags(), nil
}

// CreateTag adds a catalog tag. If a tag with the same name already exists
// (ignoring case), it is returned with created false.
func (s *Service) CreateTag(ctx context.Context, req types.TagCreateRequest) (types.Tag, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Tag{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tags.Clone()
	tag, created, err := next.Add(types.Tag{Name: req.Name, Color: req.Color})
	if err == nil && created && s.backend != nil {
		err = s.persist("create_tag", s.backend.SaveTag(tag))
	}
	s.metrics.mutation("create_tag", err)
	if err != nil {
		return types.Tag{}, false, err
	}
	if created {
		s.tags = next
		s.metrics.sizes(s.guests.Len(), s.tags.Len())
		s.log.Info().Str("id", tag.ID).Str("name", tag.Name).Msg("tag created")
	}
	return tag, created, nil
}

// RemoveTag deletes a catalog tag. Guests keep the name. Returns
// ErrNotFound if no tag has the id.
func (s *Service) RemoveTag(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tags.Clone()
	var err error
	if !next.Remove(id) {
		err = fmt.Errorf("tag %s: %w", id, types.ErrNotFound)
	} else if s.backend != nil {
		err = s.persist("remove_tag", s.backend.DeleteTag(id))
	}
	s.metrics.mutation("remove_tag", err)
	if err != nil {
		return err
	}
	s.tags = next
	s.metrics.sizes(s.guests.Len(), s.tags.Len())
	s.log.Info().Str("id", id).Msg("tag removed")
	return nil
}

// Import adds guests with their ids, skipping any whose id the collection
// already knows. Their tag names are resolved against the catalog as in
// CreateGuest. Returns the number added.
func (s *Service) Import(ctx context.Context, guests []types.Guest) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ed := s.guests.Edit()
	pending := s.tags.Clone()
	var added []types.Guest
	var newTags []types.Tag
	for _, g := range guests {
		if g.ID == "" || ed.Known(g.ID) {
			continue
		}
		g = g.Clone()
		tags, fresh, err := resolveTags(&pending, g.Tags)
		if err != nil {
			return 0, err
		}
		g.Tags = tags
		if err := ed.Insert(g); err != nil {
			return 0, err
		}
		added = append(added, g)
		newTags = append(newTags, fresh...)
	}
	err := s.registerTags("import", newTags)
	if err == nil && len(added) > 0 && s.backend != nil {
		err = s.persist("import", s.backend.SaveGuests(added...))
	}
	s.metrics.mutation("import", err)
	if err != nil {
		return 0, err
	}
	s.commit(ed.Collection())
	s.log.Info().Int("read", len(guests)).Int("added", len(added)).Msg("guests imported")
	return len(added), nil
}

// Snapshot returns the current collection and a copy of the tag catalog.
func (s *Service) Snapshot() (types.Collection, types.TagCatalog) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guests, s.tags.Clone()
}

// resolveTags maps names onto the spelling in cat, dropping blanks and
// repeats. Names cat lacks are added to it and also returned as new tags
// for registerTags. Callers pass a clone of s.tags.
func resolveTags(cat *types.TagCatalog, names []string) ([]string, []types.Tag, error) {
	out := make([]string, 0, len(names))
	var added []types.Tag
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, created, err := cat.Add(types.Tag{Name: name})
		if err != nil {
			return nil, nil, err
		}
		if created {
			added = append(added, tag)
		}
		if !slices.Contains(out, tag.Name) {
			out = append(out, tag.Name)
		}
	}
	return out, added, nil
}

// registerTags persists each tag and adds it to the catalog. A tag joins
// the catalog only once it is saved, so the catalog never holds a tag the
// backend lacks. Must be called with s.mu held for writing.
func (s *Service) registerTags(op string, tags []types.Tag) error {
	for _, tag := range tags {
		if s.backend != nil {
			if err := s.persist(op, s.backend.SaveTag(tag)); err != nil {
				return err
			}
		}
		if _, _, err := s.tags.Add(tag); err != nil {
			return err
		}
		s.log.Info().Str("id", tag.ID).Str("name", tag.Name).Msg("tag registered")
	}
	if len(tags) > 0 {
		s.metrics.sizes(s.guests.Len(), s.tags.Len())
	}
	return nil
}

// persist wraps a backend error for op. Must be called with s.mu held.
func (s *Service) persist(op string, err error) error {
	if err == nil {
		return nil
	}
	s.log.Error().Err(err).Str("op", op).Msg("persist failed")
	return fmt.Errorf("persisting %s: %w", op, err)
}

// commit installs next as the current collection. Must be called with s.mu
// held for writing.
func (s *Service) commit(next types.Collection) {
	s.guests = next
	s.metrics.sizes(s.guests.Len(), s.tags.Len())
}
