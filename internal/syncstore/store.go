// Package syncstore keeps a client-side view of the guest list in step with
// a server.
//
// A Store holds an immutable State and changes it only through Reduce.
// Observers receive every new State in version order on a single delivery
// goroutine, so an observer may call back into the Store. Fetches carry
// sequence numbers and only the response to the latest issued fetch is
// applied. Mutations are sent to the server first and applied locally only
// once the server confirms them; a failure records the error and leaves the
// view as it was.
package syncstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Server is the channel the store talks through. *client.Client and
// *service.Service both implement it.
type Server interface {
	QueryGuests(ctx context.Context, req types.QueryRequest) (types.QueryResult, error)
	CreateGuest(ctx context.Context, in types.GuestInput) (types.Guest, error)
	DeleteGuests(ctx context.Context, ids []string) (int, error)
	UpdateGuestTags(ctx context.Context, req types.TagUpdateRequest) ([]types.Guest, error)
	ListTags(ctx context.Context) ([]types.Tag, error)
	CreateTag(ctx context.Context, req types.TagCreateRequest) (types.Tag, bool, error)
	RemoveTag(ctx context.Context, id string) error
}

// Defaults for Store options.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultSearchDelay = 300 * time.Millisecond
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store is closed")

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every server request.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithSearchDelay sets how long SetSearch waits for typing to settle.
func WithSearchDelay(d time.Duration) Option {
	return func(s *Store) { s.searchDelay = d }
}

// WithLogger sets the store logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithInitialState starts the store from st instead of InitialState.
func WithInitialState(st State) Option {
	return func(s *Store) { s.state = st }
}

// Store is the client sync store. Safe for concurrent use.
type Store struct {
	server      Server
	log         zerolog.Logger
	timeout     time.Duration
	searchDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int
	closed    bool

	searchTimer *time.Timer
	searchGen   uint64
	pending     sync.WaitGroup

	queue *snapshotQueue
	done  chan struct{}
}

// New returns a Store talking to server. Call Close to stop it.
func New(server Server, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		server:      server,
		log:         zerolog.Nop(),
		timeout:     DefaultTimeout,
		searchDelay: DefaultSearchDelay,
		ctx:         ctx,
		cancel:      cancel,
		state:       InitialState(),
		observers:   make(map[int]func(State)),
		queue:       newSnapshotQueue(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.deliver()
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every later snapshot. The returned
// function unregisters it. fn runs on the delivery goroutine and may call
// any Store method except Close, which waits for that goroutine to finish;
// an observer that wants to stop the store must call Close from a new
// goroutine.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Dispatch reduces a into the state and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) State {
	return s.apply(func(State) Action { return a })
}

// apply reduces the action built from the current state. Building and
// reducing happen under one lock hold, so build sees the state it changes.
func (s *Store) apply(build func(State) Action) State {
	s.mu.Lock()
	next, changed := reduce(s.state, build(s.state))
	if changed {
		next.Version = s.state.Version + 1
		s.state = next
		s.queue.push(next)
	}
	st := s.state
	s.mu.Unlock()
	return st
}

// Fetch issues a query for the current view and applies the response if no
// later fetch has been issued meanwhile.
func (s *Store) Fetch(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	st := s.apply(func(st State) Action { return QueryIssued{Seq: st.IssuedSeq + 1} })
	seq, req := st.IssuedSeq, st.Request()

	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	res, err := s.server.QueryGuests(ctx, req)
	if err != nil {
		err = classify(err)
		s.log.Warn().Err(err).Uint64("seq", seq).Msg("fetch failed")
		s.Dispatch(QueryFailed{Seq: seq, Err: err.Error()})
		return err
	}
	if after := s.Dispatch(QuerySucceeded{Seq: seq, Result: res}); after.AppliedSeq != seq {
		s.log.Debug().Uint64("seq", seq).Uint64("latest", after.IssuedSeq).Msg("stale response discarded")
	}
	return nil
}

// SetFilters replaces the filters, returns to page 1, and fetches.
func (s *Store) SetFilters(ctx context.Context, f types.Filters) error {
	s.Dispatch(SetFilters{Filters: f})
	return s.Fetch(ctx)
}

// UpdateFilters changes the current filters with fn, returns to page 1,
// and fetches. fn receives a private copy.
func (s *Store) UpdateFilters(ctx context.Context, fn func(*types.Filters)) error {
	s.apply(func(st State) Action {
		f := st.Filters.Clone()
		fn(&f)
		return SetFilters{Filters: f}
	})
	return s.Fetch(ctx)
}

// ClearFilters removes every filter, returns to page 1, and fetches.
func (s *Store) ClearFilters(ctx context.Context) error {
	s.Dispatch(ClearFilters{})
	return s.Fetch(ctx)
}

// SetSort sorts by field, toggling the direction if it is already the sort
// field, and fetches page 1.
func (s *Store) SetSort(ctx context.Context, field types.SortField) error {
	s.Dispatch(SetSort{Field: field})
	return s.Fetch(ctx)
}

// SetPage moves to page and fetches it.
func (s *Store) SetPage(ctx context.Context, page int) error {
	s.Dispatch(SetPage{Page: page})
	return s.Fetch(ctx)
}

// SetSearch schedules a search filter change. Calls within the search delay
// of each other collapse into one filter change and fetch using the last
// text. An empty text clears the search filter.
func (s *Store) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.searchGen++
	gen := s.searchGen
	if s.searchTimer != nil && s.searchTimer.Stop() {
		s.pending.Done()
	}
	s.pending.Add(1)
	s.searchTimer = time.AfterFunc(s.searchDelay, func() {
		defer s.pending.Done()
		s.runSearch(gen, text)
	})
}

func (s *Store) runSearch(gen uint64, text string) {
	s.mu.Lock()
	current := gen == s.searchGen && !s.closed
	s.mu.Unlock()
	if !current {
		return
	}
	err := s.UpdateFilters(s.ctx, func(f *types.Filters) {
		if text == "" {
			f.Search = nil
		} else {
			f.Search = &text
		}
	})
	if err != nil && !errors.Is(err, ErrClosed) {
		s.log.Warn().Err(err).Str("search", text).Msg("search fetch failed")
	}
}

// AddGuest creates a guest on the server and, on success, appends it to the
// loaded page.
func (s *Store) AddGuest(ctx context.Context, in types.GuestInput) (types.Guest, error) {
	if err := s.checkOpen(); err != nil {
		return types.Guest{}, err
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	g, err := s.server.CreateGuest(ctx, in)
	if err != nil {
		return types.Guest{}, s.mutationFailed("add guest", err)
	}
	s.Dispatch(GuestAdded{Guest: g})
	return g, nil
}

// DeleteGuests deletes guests on the server. On success the ids leave the
// loaded page, the total drops by len(ids), the selection is cleared, and
// the view is fetched again. A failure of that refetch is recorded in the
// state but not returned.
func (s *Store) DeleteGuests(ctx context.Context, ids []string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	rctx, cancel := s.requestContext(ctx)
	_, err := s.server.DeleteGuests(rctx, ids)
	cancel()
	if err != nil {
		return s.mutationFailed("delete guests", err)
	}
	s.Dispatch(GuestsDeleted{IDs: ids})

	if err := s.Fetch(ctx); err != nil {
		s.log.Warn().Err(err).Msg("refetch after delete failed")
	}
	return nil
}

// UpdateGuestTags edits tags on the server and, on success, applies the
// same edit to the loaded guests and clears the selection. Added names take
// the cached catalog's spelling, as they do on the server; if any name was
// new to the cache, the catalog is reloaded.
func (s *Store) UpdateGuestTags(ctx context.Context, ids, add, remove []string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	req := types.TagUpdateRequest{GuestIDs: ids, TagsToAdd: add, TagsToRemove: remove}
	if _, err := s.server.UpdateGuestTags(ctx, req); err != nil {
		return s.mutationFailed("update tags", err)
	}
	names, unknown := s.catalogNames(add)
	s.Dispatch(GuestTagsUpdated{IDs: ids, Add: names, Remove: remove})
	if unknown {
		s.reloadTags(ctx)
	}
	return nil
}

// catalogNames spells names as the cached catalog does, dropping blanks.
// unknown reports whether the cache lacks any of them.
func (s *Store) catalogNames(names []string) (out []string, unknown bool) {
	cat := types.NewTagCatalog(s.State().Tags...)
	out = make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if tag, ok := cat.Lookup(name); ok {
			name = tag.Name
		} else {
			unknown = true
		}
		out = append(out, name)
	}
	return out, unknown
}

// reloadTags refreshes the cached catalog after an edit the server has
// already applied, so a failure is logged rather than recorded.
func (s *Store) reloadTags(ctx context.Context) {
	tags, err := s.server.ListTags(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("tag reload after edit failed")
		return
	}
	s.Dispatch(TagsLoaded{Tags: tags})
}

// CreateTagAndAddToGuest creates a catalog tag, or reuses the one with the
// same name, caches it, and adds it to the guest.
func (s *Store) CreateTagAndAddToGuest(ctx context.Context, guestID, name string) (types.Tag, error) {
	if err := s.checkOpen(); err != nil {
		return types.Tag{}, err
	}
	rctx, cancel := s.requestContext(ctx)
	tag, _, err := s.server.CreateTag(rctx, types.TagCreateRequest{Name: name})
	cancel()
	if err != nil {
		return types.Tag{}, s.mutationFailed("create tag", err)
	}
	s.Dispatch(TagAdded{Tag: tag})

	if err := s.UpdateGuestTags(ctx, []string{guestID}, []string{tag.Name}, nil); err != nil {
		return tag, err
	}
	return tag, nil
}

// LoadTags replaces the cached catalog with the server's.
func (s *Store) LoadTags(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	tags, err := s.server.ListTags(ctx)
	if err != nil {
		return s.mutationFailed("load tags", err)
	}
	s.Dispatch(TagsLoaded{Tags: tags})
	return nil
}

// RemoveTag deletes a catalog tag on the server and drops it from the
// cache. Guests keep the name.
func (s *Store) RemoveTag(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	if err := s.server.RemoveTag(ctx, id); err != nil {
		return s.mutationFailed("remove tag", err)
	}
	s.Dispatch(TagRemoved{ID: id})
	return nil
}

// Close cancels a pending search, aborts in-flight debounced fetches, and
// waits for queued snapshots to reach observers. Close is idempotent. It
// must not be called from an observer; see Subscribe.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.searchTimer != nil && s.searchTimer.Stop() {
		s.pending.Done()
	}
	s.mu.Unlock()

	s.cancel()
	s.pending.Wait()
	s.queue.close()
	<-s.done
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mutationFailed records err in the state and returns it classified.
func (s *Store) mutationFailed(op string, err error) error {
	err = classify(err)
	s.log.Warn().Err(err).Str("op", op).Msg("mutation failed")
	s.Dispatch(MutationFailed{Err: err.Error()})
	return err
}

// classify makes sure timeouts and unclassified failures carry
// types.ErrTransient. Validation and not-found errors pass through.
func classify(err error) error {
	switch {
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrTransient):
		return err
	default:
		return fmt.Errorf("%w: %w", types.ErrTransient, err)
	}
}

// deliver hands queued snapshots to observers in order until the queue is
// closed and drained.
func (s *Store) deliver() {
	defer close(s.done)
	for {
		st, ok := s.queue.pop()
		if !ok {
			return
		}
		s.mu.Lock()
		obs := make([]func(State), 0, len(s.observers))
		for i := 0; i < s.nextObs; i++ {
			if fn, ok := s.observers[i]; ok {
				obs = append(obs, fn)
			}
		}
		s.mu.Unlock()
		for _, fn := range obs {
			fn(st)
		}
	}
}
