// Package listing keeps the filter, pagination and row state of one list
// page and re-queries the backend whenever it changes.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/resources"
)

// Status is the phase of the list page.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

var (
	// ErrSuperseded is delivered to callers whose fetch was replaced by a newer one.
	ErrSuperseded = errors.New("list fetch superseded by a newer request")
	// ErrClosed is returned once the state has been closed.
	ErrClosed = errors.New("list state closed")
)

// Fetcher loads one page of rows, e.g. (*resources.ClassService).List.
type Fetcher[T any] func(ctx context.Context, params resources.ListParams) (models.Page[T], error)

// Snapshot is an immutable view of the state handed to subscribers.
type Snapshot[T any] struct {
	Status     Status
	Items      []T
	Pagination models.Pagination
	Filters    map[string]string
	Page       int
	Limit      int
	Err        error
	Generation uint64
}

// Options configure a State.
type Options struct {
	Limit int
	// KeepRowsOnError preserves the last good rows when a fetch fails.
	// By default rows are cleared so a failed refresh never shows stale data.
	KeepRowsOnError bool
	Logger          zerolog.Logger
}

// State is the filter/pagination state of one list. It is safe for
// concurrent use.
type State[T any] struct {
	fetch           Fetcher[T]
	keepRowsOnError bool
	logger          zerolog.Logger

	ctx      context.Context
	shutdown context.CancelFunc
	inflight sync.WaitGroup
	notifyMu sync.Mutex

	mu          sync.Mutex
	filters     map[string]string
	page        int
	limit       int
	items       []T
	pagination  models.Pagination
	status      Status
	err         error
	generation  uint64
	cancel      context.CancelFunc
	closed      bool
	subscribers map[int]func(Snapshot[T])
	nextSub     int
}

// New creates an idle list state. Nothing is fetched until Mount, Refresh
// or a filter change.
func New[T any](fetch Fetcher[T], opts Options) *State[T] {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &State[T]{
		fetch:           fetch,
		keepRowsOnError: opts.KeepRowsOnError,
		logger:          opts.Logger.With().Str("component", "list_state").Logger(),
		ctx:             ctx,
		shutdown:        cancel,
		filters:         map[string]string{},
		page:            1,
		limit:           limit,
		items:           []T{},
		status:          StatusIdle,
		subscribers:     map[int]func(Snapshot[T]){},
	}
}

// Subscribe registers fn for every state change and returns a func that
// removes it. fn must not change the state synchronously.
func (s *State[T]) Subscribe(fn func(Snapshot[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Params returns the query the next fetch would send.
func (s *State[T]) Params() resources.ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paramsLocked()
}

// Mount performs the initial fetch.
func (s *State[T]) Mount() <-chan error {
	return s.Refresh()
}

// SetFilter sets one filter, resets the page to 1 and refetches. An empty
// value or "all" means no filter on that key.
func (s *State[T]) SetFilter(key, value string) <-chan error {
	return s.mutate(func() {
		s.filters[key] = value
		s.page = 1
	})
}

// SetFilters replaces several filters at once, resetting the page to 1.
func (s *State[T]) SetFilters(filters map[string]string) <-chan error {
	return s.mutate(func() {
		for key, value := range filters {
			s.filters[key] = value
		}
		s.page = 1
	})
}

// ClearFilters removes every filter and returns to the first page.
func (s *State[T]) ClearFilters() <-chan error {
	return s.mutate(func() {
		s.filters = map[string]string{}
		s.page = 1
	})
}

// SetPage moves to page and refetches.
func (s *State[T]) SetPage(page int) <-chan error {
	if page < 1 {
		page = 1
	}
	return s.mutate(func() { s.page = page })
}

// SetLimit changes the page size and returns to the first page.
func (s *State[T]) SetLimit(limit int) <-chan error {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.mutate(func() {
		s.limit = limit
		s.page = 1
	})
}

// Refresh refetches with the current filters. The returned channel yields
// the outcome of this fetch: nil, the fetch error, ErrSuperseded or
// ErrClosed.
func (s *State[T]) Refresh() <-chan error {
	return s.mutate(func() {})
}

// Wait blocks until every in-flight fetch has finished.
func (s *State[T]) Wait() {
	s.inflight.Wait()
}

// Close cancels in-flight work. No subscriber is called afterwards.
func (s *State[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.subscribers = map[int]func(Snapshot[T]){}
	s.mu.Unlock()
	s.shutdown()
}

func (s *State[T]) mutate(apply func()) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		done <- ErrClosed
		return done
	}
	apply()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.generation++
	generation := s.generation
	params := s.paramsLocked()
	s.status = StatusLoading
	s.err = nil
	snapshot := s.snapshotLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	s.publish(generation, snapshot)

	go func() {
		defer s.inflight.Done()
		defer cancel()
		page, err := s.fetch(ctx, params)
		done <- s.complete(generation, page, err)
	}()
	return done
}

func (s *State[T]) complete(generation uint64, page models.Page[T], err error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", generation).Msg("discarding stale list result")
		return ErrSuperseded
	}

	if err != nil {
		s.status = StatusError
		s.err = err
		if !s.keepRowsOnError {
			s.items = []T{}
			s.pagination = models.Pagination{}
		}
		s.logger.Warn().Err(err).Uint64("generation", generation).Msg("list fetch failed")
	} else {
		s.status = StatusSuccess
		s.items = page.Items
		if s.items == nil {
			s.items = []T{}
		}
		s.pagination = page.Pagination
		if page.Pagination.Page > 0 {
			s.page = page.Pagination.Page
		}
	}
	outcome := s.snapshotLocked()
	s.status = StatusIdle
	idle := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(generation, outcome)
	s.publish(generation, idle)
	return err
}

// publish delivers snap unless a newer generation started meanwhile.
func (s *State[T]) publish(generation uint64, snap Snapshot[T]) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed || generation != s.generation {
		s.mu.Unlock()
		return
	}
	subscribers := make([]func(Snapshot[T]), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snap)
	}
}

func (s *State[T]) paramsLocked() resources.ListParams {
	filters := make(map[string]string, len(s.filters))
	for key, value := range s.filters {
		filters[key] = value
	}
	return resources.ListParams{Filters: filters, Page: s.page, Limit: s.limit}
}

func (s *State[T]) snapshotLocked() Snapshot[T] {
	filters := make(map[string]string, len(s.filters))
	for key, value := range s.filters {
		filters[key] = value
	}
	items := make([]T, len(s.items))
	copy(items, s.items)
	return Snapshot[T]{
		Status:     s.status,
		Items:      items,
		Pagination: s.pagination,
		Filters:    filters,
		Page:       s.page,
		Limit:      s.limit,
		Err:        s.err,
		Generation: s.generation,
	}
}
