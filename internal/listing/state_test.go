package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/listing"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/resources"
)

type recordingFetcher struct {
	mu     sync.Mutex
	params []resources.ListParams
	page   models.Page[string]
	err    error
}

func (r *recordingFetcher) fetch(_ context.Context, params resources.ListParams) (models.Page[string], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, params)
	return r.page, r.err
}

func (r *recordingFetcher) last() resources.ListParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params[len(r.params)-1]
}

func newState(fetcher *recordingFetcher, opts listing.Options) *listing.State[string] {
	opts.Logger = zerolog.Nop()
	return listing.New[string](fetcher.fetch, opts)
}

func TestSetFilterOmitsUnsetValues(t *testing.T) {
	fetcher := &recordingFetcher{page: models.Page[string]{Items: []string{"a"}}}
	state := newState(fetcher, listing.Options{})
	defer state.Close()

	require.NoError(t, <-state.SetFilter("status", "all"))
	require.NoError(t, <-state.SetFilter("search", ""))
	query := fetcher.last().Query()
	require.NotContains(t, query, "status")
	require.NotContains(t, query, "search")

	require.NoError(t, <-state.SetFilter("class", "Grade 7"))
	query = fetcher.last().Query()
	require.Equal(t, "Grade 7", query.Get("class"))
	require.Equal(t, "class=Grade+7&limit=10&page=1", query.Encode())
}

func TestChangingFilterResetsPage(t *testing.T) {
	fetcher := &recordingFetcher{}
	state := newState(fetcher, listing.Options{Limit: 20})
	defer state.Close()

	require.NoError(t, <-state.SetPage(3))
	require.Equal(t, 3, fetcher.last().Page)

	require.NoError(t, <-state.SetFilter("section", "B"))
	require.Equal(t, 1, fetcher.last().Page)
	require.Equal(t, 20, fetcher.last().Limit)
	require.Equal(t, 1, state.Snapshot().Page)

	require.NoError(t, <-state.SetPage(2))
	require.NoError(t, <-state.SetFilters(map[string]string{"status": "active"}))
	require.Equal(t, 1, fetcher.last().Page)

	require.NoError(t, <-state.SetPage(4))
	require.NoError(t, <-state.SetLimit(50))
	require.Equal(t, 1, fetcher.last().Page)
	require.Equal(t, 50, fetcher.last().Limit)
}

func TestPaginationComesFromResponse(t *testing.T) {
	fetcher := &recordingFetcher{page: models.Page[string]{
		Items:      []string{"x", "y"},
		Pagination: models.Pagination{Total: 42, Page: 2, Limit: 10, TotalPages: 5},
	}}
	state := newState(fetcher, listing.Options{})
	defer state.Close()

	require.NoError(t, <-state.Mount())
	snap := state.Snapshot()
	require.Equal(t, listing.StatusIdle, snap.Status)
	require.Equal(t, []string{"x", "y"}, snap.Items)
	require.Equal(t, models.Pagination{Total: 42, Page: 2, Limit: 10, TotalPages: 5}, snap.Pagination)
	require.Equal(t, 2, snap.Page)
}

func TestStatusTransitions(t *testing.T) {
	fetcher := &recordingFetcher{page: models.Page[string]{Items: []string{"a"}}}
	state := newState(fetcher, listing.Options{})
	defer state.Close()

	var mu sync.Mutex
	var seen []listing.Status
	state.Subscribe(func(snap listing.Snapshot[string]) {
		mu.Lock()
		seen = append(seen, snap.Status)
		mu.Unlock()
	})

	require.NoError(t, <-state.Refresh())
	mu.Lock()
	require.Equal(t, []listing.Status{listing.StatusLoading, listing.StatusSuccess, listing.StatusIdle}, seen)
	mu.Unlock()

	fetcher.err = errors.New("Request failed")
	require.Error(t, <-state.Refresh())
	mu.Lock()
	require.Equal(t, listing.StatusError, seen[4])
	mu.Unlock()
}

func TestErrorClearsRowsByDefault(t *testing.T) {
	fetcher := &recordingFetcher{page: models.Page[string]{Items: []string{"a", "b"}}}
	state := newState(fetcher, listing.Options{})
	defer state.Close()
	require.NoError(t, <-state.Mount())

	fetcher.err = errors.New("Backend not reachable")
	require.Error(t, <-state.Refresh())
	snap := state.Snapshot()
	require.Empty(t, snap.Items)
	require.EqualError(t, snap.Err, "Backend not reachable")
}

func TestKeepRowsOnError(t *testing.T) {
	fetcher := &recordingFetcher{page: models.Page[string]{Items: []string{"a", "b"}}}
	state := newState(fetcher, listing.Options{KeepRowsOnError: true})
	defer state.Close()
	require.NoError(t, <-state.Mount())

	fetcher.err = errors.New("boom")
	require.Error(t, <-state.Refresh())
	require.Equal(t, []string{"a", "b"}, state.Snapshot().Items)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	fetch := func(ctx context.Context, params resources.ListParams) (models.Page[string], error) {
		if params.Filters["search"] == "old" {
			select {
			case <-ctx.Done():
				<-release
				return models.Page[string]{Items: []string{"stale"}}, nil
			case <-time.After(5 * time.Second):
				return models.Page[string]{}, errors.New("first fetch was never cancelled")
			}
		}
		return models.Page[string]{Items: []string{"fresh"}}, nil
	}
	state := listing.New[string](fetch, listing.Options{Logger: zerolog.Nop()})
	defer state.Close()

	first := state.SetFilter("search", "old")
	second := state.SetFilter("search", "new")
	require.NoError(t, <-second)
	close(release)
	require.ErrorIs(t, <-first, listing.ErrSuperseded)

	snap := state.Snapshot()
	require.Equal(t, []string{"fresh"}, snap.Items)
	require.Equal(t, "new", snap.Filters["search"])
}

func TestCloseStopsNotifications(t *testing.T) {
	started := make(chan struct{})
	fetch := func(ctx context.Context, _ resources.ListParams) (models.Page[string], error) {
		close(started)
		<-ctx.Done()
		return models.Page[string]{}, ctx.Err()
	}
	state := listing.New[string](fetch, listing.Options{Logger: zerolog.Nop()})

	notified := make(chan listing.Snapshot[string], 8)
	state.Subscribe(func(snap listing.Snapshot[string]) { notified <- snap })

	done := state.Mount()
	<-started
	require.Equal(t, listing.StatusLoading, (<-notified).Status)

	state.Close()
	require.ErrorIs(t, <-done, listing.ErrClosed)
	state.Wait()
	require.Len(t, notified, 0)
	require.ErrorIs(t, <-state.Refresh(), listing.ErrClosed)
}
