// Package dashboard composes list state, summary statistics, reference
// data and the mutation-refresh cycle into one page per resource.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/listing"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/refresh"
)

// StatsFunc loads summary counts of a resource.
type StatsFunc func(ctx context.Context) (models.Stats, error)

// PageConfig describes one list page.
type PageConfig[T any] struct {
	// Resource names the backend collection, e.g. "homework".
	Resource string
	List     listing.Fetcher[T]
	Stats    StatsFunc
	// Required reference data; any failure is fatal for the page.
	Required []refresh.Loader
	// Optional reference data; failures are reported per loader.
	Optional    []refresh.Loader
	Listing     listing.Options
	Broadcaster *refresh.Broadcaster
	Notifier    Notifier
	Logger      zerolog.Logger
}

// Page is a mounted resource page.
type Page[T any] struct {
	resource    string
	list        *listing.State[T]
	statsFn     StatsFunc
	required    []refresh.Loader
	optional    []refresh.Loader
	cycle       *refresh.Cycle
	broadcaster *refresh.Broadcaster
	notifier    Notifier
	logger      zerolog.Logger

	mu           sync.RWMutex
	stats        models.Stats
	statsErr     error
	fatal        error
	optionalErrs map[string]error
	unsubscribe  func()
}

// NewPage builds an unmounted page.
func NewPage[T any](cfg PageConfig[T]) *Page[T] {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	cfg.Listing.Logger = cfg.Logger
	p := &Page[T]{
		resource:    cfg.Resource,
		list:        listing.New(cfg.List, cfg.Listing),
		statsFn:     cfg.Stats,
		required:    cfg.Required,
		optional:    cfg.Optional,
		broadcaster: cfg.Broadcaster,
		notifier:    notifier,
		logger:      cfg.Logger.With().Str("component", "page").Str("resource", cfg.Resource).Logger(),
		stats:       models.Stats{},
	}

	var statsRefresh refresh.Func
	if cfg.Stats != nil {
		statsRefresh = p.refreshStats
	}
	p.cycle = refresh.NewCycle(p.refreshList, statsRefresh, cfg.Logger)
	return p
}

// List exposes the filter/pagination state.
func (p *Page[T]) List() *listing.State[T] {
	return p.list
}

// Stats returns the last summary counts and the error of the last fetch.
func (p *Page[T]) Stats() (models.Stats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(models.Stats, len(p.stats))
	for key, value := range p.stats {
		out[key] = value
	}
	return out, p.statsErr
}

// Fatal returns the error that prevented the page from rendering.
func (p *Page[T]) Fatal() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fatal
}

// OptionalErrors returns failures of optional reference loaders.
func (p *Page[T]) OptionalErrors() map[string]error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]error, len(p.optionalErrs))
	for key, value := range p.optionalErrs {
		out[key] = value
	}
	return out
}

// Mount loads reference data, the first page of rows and the stats. A
// failure of required data or of the list is fatal and returned.
func (p *Page[T]) Mount(ctx context.Context) error {
	if len(p.required) > 0 {
		if err := refresh.LoadAll(ctx, p.required...); err != nil {
			return p.fail(err)
		}
	}

	var optionalErrs map[string]error
	var result refresh.Result
	var wg conc.WaitGroup
	wg.Go(func() { result = p.cycle.Run(ctx) })
	if len(p.optional) > 0 {
		optionalErrs = refresh.LoadEach(ctx, p.optional...)
	}
	wg.Wait()

	p.mu.Lock()
	p.optionalErrs = optionalErrs
	p.mu.Unlock()
	for name, err := range optionalErrs {
		p.notifier.Error(fmt.Sprintf("Failed to load %s: %s", name, apiclient.Message(err)))
	}

	if result.ListErr != nil {
		return p.fail(result.ListErr)
	}
	if result.StatsErr != nil {
		p.notifier.Error(apiclient.Message(result.StatsErr))
	}
	return nil
}

func (p *Page[T]) fail(err error) error {
	p.mu.Lock()
	p.fatal = err
	p.mu.Unlock()
	p.logger.Error().Err(err).Msg("page failed to load")
	return err
}

// Refresh re-runs the list and stats fetches.
func (p *Page[T]) Refresh(ctx context.Context) refresh.Result {
	return p.cycle.Run(ctx)
}

// AfterMutation announces a mutation to other consoles and refreshes the
// list and stats. Nothing is spliced locally.
func (p *Page[T]) AfterMutation(ctx context.Context, action string, ids ...string) refresh.Result {
	if err := p.broadcaster.Publish(ctx, p.resource, action, ids...); err != nil {
		p.logger.Warn().Err(err).Str("action", action).Msg("failed to publish mutation event")
	}
	return p.cycle.Run(ctx)
}

// Delete removes one record and refreshes.
func (p *Page[T]) Delete(ctx context.Context, id string, remove func(ctx context.Context, id string) error) error {
	if err := remove(ctx, id); err != nil {
		p.notifier.Error(apiclient.Message(err))
		return err
	}
	p.notifier.Success("Deleted successfully")
	p.AfterMutation(ctx, refresh.ActionDeleted, id)
	return nil
}

// BulkDelete removes several records in one call and refreshes.
func (p *Page[T]) BulkDelete(ctx context.Context, ids []string, remove func(ctx context.Context, ids []string) (models.BulkDeleteResult, error)) (models.BulkDeleteResult, error) {
	result, err := remove(ctx, ids)
	if err != nil {
		p.notifier.Error(apiclient.Message(err))
		return result, err
	}
	p.notifier.Success(fmt.Sprintf("%d records deleted", result.DeletedCount))
	p.AfterMutation(ctx, refresh.ActionBulkDeleted, ids...)
	return result, nil
}

// Watch refreshes the page whenever another console mutates the same
// resource. The returned func stops watching.
func (p *Page[T]) Watch(ctx context.Context) func() {
	stop := p.broadcaster.OnEvent(func(event refresh.Event) {
		if event.Resource != p.resource {
			return
		}
		p.logger.Info().Str("action", event.Action).Str("source", event.Source).Msg("remote mutation, refreshing")
		p.cycle.Run(ctx)
	})
	p.mu.Lock()
	p.unsubscribe = stop
	p.mu.Unlock()
	return stop
}

// Close cancels in-flight fetches and stops watching.
func (p *Page[T]) Close() {
	p.mu.Lock()
	stop := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
	p.list.Close()
}

func (p *Page[T]) refreshList(ctx context.Context) error {
	select {
	case err := <-p.list.Refresh():
		if errors.Is(err, listing.ErrSuperseded) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page[T]) refreshStats(ctx context.Context) error {
	stats, err := p.statsFn(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.statsErr = err
		return err
	}
	p.stats = stats
	p.statsErr = nil
	return nil
}
