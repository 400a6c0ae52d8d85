// Package refresh re-runs the fetches a page depends on after a mutation
// and fans mutation events out to other open consoles.
package refresh

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-admin/internal/observability"
)

// Func is one refreshable fetch.
type Func func(ctx context.Context) error

// Result holds the independent outcomes of a refresh cycle.
type Result struct {
	ListErr  error
	StatsErr error
}

// Err joins both outcomes.
func (r Result) Err() error {
	return errors.Join(r.ListErr, r.StatsErr)
}

// Cycle re-runs the list fetch and the stats fetch of a page as two
// independent calls. A stats failure never affects the list.
type Cycle struct {
	list   Func
	stats  Func
	logger zerolog.Logger
}

// NewCycle builds a refresh cycle. stats may be nil for pages without
// summary counts.
func NewCycle(list, stats Func, logger zerolog.Logger) *Cycle {
	return &Cycle{
		list:   list,
		stats:  stats,
		logger: logger.With().Str("component", "refresh_cycle").Logger(),
	}
}

// Run executes both fetches concurrently and waits for the two outcomes.
func (c *Cycle) Run(ctx context.Context) Result {
	var result Result
	var wg conc.WaitGroup
	if c.list != nil {
		wg.Go(func() { result.ListErr = c.track(ctx, "list", c.list) })
	}
	if c.stats != nil {
		wg.Go(func() { result.StatsErr = c.track(ctx, "stats", c.stats) })
	}
	wg.Wait()
	return result
}

func (c *Cycle) track(ctx context.Context, target string, fn Func) error {
	err := fn(ctx)
	outcome := "success"
	if err != nil {
		outcome = "error"
		c.logger.Warn().Err(err).Str("target", target).Msg("refresh failed")
	}
	observability.RefreshOutcomes().WithLabelValues(target, outcome).Inc()
	return err
}

// Loader is a named reference-data fetch such as a dropdown.
type Loader struct {
	Name string
	Load Func
}

// LoadAll runs loaders concurrently as one group: the first failure
// cancels the others and is returned.
func LoadAll(ctx context.Context, loaders ...Loader) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, loader := range loaders {
		loader := loader
		group.Go(func() error {
			if err := loader.Load(groupCtx); err != nil {
				return fmt.Errorf("load %s: %w", loader.Name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

// LoadEach runs loaders concurrently; each failure is reported under the
// loader's name without affecting its siblings.
func LoadEach(ctx context.Context, loaders ...Loader) map[string]error {
	errs := make([]error, len(loaders))
	var wg conc.WaitGroup
	for idx, loader := range loaders {
		idx, loader := idx, loader
		wg.Go(func() { errs[idx] = loader.Load(ctx) })
	}
	wg.Wait()

	out := map[string]error{}
	for idx, err := range errs {
		if err != nil {
			out[loaders[idx].Name] = err
		}
	}
	return out
}
