package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/dashboard"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/refresh"
	"github.com/noah-isme/gema-admin/internal/resources"
)

// listOutput is what list and watch print.
type listOutput struct {
	Items      interface{}       `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	Stats      models.Stats      `json:"stats,omitempty"`
}

// page is a resource page with its element type erased.
type page interface {
	Mount(ctx context.Context) error
	Refresh(ctx context.Context) refresh.Result
	Delete(ctx context.Context, ids []string) (int, error)
	Watch(ctx context.Context) func()
	Output() listOutput
	Close()
}

type binding struct {
	// filters holds every filter key the resource list accepts.
	filters map[string]string
	fetch   func(ctx context.Context, params resources.ListParams) (listOutput, error)
	stats   dashboard.StatsFunc
	newPage func(broadcaster *refresh.Broadcaster, notifier dashboard.Notifier, logger zerolog.Logger) page
}

func bind[T any](
	name string,
	filters map[string]string,
	list func(ctx context.Context, params resources.ListParams) (models.Page[T], error),
	stats dashboard.StatsFunc,
	remove func(ctx context.Context, id string) error,
	bulk func(ctx context.Context, ids []string) (models.BulkDeleteResult, error),
) binding {
	return binding{
		filters: filters,
		fetch: func(ctx context.Context, params resources.ListParams) (listOutput, error) {
			result, err := list(ctx, params)
			if err != nil {
				return listOutput{}, err
			}
			return listOutput{Items: result.Items, Pagination: result.Pagination}, nil
		},
		stats: stats,
		newPage: func(broadcaster *refresh.Broadcaster, notifier dashboard.Notifier, logger zerolog.Logger) page {
			return &typedPage[T]{
				page: dashboard.NewPage(dashboard.PageConfig[T]{
					Resource:    name,
					List:        list,
					Stats:       stats,
					Broadcaster: broadcaster,
					Notifier:    notifier,
					Logger:      logger,
				}),
				remove: remove,
				bulk:   bulk,
			}
		},
	}
}

type typedPage[T any] struct {
	page   *dashboard.Page[T]
	remove func(ctx context.Context, id string) error
	bulk   func(ctx context.Context, ids []string) (models.BulkDeleteResult, error)
}

func (p *typedPage[T]) Mount(ctx context.Context) error { return p.page.Mount(ctx) }

func (p *typedPage[T]) Refresh(ctx context.Context) refresh.Result { return p.page.Refresh(ctx) }

func (p *typedPage[T]) Watch(ctx context.Context) func() { return p.page.Watch(ctx) }

func (p *typedPage[T]) Close() { p.page.Close() }

// Delete removes one record, or several in a single bulk call.
func (p *typedPage[T]) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 1 {
		if err := p.page.Delete(ctx, ids[0], p.remove); err != nil {
			return 0, err
		}
		return 1, nil
	}
	result, err := p.page.BulkDelete(ctx, ids, p.bulk)
	return result.DeletedCount, err
}

func (p *typedPage[T]) Output() listOutput {
	snap := p.page.List().Snapshot()
	stats, _ := p.page.Stats()
	return listOutput{Items: snap.Items, Pagination: snap.Pagination, Stats: stats}
}

func (a *App) bindings() map[string]binding {
	svc := a.services
	return map[string]binding{
		"classes":  bind("classes", resources.ClassFilter{}.Map(), svc.Classes.List, svc.Classes.Stats, svc.Classes.Delete, svc.Classes.BulkDelete),
		"exams":    bind("exams", resources.ExamFilter{}.Map(), svc.Exams.List, svc.Exams.Stats, svc.Exams.Delete, svc.Exams.BulkDelete),
		"homework": bind("homework", resources.HomeworkFilter{}.Map(), svc.Homework.List, svc.Homework.Stats, svc.Homework.Delete, svc.Homework.BulkDelete),
		"students": bind("students", resources.StudentFilter{}.Map(), svc.Students.List, svc.Students.Stats, svc.Students.Delete, svc.Students.BulkDelete),
	}
}

func (a *App) binding(resource string) (binding, error) {
	all := a.bindings()
	b, ok := all[strings.ToLower(strings.TrimSpace(resource))]
	if !ok {
		return binding{}, fmt.Errorf("unknown resource %q (expected one of %s)", resource, strings.Join(resourceNames(), ", "))
	}
	return b, nil
}

func resourceNames() []string {
	return []string{"classes", "exams", "homework", "students"}
}

// parseFilters turns repeated "key=value" flags, each possibly holding a
// comma separated list, into a filter map. Keys outside allowed are
// rejected.
func parseFilters(values []string, allowed map[string]string) (map[string]string, error) {
	filters := map[string]string{}
	for _, value := range values {
		for _, pair := range splitAndTrim(value) {
			key, val, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
			}
			if _, ok := allowed[key]; !ok {
				return nil, fmt.Errorf("unknown filter %q (expected one of %s)", key, strings.Join(sortedKeys(allowed), ", "))
			}
			filters[key] = strings.TrimSpace(val)
		}
	}
	return filters, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
