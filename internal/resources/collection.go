// Package resources exposes one stateless service per backend resource.
// Every method returns the unwrapped envelope data or a single
// *apiclient.Error carrying a display-ready message.
package resources

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// Backend is the subset of the HTTP client the services need.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) (apiclient.Meta, error)
	Post(ctx context.Context, path string, body, out interface{}) (apiclient.Meta, error)
	Put(ctx context.Context, path string, body, out interface{}) (apiclient.Meta, error)
	Patch(ctx context.Context, path string, body, out interface{}) (apiclient.Meta, error)
	Delete(ctx context.Context, path string, out interface{}) (apiclient.Meta, error)
	Upload(ctx context.Context, path string, form apiclient.Multipart, out interface{}) (apiclient.Meta, error)
}

// ListParams are the filters and pagination of a list query.
type ListParams struct {
	Filters map[string]string
	Page    int
	Limit   int
}

// Query serialises the params, dropping empty and "all" filters.
func (p ListParams) Query() url.Values {
	values := apiclient.BuildQuery(p.Filters)
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	return values
}

// FileInput is a file picked for upload.
type FileInput struct {
	Name   string
	Reader io.Reader
}

// collection implements the list/get/create/update/delete/bulk-delete/
// stats/dropdown convention shared by every resource.
type collection[T any, In any] struct {
	backend Backend
	base    string
	noun    string
	logger  zerolog.Logger
}

func newCollection[T any, In any](backend Backend, base, noun string, logger zerolog.Logger) collection[T, In] {
	return collection[T, In]{
		backend: backend,
		base:    base,
		noun:    noun,
		logger:  logger.With().Str("component", noun+"_resource").Logger(),
	}
}

func (c collection[T, In]) path(parts ...string) string {
	return resourcePath(c.base, parts...)
}

// resourcePath joins base with escaped path segments.
func resourcePath(base string, parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, base)
	for _, part := range parts {
		escaped = append(escaped, url.PathEscape(part))
	}
	return strings.Join(escaped, "/")
}

// List returns one page of records matching params.
func (c collection[T, In]) List(ctx context.Context, params ListParams) (models.Page[T], error) {
	var items []T
	meta, err := c.backend.Get(ctx, c.base, params.Query(), &items)
	if err != nil {
		return models.Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}
	return models.Page[T]{Items: items, Pagination: meta.Pagination}, nil
}

// Get returns a single record.
func (c collection[T, In]) Get(ctx context.Context, id string) (T, error) {
	var record T
	if err := requireID(id); err != nil {
		return record, err
	}
	_, err := c.backend.Get(ctx, c.path(id), nil, &record)
	return record, err
}

// Create submits a new record.
func (c collection[T, In]) Create(ctx context.Context, input In) (T, error) {
	var record T
	if _, err := c.backend.Post(ctx, c.base, input, &record); err != nil {
		return record, err
	}
	c.logger.Info().Msg(c.noun + " created")
	return record, nil
}

// Update replaces the editable fields of a record.
func (c collection[T, In]) Update(ctx context.Context, id string, input In) (T, error) {
	var record T
	if err := requireID(id); err != nil {
		return record, err
	}
	if _, err := c.backend.Put(ctx, c.path(id), input, &record); err != nil {
		return record, err
	}
	c.logger.Info().Str("id", id).Msg(c.noun + " updated")
	return record, nil
}

// Delete removes a record.
func (c collection[T, In]) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, err := c.backend.Delete(ctx, c.path(id), nil); err != nil {
		return err
	}
	c.logger.Info().Str("id", id).Msg(c.noun + " deleted")
	return nil
}

// BulkDelete removes several records in one request.
func (c collection[T, In]) BulkDelete(ctx context.Context, ids []string) (models.BulkDeleteResult, error) {
	var result models.BulkDeleteResult
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return result, apiclient.NewValidationError("ids", "Select at least one record")
	}
	if _, err := c.backend.Post(ctx, c.path("bulk-delete"), models.BulkDeleteRequest{IDs: cleaned}, &result); err != nil {
		return result, err
	}
	c.logger.Info().Int("count", len(cleaned)).Msg(c.noun + " bulk deleted")
	return result, nil
}

// Stats returns summary counts.
func (c collection[T, In]) Stats(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{}
	_, err := c.backend.Get(ctx, c.path("stats"), nil, &stats)
	return stats, err
}

// Dropdown returns reference options for select inputs.
func (c collection[T, In]) Dropdown(ctx context.Context) ([]models.DropdownOption, error) {
	var options []models.DropdownOption
	if _, err := c.backend.Get(ctx, c.path("dropdown"), nil, &options); err != nil {
		return nil, err
	}
	if options == nil {
		options = []models.DropdownOption{}
	}
	return options, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apiclient.NewValidationError("id", "Record id is required")
	}
	return nil
}

// prepareFiles validates every file before a single byte is sent.
func prepareFiles(ctx context.Context, field string, files []FileInput, policy apiclient.UploadPolicy) ([]apiclient.FilePart, error) {
	if len(files) == 0 {
		return nil, apiclient.NewValidationError(field, "Select at least one file")
	}
	parts := make([]apiclient.FilePart, 0, len(files))
	for _, file := range files {
		part, err := apiclient.PrepareFile(ctx, field, file.Name, file.Reader, policy)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}
