package models

import (
	"strings"
	"time"
)

// Pagination mirrors the list metadata the backend returns next to data.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one fetched page of records and its server-side pagination.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Stats holds summary counts such as totals by status.
type Stats map[string]int

// DropdownOption is a reference entry used to populate select inputs.
type DropdownOption struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
}

// BulkDeleteRequest is the payload of every bulk-delete endpoint.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResult reports how many records were removed.
type BulkDeleteResult struct {
	DeletedCount int `json:"deletedCount"`
}

// Attachment is file metadata attached to a record.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

// ParseDate accepts the date encodings the backend emits.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
