package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/gema-admin/internal/models"
)

// Envelope is the wrapper of every backend response.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Errors     json.RawMessage `json:"errors,omitempty"`
	Total      *int            `json:"total,omitempty"`
	Page       *int            `json:"page,omitempty"`
	Limit      *int            `json:"limit,omitempty"`
	TotalPages *int            `json:"totalPages,omitempty"`
}

// Meta carries everything of the envelope other than data.
type Meta struct {
	Message    string
	Pagination models.Pagination
	// HasPagination is set when the backend sent any pagination field.
	HasPagination bool
}

func (e Envelope) meta() Meta {
	meta := Meta{Message: e.Message}
	if e.Total != nil {
		meta.Pagination.Total = *e.Total
		meta.HasPagination = true
	}
	if e.Page != nil {
		meta.Pagination.Page = *e.Page
		meta.HasPagination = true
	}
	if e.Limit != nil {
		meta.Pagination.Limit = *e.Limit
		meta.HasPagination = true
	}
	if e.TotalPages != nil {
		meta.Pagination.TotalPages = *e.TotalPages
		meta.HasPagination = true
	}
	return meta
}

// decodeData unmarshals the data field into out. A null or absent data
// leaves out untouched.
func (e Envelope) decodeData(out interface{}) error {
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// fieldErrors flattens the errors object. The backend sends either
// {field: "message"}, {field: ["message", ...]}, or [{field, message}].
func (e Envelope) fieldErrors() map[string]string {
	if len(e.Errors) == 0 || string(e.Errors) == "null" {
		return nil
	}

	fields := map[string]string{}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(e.Errors, &asMap); err == nil {
		for key, raw := range asMap {
			if msg := firstMessage(raw); msg != "" {
				fields[key] = msg
			}
		}
	} else {
		var asList []struct {
			Field   string `json:"field"`
			Path    string `json:"path"`
			Message string `json:"message"`
			Msg     string `json:"msg"`
		}
		if err := json.Unmarshal(e.Errors, &asList); err == nil {
			for _, item := range asList {
				key := item.Field
				if key == "" {
					key = item.Path
				}
				msg := item.Message
				if msg == "" {
					msg = item.Msg
				}
				if key != "" && msg != "" {
					fields[key] = msg
				}
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func firstMessage(raw json.RawMessage) string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.TrimSpace(many[0])
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
