package testbackend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type record map[string]interface{}

func (r record) id() string {
	id, _ := r["id"].(string)
	return id
}

func (r record) str(key string) string {
	switch value := r[key].(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

// table keeps records in insertion order. unique names the field whose
// value may not repeat.
type table struct {
	label   string
	unique  string
	records []record
}

func newTable(label, unique string) *table {
	return &table{label: label, unique: unique}
}

func toRecord(value interface{}) (record, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	rec := record{}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *table) find(id string) (int, record) {
	for idx, rec := range t.records {
		if rec.id() == id {
			return idx, rec
		}
	}
	return -1, nil
}

// clash returns true when another record already holds rec's unique value.
func (t *table) clash(rec record, selfID string) bool {
	if t.unique == "" {
		return false
	}
	value := strings.TrimSpace(strings.ToLower(rec.str(t.unique)))
	if value == "" {
		return false
	}
	for _, existing := range t.records {
		if existing.id() == selfID {
			continue
		}
		if strings.ToLower(existing.str(t.unique)) == value {
			return true
		}
	}
	return false
}

func (t *table) insert(rec record) record {
	if rec.id() == "" {
		rec["id"] = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = now
	}
	rec["updatedAt"] = now
	t.records = append(t.records, rec)
	return rec
}

func (t *table) remove(id string) bool {
	idx, _ := t.find(id)
	if idx < 0 {
		return false
	}
	t.records = append(t.records[:idx], t.records[idx+1:]...)
	return true
}

// query filters records. search matches any string field; other keys match
// the field of the same name case-insensitively.
func (t *table) query(filters map[string]string) []record {
	matched := make([]record, 0, len(t.records))
	for _, rec := range t.records {
		if matches(rec, filters) {
			matched = append(matched, rec)
		}
	}
	return matched
}

func matches(rec record, filters map[string]string) bool {
	for key, want := range filters {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if key == "search" {
			if !containsAny(rec, want) {
				return false
			}
			continue
		}
		if strings.ToLower(rec.str(key)) != want {
			return false
		}
	}
	return true
}

func containsAny(rec record, needle string) bool {
	for _, value := range rec {
		if text, ok := value.(string); ok && strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

func (t *table) stats() map[string]int {
	stats := map[string]int{"total": len(t.records)}
	for _, rec := range t.records {
		if status := strings.ToLower(rec.str("status")); status != "" {
			stats[status]++
		}
	}
	return stats
}

func paginate(records []record, page, limit int) []record {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(records) {
		return []record{}
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func sortedKeys(values map[string]struct{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
