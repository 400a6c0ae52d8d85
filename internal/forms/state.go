package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/gema-admin/internal/apiclient"
)

// ConflictFielder names the field blamed when the backend reports a
// duplicate without saying which field clashed.
type ConflictFielder interface {
	ConflictField() string
}

// State is the field values and error map of one form.
type State[F any] struct {
	validator *Validator
	initial   F
	order     []string

	mu     sync.Mutex
	values F
	errors Errors
	focus  string
}

// NewState creates a form state starting from initial.
func NewState[F any](v *Validator, initial F) *State[F] {
	if v == nil {
		v = NewValidator()
	}
	return &State[F]{
		validator: v,
		initial:   clone(initial),
		order:     fieldOrder(reflect.TypeOf(initial)),
		values:    clone(initial),
		errors:    Errors{},
	}
}

// Values returns a copy of the current values.
func (s *State[F]) Values() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.values)
}

// Errors returns a copy of the error map.
func (s *State[F]) Errors() Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Errors, len(s.errors))
	for key, value := range s.errors {
		out[key] = value
	}
	return out
}

// Error returns the message of one field.
func (s *State[F]) Error(field string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[field]
}

// Focus returns the field that should receive focus, if any.
func (s *State[F]) Focus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Set assigns a top-level field by its json name and clears only that
// field's error.
func (s *State[F]) Set(field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := reflect.ValueOf(&s.values).Elem()
	if err := assign(target, field, value); err != nil {
		return err
	}
	s.clearLocked(field)
	return nil
}

// Update mutates the values directly and clears the errors of the listed
// fields.
func (s *State[F]) Update(fn func(*F), fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.values)
	for _, field := range fields {
		s.clearLocked(field)
	}
}

// Validate runs every rule. On failure the error map is replaced and the
// first invalid field in form order is focused.
func (s *State[F]) Validate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.validator.Validate(s.values)
	if len(errs) == 0 {
		s.errors = Errors{}
		s.focus = ""
		return true
	}
	s.errors = errs
	s.focus = s.firstInvalidLocked()
	return false
}

// SetFieldError records an error on one field and focuses it.
func (s *State[F]) SetFieldError(field, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[field] = msg
	s.focus = field
}

// ApplyError maps a backend failure onto the form. Field errors supplied by
// the backend win; a conflict without them lands on the form's conflict
// field. It returns false when the error is not field specific.
func (s *State[F]) ApplyError(err error) bool {
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return false
	}
	if len(apiErr.Fields) > 0 && (apiErr.Kind == apiclient.KindConflict || apiErr.Kind == apiclient.KindValidation || apiErr.Kind == apiclient.KindHTTP) {
		s.mu.Lock()
		for field, msg := range apiErr.Fields {
			s.errors[field] = msg
		}
		s.focus = s.firstInvalidLocked()
		s.mu.Unlock()
		return true
	}
	if apiErr.Kind != apiclient.KindConflict {
		return false
	}
	conflict, ok := any(s.initial).(ConflictFielder)
	if !ok || conflict.ConflictField() == "" {
		return false
	}
	s.SetFieldError(conflict.ConflictField(), apiErr.Message)
	return true
}

// Reset restores the initial values and clears every error.
func (s *State[F]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = clone(s.initial)
	s.errors = Errors{}
	s.focus = ""
}

// Load replaces the values, e.g. when opening an edit form.
func (s *State[F]) Load(values F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = clone(values)
	s.errors = Errors{}
	s.focus = ""
}

func (s *State[F]) clearLocked(field string) {
	delete(s.errors, field)
	if s.focus == field {
		s.focus = ""
	}
}

func (s *State[F]) firstInvalidLocked() string {
	for _, field := range s.order {
		for key := range s.errors {
			if key == field || strings.HasPrefix(key, field+"[") || strings.HasPrefix(key, field+".") {
				return key
			}
		}
	}
	keys := make([]string, 0, len(s.errors))
	for key := range s.errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func fieldOrder(t reflect.Type) []string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	order := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := jsonName(t.Field(i)); name != "" {
			order = append(order, name)
		}
	}
	return order
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func assign(target reflect.Value, field string, value interface{}) error {
	t := target.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) != field {
			continue
		}
		dst := target.Field(i)
		src := reflect.ValueOf(value)
		if value == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if src.Type().AssignableTo(dst.Type()) {
			dst.Set(src)
			return nil
		}
		if text, ok := value.(string); ok {
			return assignString(dst, field, text)
		}
		if src.Type().ConvertibleTo(dst.Type()) && src.Kind() != reflect.String {
			dst.Set(src.Convert(dst.Type()))
			return nil
		}
		return fmt.Errorf("field %s: cannot assign %T", field, value)
	}
	return fmt.Errorf("unknown field %s", field)
}

func assignString(dst reflect.Value, field, text string) error {
	text = strings.TrimSpace(text)
	switch dst.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		if text == "" {
			dst.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		dst.SetInt(n)
	case reflect.Float64, reflect.Float32:
		if text == "" {
			dst.SetFloat(0)
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		dst.SetBool(b)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("field %s: cannot assign text", field)
		}
		parts := splitAndTrim(text)
		dst.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("field %s: cannot assign text", field)
	}
	return nil
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
