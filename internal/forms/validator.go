// Package forms holds the create/edit form models of the dashboard, their
// validation rules and the per-form field/error state.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gema-admin/internal/models"
)

// FormErrorKey holds errors that belong to no single field.
const FormErrorKey = "_form"

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{6,19}$`)

// Errors maps field names to display messages.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Validator checks form structs and renders field messages such as
// "Class Name is required".
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator using json tags as field names.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseDate(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("date_after", dateAfter)
	return &Validator{validate: validate}
}

// dateAfter passes when the field is not before the date in the sibling
// field named by the param. Unparseable dates are left to the date rule.
func dateAfter(fl validator.FieldLevel) bool {
	end, ok := models.ParseDate(fl.Field().String())
	if !ok {
		return true
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return true
	}
	other := parent.FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return true
	}
	start, ok := models.ParseDate(other.String())
	if !ok {
		return true
	}
	return !end.Before(start)
}

// Validate returns nil when form passes, otherwise one message per field.
func (v *Validator) Validate(form interface{}) Errors {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return Errors{FormErrorKey: err.Error()}
	}

	root := reflect.Indirect(reflect.ValueOf(form)).Type()
	out := Errors{}
	for _, fe := range validationErrors {
		key := fieldKey(fe.Namespace())
		if out.Has(key) {
			continue
		}
		out[key] = message(root, fe)
	}
	return out
}

// fieldKey strips the struct name from a namespace such as
// "StudentForm.registrationNo" or "SubjectAssignmentForm.subjects[0].subjectName".
func fieldKey(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func message(root reflect.Type, fe validator.FieldError) string {
	field, _ := structField(root, fe.StructNamespace())
	if custom := overrideMessage(field, fe.Tag()); custom != "" {
		return custom
	}

	label := labelOf(field, fe.Field())
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "phone":
		return label + " must be a valid phone number"
	case "date":
		return label + " must be a valid date"
	case "url":
		return label + " must be a valid URL"
	case "date_after", "eqfield":
		siblingNS := fe.StructNamespace()
		if idx := strings.LastIndexByte(siblingNS, '.'); idx >= 0 {
			siblingNS = siblingNS[:idx+1] + param
		}
		sibling, _ := structField(root, siblingNS)
		otherLabel := labelOf(sibling, param)
		if fe.Tag() == "eqfield" {
			return label + " must match " + otherLabel
		}
		return label + " must be after " + otherLabel
	case "min", "gte":
		return bound(label, "at least", param, fe.Kind())
	case "max", "lte":
		return bound(label, "at most", param, fe.Kind())
	case "len":
		return bound(label, "exactly", param, fe.Kind())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, strings.Join(strings.Fields(param), ", "))
	default:
		return label + " is invalid"
	}
}

func bound(label, relation, param string, kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", label, relation, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s must contain %s %s items", label, relation, param)
	default:
		return fmt.Sprintf("%s must be %s %s", label, relation, param)
	}
}

// overrideMessage reads msg:"tag=text;tag=text" struct tags.
func overrideMessage(field reflect.StructField, tag string) string {
	for _, pair := range strings.Split(field.Tag.Get("msg"), ";") {
		key, text, ok := strings.Cut(pair, "=")
		if ok && strings.TrimSpace(key) == tag {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

func labelOf(field reflect.StructField, fallback string) string {
	if label := field.Tag.Get("label"); label != "" {
		return label
	}
	if name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
		return humanize(name)
	}
	return humanize(fallback)
}

// humanize turns "dueDate" into "Due Date".
func humanize(name string) string {
	var b strings.Builder
	for idx, r := range name {
		switch {
		case idx == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func structField(root reflect.Type, namespace string) (reflect.StructField, bool) {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return reflect.StructField{}, false
	}
	t := root
	var field reflect.StructField
	for _, part := range parts[1:] {
		if idx := strings.IndexByte(part, '['); idx >= 0 {
			part = part[:idx]
		}
		for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		f, ok := t.FieldByName(part)
		if !ok {
			return reflect.StructField{}, false
		}
		field = f
		t = f.Type
	}
	return field, true
}
