// Package validation turns untyped request bodies into typed values.
//
// Constraints are declared with `validate` struct tags and evaluated by
// go-playground/validator. Validate never panics on malformed input: every
// failure is reported as a FieldError.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	CodeInvalidJSON   = "invalid_json"
	CodeInvalidType   = "invalid_type"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidString = "invalid_string"
	CodeCustom        = "custom"
)

type FieldError struct {
	Path    []string `json:"path"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

type Errors struct {
	issues []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.issues))
	for _, issue := range e.issues {
		if len(issue.Path) == 0 {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, strings.Join(issue.Path, ".")+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *Errors) Issues() []FieldError {
	return e.issues
}

// Format groups messages by field:
// {"_errors": [...], "title": {"_errors": [...]}}.
func (e *Errors) Format() map[string]interface{} {
	root := []string{}
	fields := map[string][]string{}
	for _, issue := range e.issues {
		if len(issue.Path) == 0 {
			root = append(root, issue.Message)
			continue
		}
		key := strings.Join(issue.Path, ".")
		fields[key] = append(fields[key], issue.Message)
	}

	out := map[string]interface{}{"_errors": root}
	for key, messages := range fields {
		out[key] = map[string]interface{}{"_errors": messages}
	}
	return out
}

func (e *Errors) add(issue FieldError) {
	e.issues = append(e.issues, issue)
}

func (e *Errors) has(field string) bool {
	for _, issue := range e.issues {
		if len(issue.Path) == 1 && issue.Path[0] == field {
			return true
		}
	}
	return false
}

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

func validate() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New(validator.WithRequiredStructEnabled())
		engine.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
	return engine
}

// Validate decodes raw JSON into dst (a pointer to a schema struct) and checks
// its constraints. It returns nil when dst is valid.
func Validate(raw []byte, dst interface{}) *Errors {
	result := &Errors{}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			result.add(FieldError{Path: []string{}, Code: CodeInvalidJSON, Message: "Malformed JSON body"})
			return result
		}
		result.add(typeError(typeErr))
	}

	if err := validate().Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			result.add(FieldError{Path: []string{}, Code: CodeCustom, Message: err.Error()})
			return result
		}
		for _, fe := range fieldErrs {
			if result.has(fe.Field()) {
				continue
			}
			result.add(constraintError(fe))
		}
	}

	if len(result.issues) == 0 {
		return nil
	}
	return result
}

func typeError(err *json.UnmarshalTypeError) FieldError {
	path := []string{}
	if err.Field != "" {
		path = strings.Split(err.Field, ".")
	}
	expected := "object"
	if err.Type != nil {
		expected = kindName(err.Type)
	}
	return FieldError{
		Path:    path,
		Code:    CodeInvalidType,
		Message: fmt.Sprintf("Expected %s, received %s", expected, err.Value),
	}
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func constraintError(fe validator.FieldError) FieldError {
	issue := FieldError{Path: []string{fe.Field()}}
	switch fe.Tag() {
	case "required":
		issue.Code = CodeInvalidType
		issue.Message = "Required"
	case "min":
		issue.Code = CodeTooSmall
		issue.Message = fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		issue.Code = CodeTooBig
		issue.Message = fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "email":
		issue.Code = CodeInvalidString
		issue.Message = "Invalid email"
	default:
		issue.Code = CodeCustom
		issue.Message = fmt.Sprintf("Failed %s validation", fe.Tag())
	}
	return issue
}
