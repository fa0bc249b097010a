// Package validate checks data crossing the client boundary: server
// payloads before they enter the cache, and user input before it is
// submitted.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mmcdole/trackctl/internal/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			f := fl.Field()
			if f.Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(f.String()) != ""
		})
		v.RegisterStructValidation(pageShape, domain.PaginatedResult{})
		instance = v
	})
	return instance
}

// pageShape holds a page to its metadata: no more rows than the limit, and
// a page count that matches the total.
func pageShape(sl validator.StructLevel) {
	r := sl.Current().Interface().(domain.PaginatedResult)
	if r.Meta.Limit < 1 {
		// Reported by the field tags.
		return
	}
	if len(r.Data) > r.Meta.Limit {
		sl.ReportError(r.Data, "data", "Data", "maxrows", fmt.Sprint(r.Meta.Limit))
	}
	if want := domain.TotalPages(r.Meta.Total, r.Meta.Limit); r.Meta.TotalPages != want {
		sl.ReportError(r.Meta.TotalPages, "totalPages", "TotalPages", "pagecount", fmt.Sprint(want))
	}
}

// Struct runs tag validation on v. Failures become a client-side
// ValidationError whose details name the offending JSON fields.
func Struct(op string, v any) error {
	if err := get().Struct(v); err != nil {
		return toValidationError(op, err, domain.SourceClient)
	}
	return nil
}

// Decode parses body as JSON into T and validates the result. A body that
// does not decode, or decodes to a value failing validation, is an error and
// no partial value is returned.
func Decode[T any](op string, body []byte) (T, error) {
	var zero T
	var out T
	if len(bytes.TrimSpace(body)) == 0 {
		return zero, &domain.ValidationError{Op: op, Message: "empty response body", Source: domain.SourceResponse}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, &domain.ValidationError{
			Op:      op,
			Message: "failed to parse response",
			Details: []string{err.Error()},
			Source:  domain.SourceResponse,
		}
	}
	if err := check(out); err != nil {
		return zero, toValidationError(op, err, domain.SourceResponse)
	}
	return out, nil
}

// check validates structs, and slices or pointers of structs. Other
// shapes have nothing to validate beyond decoding.
func check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.New("null value")
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		return get().Struct(rv.Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return errors.New("null list")
		}
		if rv.Type().Elem().Kind() == reflect.String {
			return get().Var(rv.Interface(), "dive,required")
		}
		for i := 0; i < rv.Len(); i++ {
			if err := check(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Void accepts the body of a response that should carry no data: empty,
// whitespace, or an empty JSON object.
func Void(op string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil && len(obj) == 0 {
		return nil
	}
	return &domain.ValidationError{Op: op, Message: "unexpected response body", Source: domain.SourceResponse}
}

func toValidationError(op string, err error, source domain.ValidationSource) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Op: op, Message: err.Error(), Source: source}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return &domain.ValidationError{
		Op:      op,
		Message: "validation failed",
		Details: details,
		Source:  source,
	}
}

func describe(fe validator.FieldError) string {
	label := "Value"
	if field := fe.Field(); field != "" {
		label = strings.ToUpper(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "url", "http_url", "startswith":
		return label + " must be a valid URL"
	case "maxrows":
		return fmt.Sprintf("%s has more rows than the page limit %s", label, fe.Param())
	case "pagecount":
		return fmt.Sprintf("%s does not match the total (want %s)", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
	}
}
