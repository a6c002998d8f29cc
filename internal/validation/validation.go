// Package validation runs explicit, ordered field checks and collects every
// violation instead of stopping at the first one.
package validation

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gamecatalog/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the collected list of violations for a request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Checker accumulates violations.
type Checker struct {
	errs Errors
}

// Check records msg against field when ok is false.
func (c *Checker) Check(ok bool, field, msg string) {
	if !ok {
		c.Add(field, msg)
	}
}

// Add records a violation unconditionally.
func (c *Checker) Add(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

// Merge appends violations collected elsewhere.
func (c *Checker) Merge(errs Errors) {
	c.errs = append(c.errs, errs...)
}

// Errors returns the violations collected so far, or nil.
func (c *Checker) Errors() Errors {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Length reports whether the trimmed string has between min and max runes.
func Length(s string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= min && n <= max
}

// MaxLength reports whether s has at most max runes.
func MaxLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}

// FloatRange reports whether v is within [min, max].
func FloatRange(v, min, max float64) bool {
	return v >= min && v <= max
}

// IntRange reports whether v is within [min, max].
func IntRange(v, min, max int) bool {
	return v >= min && v <= max
}

// OneOf reports whether v equals one of allowed.
func OneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// IsObjectID reports whether s is a 24-character hex identifier.
func IsObjectID(s string) bool {
	return models.IsValidID(s)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return engine().Var(s, "required,email") == nil
}

// IsURL reports whether s is an absolute URL.
func IsURL(s string) bool {
	return engine().Var(s, "required,url") == nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts an ISO-8601 date or date-time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ObjectIDs checks every element of a reference list and records one
// violation per malformed element.
func (c *Checker) ObjectIDs(field string, ids []string, label string) {
	for i, id := range ids {
		if !IsObjectID(id) {
			c.Add(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("Each %s ID must be a valid ObjectId", label))
		}
	}
}

// Strings checks that every element of a string list is non-empty and at
// most max runes long.
func (c *Checker) Strings(field string, values []string, max int) {
	for i, v := range values {
		if !Length(v, 1, max) {
			c.Add(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("must be between 1 and %d characters", max))
		}
	}
}
