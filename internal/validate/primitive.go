// Package validate implements the validation engine for molecular imports:
// primitive field validators, the per-molecule property validator, and the
// column-mapping validator.
//
// Expected invalidity is reported through result values, never through
// errors: a bad cell in an untrusted CSV is the common case.  The error
// returns that do exist are reserved for infrastructure failures.
package validate

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/chemlattice/molimport/internal/domain/molecule"
)

// Result is the outcome of a single field/value check.
type Result struct {
	Valid bool
	Error string
}

func ok() Result                          { return Result{Valid: true} }
func fail(format string, a ...any) Result { return Result{Error: fmt.Sprintf(format, a...)} }

// Required fails when value is nil or an empty string.
func Required(value interface{}, field string) Result {
	if value == nil {
		return fail("%s is required", field)
	}
	if s, isStr := value.(string); isStr && s == "" {
		return fail("%s is required", field)
	}
	return ok()
}

// StringLength fails when value is not a string or its length (in bytes)
// falls outside [min, max].  Either bound may be nil to leave that side open.
func StringLength(value interface{}, field string, min, max *int) Result {
	s, isStr := value.(string)
	if !isStr {
		return fail("%s must be a string", field)
	}
	if min != nil && len(s) < *min {
		return fail("%s must be at least %d characters", field, *min)
	}
	if max != nil && len(s) > *max {
		return fail("%s must be at most %d characters", field, *max)
	}
	return ok()
}

// asFloat converts the numeric types a property value can arrive as.
func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// NumericRange fails when value is not a finite number or falls outside
// [min, max].  Either bound may be nil; bounds are inclusive.
func NumericRange(value interface{}, field string, min, max *float64) Result {
	n, isNum := asFloat(value)
	if !isNum || math.IsNaN(n) || math.IsInf(n, 0) {
		return fail("%s must be a finite number", field)
	}
	switch {
	case min != nil && max != nil && (n < *min || n > *max):
		return fail("%s must be between %g and %g", field, *min, *max)
	case min != nil && n < *min:
		return fail("%s must be at least %g", field, *min)
	case max != nil && n > *max:
		return fail("%s must be at most %g", field, *max)
	}
	return ok()
}

// Integer fails when value is not a finite whole number or falls outside
// [min, max].
func Integer(value interface{}, field string, min, max *float64) Result {
	if res := NumericRange(value, field, min, max); !res.Valid {
		return res
	}
	n, _ := asFloat(value)
	if n != math.Trunc(n) {
		return fail("%s must be a whole number", field)
	}
	return ok()
}

// Boolean fails when value is not a bool.
func Boolean(value interface{}, field string) Result {
	if _, isBool := value.(bool); !isBool {
		return fail("%s must be a boolean", field)
	}
	return ok()
}

// Email fails when value is not an addr-spec per RFC 5322 (local@domain with
// a dotted domain).
func Email(value interface{}, field string) Result {
	s, isStr := value.(string)
	if !isStr {
		return fail("%s must be a string", field)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndexByte(s, '@')+1:], ".") {
		return fail("%s is not a valid email address", field)
	}
	return ok()
}

// UUID fails when value is not a canonical 8-4-4-4-12 hex UUID of version
// 1 through 5.  The nil UUID carries version 0 and is rejected.
func UUID(value interface{}, field string) Result {
	s, isStr := value.(string)
	if !isStr {
		return fail("%s must be a string", field)
	}
	u, err := uuid.Parse(s)
	if err != nil || len(s) != 36 || u.Version() < 1 || u.Version() > 5 {
		return fail("%s is not a valid UUID", field)
	}
	return ok()
}

// URL fails when value does not parse as a URL with a host (scheme optional).
func URL(value interface{}, field string) Result {
	s, isStr := value.(string)
	if !isStr {
		return fail("%s must be a string", field)
	}
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return fail("%s is not a valid URL", field)
	}
	return ok()
}

// Structure fails when value is not a non-empty string after trimming, or
// when the parser reports the notation as unparsable.  The error return
// surfaces parser-internal failures only.
func Structure(parser molecule.Parser, value interface{}, field string) (Result, error) {
	s, isStr := value.(string)
	if !isStr || strings.TrimSpace(s) == "" {
		return fail("%s must be a non-empty structure notation", field), nil
	}
	parsed, err := parser.Parse(s)
	if err != nil {
		return Result{}, err
	}
	if !parsed.Valid {
		return fail("%s is not a valid structure notation: %s", field, parsed.Reason), nil
	}
	return ok(), nil
}
