// Package gid defines the identifier type used to key Models in a Registry
// and to address them inside References and Commits.
package gid

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ID identifies a Model within a Registry. It wraps either a caller-supplied
// string or an auto-assigned integer, comparable so it can key maps
// directly without boxing through any.
//
// The zero ID is the empty string and is never assigned by [Generate]; it
// is reserved to mean "absent" (e.g. an unresolved reference).
type ID string

// Empty is the zero value, used to signal "no gid assigned".
const Empty ID = ""

// IsEmpty reports whether id is the zero ID.
func (id ID) IsEmpty() bool {
	return id == Empty
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Generate returns a fresh random ID backed by a UUIDv4.
func Generate() ID {
	return ID(uuid.NewString())
}

// FromInt converts a non-negative integer gid (as used by auto-incrementing
// Factories) into an ID.
func FromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// FromAny coerces a decoded JSON value (string or float64, per
// encoding/json's untyped-number convention) into an ID.
func FromAny(v any) (ID, error) {
	switch t := v.(type) {
	case string:
		return ID(t), nil
	case float64:
		return FromInt(int64(t)), nil
	case int:
		return FromInt(int64(t)), nil
	case int64:
		return FromInt(t), nil
	case ID:
		return t, nil
	default:
		return Empty, fmt.Errorf("gid: cannot derive an ID from %T", v)
	}
}
