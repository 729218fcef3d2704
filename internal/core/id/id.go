// Package id generates and validates tenant and user identifiers.
// Identifiers are UUID strings; tenants created by this service get UUIDv7.
package id

import (
	"github.com/google/uuid"
)

// New returns a new time-ordered identifier.
func New() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}

// Valid reports whether s is a well-formed non-nil identifier.
func Valid(s string) bool {
	v, err := uuid.Parse(s)
	return err == nil && v != uuid.Nil
}

// Normalize returns the canonical lowercase form of s, or "" if s is not valid.
func Normalize(s string) string {
	v, err := uuid.Parse(s)
	if err != nil || v == uuid.Nil {
		return ""
	}
	return v.String()
}
