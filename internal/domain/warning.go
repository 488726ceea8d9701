package domain

import "fmt"

// ParseWarning records a field-level parse failure that was recovered by
// defaulting. Warnings are collected per batch and attached to the final
// result instead of aborting it.
type ParseWarning struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("%s: %q: %s", w.Field, w.Value, w.Reason)
}
