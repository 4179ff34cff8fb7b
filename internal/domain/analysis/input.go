package analysis

import (
	"strings"
	"unicode/utf8"
)

// Input limits enforced before the pipeline runs.
const (
	MinNameLength = 3
	MaxNameLength = 100
	MaxCodeBytes  = 200_000
)

// ValidateRequest checks caller supplied input and returns a
// *ValidationError listing every failing field, or nil.
func ValidateRequest(componentName, componentCode string) error {
	verr := &ValidationError{}
	n := utf8.RuneCountInString(strings.TrimSpace(componentName))
	switch {
	case n < MinNameLength:
		verr.Add("componentName", "Component name must be at least 3 characters long.")
	case n > MaxNameLength:
		verr.Add("componentName", "Component name must be 100 characters or less.")
	}
	if len(componentCode) > MaxCodeBytes {
		verr.Add("componentCode", "Component code must be 200000 bytes or less.")
	}
	return verr.OrNil()
}
