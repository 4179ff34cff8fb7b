package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAnalysisFailed is the single caller-facing pipeline failure. Stage
// details stay in logs.
var ErrAnalysisFailed = errors.New("an AI-powered analysis step failed, please try again")

// ErrUnauthenticated is returned by use cases that need a verified user.
var ErrUnauthenticated = errors.New("authentication required")

// ValidationError carries per-field messages for caller supplied input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ContractViolation means an internally built stage request broke its input
// contract. It is a defect in the pipeline, not a user error.
type ContractViolation struct {
	Stage string
	Err   error
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in stage %s: %v", e.Stage, e.Err)
}

func (e *ContractViolation) Unwrap() []error { return []error{ErrAnalysisFailed, e.Err} }

// GenerationFailure means the generator returned nothing, malformed data, an
// error, or output that broke the stage's output contract.
type GenerationFailure struct {
	Stage string
	Cause error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed in stage %s: %v", e.Stage, e.Cause)
}

func (e *GenerationFailure) Unwrap() []error { return []error{ErrAnalysisFailed, e.Cause} }

// PersistenceFailure wraps a rejected save or archive. It never fails a run.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// IdentityFailure wraps a token that could not be verified.
type IdentityFailure struct {
	Err error
}

func (e *IdentityFailure) Error() string {
	return fmt.Sprintf("identity verification failed: %v", e.Err)
}

func (e *IdentityFailure) Unwrap() error { return e.Err }

// StageOf returns the failing stage name carried by err, if any.
func StageOf(err error) (string, bool) {
	var cv *ContractViolation
	if errors.As(err, &cv) {
		return cv.Stage, true
	}
	var gf *GenerationFailure
	if errors.As(err, &gf) {
		return gf.Stage, true
	}
	return "", false
}
