// Package db holds what the driver specific repositories share: the stored
// payload format and the table definitions.
package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

// payload is the JSON stored in analyses.result_json.
type payload struct {
	Analysis    analysis.ComponentAnalysis `json:"analysis"`
	Risks       []analysis.Risk            `json:"risks"`
	Suggestions []analysis.Suggestion      `json:"suggestions"`
	Checklist   []string                   `json:"checklist"`
}

// NewID returns the id assigned to a saved analysis.
func NewID() string { return uuid.NewString() }

// Stamp returns the created_at assigned on save, rounded to what every
// supported column type stores.
func Stamp(now time.Time) time.Time {
	return now.UTC().Truncate(time.Millisecond)
}

// EncodePayload serializes the generated parts of r.
func EncodePayload(r *analysis.AnalysisResult) (string, error) {
	b, err := json.Marshal(payload{
		Analysis:    r.Analysis,
		Risks:       r.Risks,
		Suggestions: r.Suggestions,
		Checklist:   r.Checklist,
	})
	if err != nil {
		return "", fmt.Errorf("encode analysis payload: %w", err)
	}
	return string(b), nil
}

// DecodeRow rebuilds a persisted result from its columns.
func DecodeRow(id, componentName, resultJSON string, created time.Time) (analysis.AnalysisResult, error) {
	var p payload
	if strings.TrimSpace(resultJSON) != "" {
		if err := json.Unmarshal([]byte(resultJSON), &p); err != nil {
			return analysis.AnalysisResult{}, fmt.Errorf("decode analysis %s: %w", id, err)
		}
	}
	created = created.UTC()
	return analysis.AnalysisResult{
		ID:            id,
		ComponentName: componentName,
		Analysis:      p.Analysis,
		Risks:         p.Risks,
		Suggestions:   p.Suggestions,
		Checklist:     p.Checklist,
		CreatedAt:     &created,
	}, nil
}

// DashIfEmpty returns "-" when s is empty or whitespace.
func DashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
