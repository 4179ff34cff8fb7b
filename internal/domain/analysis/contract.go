package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Contract is implemented by every stage input and output.
type Contract interface {
	Validate() error
}

// SchemaError reports the first field that broke a contract.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s %s", e.Field, e.Reason)
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &SchemaError{Field: field, Reason: "is required"}
	}
	return nil
}

// Valid reports whether s is exactly one of High, Medium, Low.
func (s Severity) Valid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// KnownCategory reports whether t is one of the documented risk categories.
func KnownCategory(t string) bool {
	switch t {
	case CategoryFunctional, CategoryUsability, CategorySecurity, CategoryAccessibility:
		return true
	}
	return false
}

//
// ==== STAGE 1: analyze ====
//

type AnalyzeInput struct {
	ComponentName string `json:"componentName"`
	ComponentCode string `json:"componentCode,omitempty"`
}

func (in AnalyzeInput) Validate() error {
	return required("componentName", in.ComponentName)
}

var (
	chartHeader = regexp.MustCompile(`^(graph|flowchart)\s+(TD|TB|BT|LR|RL)\b`)
	chartLabel  = regexp.MustCompile(`[\[\(\{]+([^\]\)\}]*)[\]\)\}]+`)
	chartAlpha  = regexp.MustCompile(`^[A-Za-z0-9 ]*$`)
)

// ValidateChart checks a user flow chart against the restricted diagram
// alphabet: a graph/flowchart header and node labels made of letters, digits
// and spaces only.
func ValidateChart(chart string) error {
	c := strings.TrimSpace(chart)
	if c == "" {
		return &SchemaError{Field: "userFlowsChart", Reason: "is required"}
	}
	if strings.Contains(c, "```") {
		return &SchemaError{Field: "userFlowsChart", Reason: "must not contain markdown fences"}
	}
	if !chartHeader.MatchString(c) {
		return &SchemaError{Field: "userFlowsChart", Reason: "must start with a graph or flowchart declaration"}
	}
	for _, m := range chartLabel.FindAllStringSubmatch(c, -1) {
		if !chartAlpha.MatchString(m[1]) {
			return &SchemaError{Field: "userFlowsChart", Reason: fmt.Sprintf("node label %q uses characters outside [A-Za-z0-9 ]", m[1])}
		}
	}
	return nil
}

func (a ComponentAnalysis) Validate() error {
	if err := required("purpose", a.Purpose); err != nil {
		return err
	}
	if err := required("userFlows", a.UserFlows); err != nil {
		return err
	}
	if err := required("coreUIUXElements", a.CoreUIUXElements); err != nil {
		return err
	}
	return ValidateChart(a.UserFlowsChart)
}

//
// ==== STAGE 2: identify risks ====
//

type RisksInput struct {
	ComponentName        string `json:"componentName"`
	ComponentDescription string `json:"componentDescription"`
}

func (in RisksInput) Validate() error {
	if err := required("componentName", in.ComponentName); err != nil {
		return err
	}
	return required("componentDescription", in.ComponentDescription)
}

type RisksOutput struct {
	Risks []Risk `json:"risks" jsonschema:"description=A structured list of potential risks associated with the UI component."`
}

func (r Risk) Validate() error {
	if err := required("type", r.Type); err != nil {
		return err
	}
	if err := required("cause", r.Cause); err != nil {
		return err
	}
	if !r.Severity.Valid() {
		return &SchemaError{Field: "severity", Reason: fmt.Sprintf("must be one of High, Medium, Low, got %q", r.Severity)}
	}
	return nil
}

func (out RisksOutput) Validate() error {
	if len(out.Risks) == 0 {
		return &SchemaError{Field: "risks", Reason: "must contain at least one risk"}
	}
	if len(out.Risks) > MaxRisks {
		return &SchemaError{Field: "risks", Reason: fmt.Sprintf("must contain at most %d risks, got %d", MaxRisks, len(out.Risks))}
	}
	for i, r := range out.Risks {
		if err := r.Validate(); err != nil {
			return indexed("risks", i, err)
		}
	}
	return nil
}

//
// ==== STAGE 3: generate suggestions ====
//

type SuggestionsInput struct {
	ComponentName string `json:"componentName"`
	Risks         []Risk `json:"risks"`
}

func (in SuggestionsInput) Validate() error {
	if err := required("componentName", in.ComponentName); err != nil {
		return err
	}
	return RisksOutput{Risks: in.Risks}.Validate()
}

type SuggestionsOutput struct {
	Suggestions []Suggestion `json:"suggestions" jsonschema:"description=One preventative suggestion per identified risk."`
}

func (s Suggestion) Validate() error {
	if err := required("cause", s.Cause); err != nil {
		return err
	}
	return required("remedy", s.Remedy)
}

func (out SuggestionsOutput) Validate() error {
	if len(out.Suggestions) == 0 {
		return &SchemaError{Field: "suggestions", Reason: "must contain at least one suggestion"}
	}
	for i, s := range out.Suggestions {
		if err := s.Validate(); err != nil {
			return indexed("suggestions", i, err)
		}
	}
	return nil
}

//
// ==== STAGE 4: generate checklist ====
//

type ChecklistInput struct {
	ComponentName         string `json:"componentName"`
	ComponentPurpose      string `json:"componentPurpose"`
	ComponentUserFlows    string `json:"componentUserFlows"`
	ComponentUIUXElements string `json:"componentUIUXElements"`
	IdentifiedRisks       string `json:"identifiedRisks"`
	SuggestedFixes        string `json:"suggestedFixes"`
}

func (in ChecklistInput) Validate() error {
	fields := []struct{ name, v string }{
		{"componentName", in.ComponentName},
		{"componentPurpose", in.ComponentPurpose},
		{"componentUserFlows", in.ComponentUserFlows},
		{"componentUIUXElements", in.ComponentUIUXElements},
		{"identifiedRisks", in.IdentifiedRisks},
		{"suggestedFixes", in.SuggestedFixes},
	}
	for _, f := range fields {
		if err := required(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

type ChecklistOutput struct {
	Checklist string `json:"checklist" jsonschema:"description=A concise developer checklist. Each item on a new line starting with a number."`
}

func (out ChecklistOutput) Validate() error {
	if err := required("checklist", out.Checklist); err != nil {
		return err
	}
	if len(ParseChecklist(out.Checklist)) == 0 {
		return &SchemaError{Field: "checklist", Reason: "has no items"}
	}
	return nil
}

// A marker must be followed by whitespace so "1.5s" keeps its number.
var itemPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])(?:\s+|$)`)

// ParseChecklist splits a checklist blob into items, dropping blank lines and
// numbering or bullet prefixes.
func ParseChecklist(text string) []string {
	var items []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		item := strings.TrimSpace(itemPrefix.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

//
// ==== AGGREGATE ====
//

// Validate checks that every part of the aggregate is populated together.
func (r AnalysisResult) Validate() error {
	if err := required("componentName", r.ComponentName); err != nil {
		return err
	}
	if err := r.Analysis.Validate(); err != nil {
		return err
	}
	if err := (RisksOutput{Risks: r.Risks}).Validate(); err != nil {
		return err
	}
	if err := (SuggestionsOutput{Suggestions: r.Suggestions}).Validate(); err != nil {
		return err
	}
	if len(r.Checklist) == 0 {
		return &SchemaError{Field: "checklist", Reason: "has no items"}
	}
	return nil
}

func indexed(field string, i int, err error) error {
	if se, ok := err.(*SchemaError); ok {
		return &SchemaError{Field: fmt.Sprintf("%s[%d].%s", field, i, se.Field), Reason: se.Reason}
	}
	return err
}
