package analysis

import "time"

// Severity enum
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Documented risk categories. Risk.Type stays open text.
const (
	CategoryFunctional    = "Functional"
	CategoryUsability     = "Usability"
	CategorySecurity      = "Security"
	CategoryAccessibility = "Accessibility"
)

// MaxRisks caps the risks produced by one run.
const MaxRisks = 5

// ComponentAnalysis is the output of the analyze stage.
type ComponentAnalysis struct {
	Purpose          string `json:"purpose" jsonschema:"description=The primary purpose of the UI component."`
	UserFlows        string `json:"userFlows" jsonschema:"description=A description of the typical user flows involving this component."`
	CoreUIUXElements string `json:"coreUIUXElements" jsonschema:"description=A list of the core UI/UX elements present in the component."`
	UserFlowsChart   string `json:"userFlowsChart" jsonschema:"description=A Mermaid graph TD definition of the user flows. Node labels use only letters digits and spaces."`
}

// Risk is one what-if scenario for the component.
type Risk struct {
	// ID is assigned by the pipeline after the risks stage, never by the model.
	ID       string   `json:"id,omitempty" jsonschema:"-"`
	Type     string   `json:"type" jsonschema:"description=The category of the risk (Functional or Usability or Security or Accessibility)."`
	Cause    string   `json:"cause" jsonschema:"description=A brief description of what could cause this risk."`
	Severity Severity `json:"severity" jsonschema:"enum=High,enum=Medium,enum=Low"`
}

// Suggestion is a remedy for a risk. RiskID and Cause are best effort links.
type Suggestion struct {
	RiskID string `json:"riskId" jsonschema:"description=The id of the risk this suggestion addresses."`
	Type   string `json:"type" jsonschema:"description=The category of the risk being addressed."`
	Cause  string `json:"cause" jsonschema:"description=The cause of the risk exactly as given."`
	Remedy string `json:"remedy" jsonschema:"description=A clear and actionable fix or preventative strategy."`
}

// AnalysisResult aggregate root
type AnalysisResult struct {
	ID            string            `json:"id,omitempty"`
	ComponentName string            `json:"componentName"`
	Analysis      ComponentAnalysis `json:"analysis"`
	Risks         []Risk            `json:"risks"`
	Suggestions   []Suggestion      `json:"suggestions"`
	Checklist     []string          `json:"checklist"`
	CreatedAt     *time.Time        `json:"createdAt,omitempty"`
}

// Persisted reports whether the result carries both an id and a timestamp.
func (r AnalysisResult) Persisted() bool {
	return r.ID != "" && r.CreatedAt != nil
}
