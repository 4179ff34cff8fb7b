package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

const jsonOnly = `You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the response schema you are given.`

// AnalyzeSystem directs the analyze stage.
func AnalyzeSystem() string {
	return `You are an expert UI/UX analyst. Analyze the provided UI component and extract its purpose, user flows, and core UI/UX elements.
` + jsonOnly + `

Requirements:
- purpose: the primary purpose of the component.
- userFlows: the typical user flows involving the component.
- coreUIUXElements: a comprehensive list of the core UI/UX elements present in the component.
- userFlowsChart: a Mermaid graph definition of the user flows using a "graph TD" layout. Node descriptions must be very short and contain only letters, numbers and spaces. Do not include markdown formatting.`
}

// AnalyzeUser renders the analyze stage request.
func AnalyzeUser(in analysis.AnalyzeInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Component Name: %s\n", in.ComponentName)
	if strings.TrimSpace(in.ComponentCode) != "" {
		fmt.Fprintf(&b, "\nComponent Code:\n%s\n", in.ComponentCode)
	}
	b.WriteString("\nProvide a detailed analysis following the schema.")
	return b.String()
}

// RisksSystem directs the identify risks stage.
func RisksSystem() string {
	return fmt.Sprintf(`You are an AI assistant specializing in identifying potential risks in UI components.
%s

Requirements:
- Identify common functional and usability issues for similar components.
- Return at most %d risks, most relevant first.
- type is the risk category, one of: %s, %s, %s, %s.
- cause briefly describes what could cause the risk.
- severity is exactly one of: High, Medium, Low.`,
		jsonOnly, analysis.MaxRisks,
		analysis.CategoryFunctional, analysis.CategoryUsability, analysis.CategorySecurity, analysis.CategoryAccessibility)
}

// RisksUser renders the identify risks stage request.
func RisksUser(in analysis.RisksInput) string {
	return fmt.Sprintf("Component Name: %s\nComponent Description:\n%s", in.ComponentName, in.ComponentDescription)
}

// SuggestionsSystem directs the generate suggestions stage.
func SuggestionsSystem() string {
	return `You are an AI assistant helping developers identify preventative strategies and fixes for potential issues in UI components.
` + jsonOnly + `

Requirements:
- Produce exactly one suggestion per risk, in the same order as the risks.
- riskId, type and cause must be copied exactly from the risk being addressed.
- remedy is clear, actionable advice a developer can implement, tailored to the component.
- Do not make assumptions; rely only on the information provided.
- Plain text only; no markdown in any field.`
}

// SuggestionsUser renders the generate suggestions stage request.
func SuggestionsUser(in analysis.SuggestionsInput) (string, error) {
	risks, err := json.MarshalIndent(in.Risks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal risks: %w", err)
	}
	return fmt.Sprintf("Component Name: %s\nIdentified Risks:\n%s", in.ComponentName, risks), nil
}

// ChecklistSystem directs the generate checklist stage.
func ChecklistSystem() string {
	return `You are an AI assistant designed to generate concise developer checklists for UI components.
` + jsonOnly + `

Requirements:
- checklist summarizes key implementation steps and precautions for the developer.
- Each item is on a new line and starts with a number ("1. ...", "2. ...").
- Do not use markdown formatting.`
}

// ChecklistUser renders the generate checklist stage request.
func ChecklistUser(in analysis.ChecklistInput) string {
	return fmt.Sprintf(`Component Name: %s
Component Purpose: %s
Component User Flows: %s
Component UI/UX Elements: %s
Identified Risks: %s
Suggested Fixes: %s`,
		in.ComponentName, in.ComponentPurpose, in.ComponentUserFlows, in.ComponentUIUXElements,
		in.IdentifiedRisks, in.SuggestedFixes)
}
