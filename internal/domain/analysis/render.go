package analysis

import (
	"fmt"
	"io"
	"strings"
)

// RenderText writes a plain text report with risks paired to their remedies.
func RenderText(w io.Writer, r *AnalysisResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis: %s\n", r.ComponentName)
	if r.CreatedAt != nil {
		fmt.Fprintf(&b, "Created:  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	section(&b, "Purpose")
	b.WriteString(strings.TrimSpace(r.Analysis.Purpose) + "\n")
	section(&b, "Core UI/UX Elements")
	b.WriteString(strings.TrimSpace(r.Analysis.CoreUIUXElements) + "\n")
	section(&b, "User Flows")
	b.WriteString(strings.TrimSpace(r.Analysis.UserFlows) + "\n")
	section(&b, "User Flow Diagram")
	b.WriteString(strings.TrimSpace(r.Analysis.UserFlowsChart) + "\n")

	section(&b, "What-If Scenarios")
	for i, p := range Correlate(r.Risks, r.Suggestions) {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, p.Risk.Severity, p.Risk.Type, p.Risk.Cause)
		fmt.Fprintf(&b, "   Remedy: %s\n", p.Remedy())
	}

	section(&b, "Developer Checklist")
	for i, item := range r.Checklist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n" + title + "\n" + strings.Repeat("-", len(title)) + "\n")
}
