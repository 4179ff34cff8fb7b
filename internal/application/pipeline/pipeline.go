package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/domain/ai"
	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/infra/ai/prompt"
)

// Stage names
const (
	StageAnalyze     = "analyze"
	StageRisks       = "identify_risks"
	StageSuggestions = "generate_suggestions"
	StageChecklist   = "generate_checklist"
)

// State of one run.
type State int

const (
	StateStart State = iota
	StateAnalyzed
	StateRisksIdentified
	StateSuggestionsGenerated
	StateChecklistGenerated
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateAnalyzed:
		return "Analyzed"
	case StateRisksIdentified:
		return "RisksIdentified"
	case StateSuggestionsGenerated:
		return "SuggestionsGenerated"
	case StateChecklistGenerated:
		return "ChecklistGenerated"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transition is reported to an Observer after every state change. Stage is
// set only for transitions into StateFailed.
type Transition struct {
	From, To State
	Stage    string
	Err      error
}

// Observer receives transitions of a run, in order.
type Observer func(Transition)

var (
	analyzeStage = Stage[analysis.AnalyzeInput, analysis.ComponentAnalysis]{
		Name:   StageAnalyze,
		System: prompt.AnalyzeSystem(),
		Render: func(in analysis.AnalyzeInput) (string, error) { return prompt.AnalyzeUser(in), nil },
	}
	risksStage = Stage[analysis.RisksInput, analysis.RisksOutput]{
		Name:   StageRisks,
		System: prompt.RisksSystem(),
		Render: func(in analysis.RisksInput) (string, error) { return prompt.RisksUser(in), nil },
	}
	suggestionsStage = Stage[analysis.SuggestionsInput, analysis.SuggestionsOutput]{
		Name:   StageSuggestions,
		System: prompt.SuggestionsSystem(),
		Render: prompt.SuggestionsUser,
	}
	checklistStage = Stage[analysis.ChecklistInput, analysis.ChecklistOutput]{
		Name:   StageChecklist,
		System: prompt.ChecklistSystem(),
		Render: func(in analysis.ChecklistInput) (string, error) { return prompt.ChecklistUser(in), nil },
	}
)

// Request is the validated caller input.
type Request struct {
	ComponentName string
	ComponentCode string
}

// Pipeline runs the four dependent stages in order and assembles the result.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	Generator ai.Generator
	Observer  Observer
}

func New(gen ai.Generator) *Pipeline {
	return &Pipeline{Generator: gen}
}

type run struct {
	p     *Pipeline
	name  string
	state State
}

func (r *run) advance(to State) {
	from := r.state
	r.state = to
	klog.V(4).Infof("pipeline component=%q %s -> %s", r.name, from, to)
	if r.p.Observer != nil {
		r.p.Observer(Transition{From: from, To: to})
	}
}

func (r *run) fail(stage string, err error) error {
	from := r.state
	r.state = StateFailed
	var cv *analysis.ContractViolation
	if errors.As(err, &cv) {
		klog.Errorf("pipeline component=%q stage=%s contract violation (defect): %v", r.name, stage, cv.Err)
	} else {
		klog.Errorf("pipeline component=%q stage=%s failed in state %s: %v", r.name, stage, from, err)
	}
	if r.p.Observer != nil {
		r.p.Observer(Transition{From: from, To: StateFailed, Stage: stage, Err: err})
	}
	return err
}

// Run executes Analyze, Identify Risks, Generate Suggestions and Generate
// Checklist. The result is returned only when all four succeed; any failure
// aborts immediately with an error matching analysis.ErrAnalysisFailed.
func (p *Pipeline) Run(ctx context.Context, req Request) (*analysis.AnalysisResult, error) {
	r := &run{p: p, name: req.ComponentName, state: StateStart}

	// Start -> Analyzed
	comp, err := Invoke(ctx, p.Generator, analyzeStage, analysis.AnalyzeInput{
		ComponentName: req.ComponentName,
		ComponentCode: req.ComponentCode,
	})
	if err != nil {
		return nil, r.fail(StageAnalyze, err)
	}
	r.advance(StateAnalyzed)

	// Analyzed -> RisksIdentified
	risksOut, err := Invoke(ctx, p.Generator, risksStage, analysis.RisksInput{
		ComponentName:        req.ComponentName,
		ComponentDescription: describe(comp),
	})
	if err != nil {
		return nil, r.fail(StageRisks, err)
	}
	risks := numberRisks(risksOut.Risks)
	r.advance(StateRisksIdentified)

	// RisksIdentified -> SuggestionsGenerated
	sugOut, err := Invoke(ctx, p.Generator, suggestionsStage, analysis.SuggestionsInput{
		ComponentName: req.ComponentName,
		Risks:         risks,
	})
	if err != nil {
		return nil, r.fail(StageSuggestions, err)
	}
	r.advance(StateSuggestionsGenerated)

	// SuggestionsGenerated -> ChecklistGenerated
	identified, err := json.MarshalIndent(risks, "", "  ")
	if err != nil {
		return nil, r.fail(StageChecklist, &analysis.ContractViolation{Stage: StageChecklist, Err: err})
	}
	fixes, err := json.MarshalIndent(sugOut.Suggestions, "", "  ")
	if err != nil {
		return nil, r.fail(StageChecklist, &analysis.ContractViolation{Stage: StageChecklist, Err: err})
	}
	checkOut, err := Invoke(ctx, p.Generator, checklistStage, analysis.ChecklistInput{
		ComponentName:         req.ComponentName,
		ComponentPurpose:      comp.Purpose,
		ComponentUserFlows:    comp.UserFlows,
		ComponentUIUXElements: comp.CoreUIUXElements,
		IdentifiedRisks:       string(identified),
		SuggestedFixes:        string(fixes),
	})
	if err != nil {
		return nil, r.fail(StageChecklist, err)
	}
	r.advance(StateChecklistGenerated)

	// -> Complete
	result := &analysis.AnalysisResult{
		ComponentName: req.ComponentName,
		Analysis:      comp,
		Risks:         risks,
		Suggestions:   sugOut.Suggestions,
		Checklist:     analysis.ParseChecklist(checkOut.Checklist),
	}
	r.advance(StateComplete)
	return result, nil
}

// describe builds the identify risks description from the analysis.
func describe(a analysis.ComponentAnalysis) string {
	return fmt.Sprintf("Purpose: %s\nUser Flows: %s\nCore UI/UX Elements: %s",
		a.Purpose, a.UserFlows, a.CoreUIUXElements)
}

// numberRisks assigns stable ids in generation order.
func numberRisks(in []analysis.Risk) []analysis.Risk {
	out := make([]analysis.Risk, len(in))
	for i, r := range in {
		r.ID = fmt.Sprintf("R%d", i+1)
		if !analysis.KnownCategory(r.Type) {
			klog.V(4).Infof("risk %s has undocumented category %q", r.ID, r.Type)
		}
		out[i] = r
	}
	return out
}
