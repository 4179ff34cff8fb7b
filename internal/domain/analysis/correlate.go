package analysis

// NoRemedyProvided is shown for a risk without a matching suggestion.
const NoRemedyProvided = "No remedy provided"

// Pair is a risk and the suggestion that addresses it, if any.
type Pair struct {
	Risk       Risk        `json:"risk"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// Remedy returns the paired remedy or NoRemedyProvided.
func (p Pair) Remedy() string {
	if p.Suggestion == nil {
		return NoRemedyProvided
	}
	return p.Suggestion.Remedy
}

// Correlate pairs every risk with the first suggestion that addresses it. A
// suggestion matches by risk id when both sides carry one, otherwise by exact
// cause text. Risks keep their order; unmatched risks pair with nil.
func Correlate(risks []Risk, suggestions []Suggestion) []Pair {
	byID := make(map[string]int, len(suggestions))
	byCause := make(map[string]int, len(suggestions))
	for i, s := range suggestions {
		if s.RiskID != "" {
			if _, ok := byID[s.RiskID]; !ok {
				byID[s.RiskID] = i
			}
		}
		if _, ok := byCause[s.Cause]; !ok {
			byCause[s.Cause] = i
		}
	}

	pairs := make([]Pair, 0, len(risks))
	for _, r := range risks {
		p := Pair{Risk: r}
		idx, ok := -1, false
		if r.ID != "" {
			idx, ok = byID[r.ID]
		}
		if !ok {
			idx, ok = byCause[r.Cause]
		}
		if ok {
			s := suggestions[idx]
			p.Suggestion = &s
		}
		pairs = append(pairs, p)
	}
	return pairs
}
