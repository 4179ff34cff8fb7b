package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/bryanwahyu/whatif/internal/domain/ai"
	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

// Stage definition: a name, the system prompt and a renderer for the
// user prompt. I and O are the input and output contracts.
type Stage[I, O analysis.Contract] struct {
	Name   string
	System string
	Render func(I) (string, error)
}

// Invoke runs one stage: input contract, one generator call, output contract.
// It never retries.
func Invoke[I, O analysis.Contract](ctx context.Context, gen ai.Generator, st Stage[I, O], in I) (O, error) {
	var zero O

	if err := in.Validate(); err != nil {
		return zero, &analysis.ContractViolation{Stage: st.Name, Err: err}
	}
	user, err := st.Render(in)
	if err != nil {
		return zero, &analysis.ContractViolation{Stage: st.Name, Err: fmt.Errorf("render request: %w", err)}
	}

	raw, err := gen.Generate(ctx, ai.Request{
		Stage:        st.Name,
		SystemPrompt: st.System,
		UserPrompt:   user,
		Schema:       SchemaFor[O](),
	})
	if err != nil {
		return zero, &analysis.GenerationFailure{Stage: st.Name, Cause: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, &analysis.GenerationFailure{Stage: st.Name, Cause: ai.ErrEmptyResponse}
	}

	var out O
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &analysis.GenerationFailure{Stage: st.Name, Cause: fmt.Errorf("decode output: %w", err)}
	}
	if err := out.Validate(); err != nil {
		return zero, &analysis.GenerationFailure{Stage: st.Name, Cause: err}
	}
	return out, nil
}

// SchemaFor reflects the JSON schema of a stage output type.
func SchemaFor[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	s := reflector.Reflect(v)
	// strict response formats reject meta keywords
	s.Version = ""
	return s
}
