package ai

import (
	"context"
	"encoding/json"
)

// Request is one rendered stage request.
type Request struct {
	Stage        string
	SystemPrompt string
	UserPrompt   string
	// Schema is the JSON schema the response must conform to.
	Schema json.Marshaler
}

// Generator is the text generation capability. It returns the raw JSON
// document produced for req.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}
