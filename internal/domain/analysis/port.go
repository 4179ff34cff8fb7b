package analysis

import (
	"context"
	"time"
)

// Repository port for persisting and fetching a user's analysis history.
type Repository interface {
	// Save stores result for userID and returns the assigned id and timestamp.
	Save(ctx context.Context, userID string, result *AnalysisResult) (string, time.Time, error)
	// Fetch returns at most limit results, most recent first.
	Fetch(ctx context.Context, userID string, limit int) ([]AnalysisResult, error)
}

// Verifier port for identity tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Archive port for exporting a finished report.
type Archive interface {
	Put(ctx context.Context, userID string, result *AnalysisResult) (string, error)
}

// Failure is one recorded Failed(stage) transition.
type Failure struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	ComponentName string    `json:"component_name"`
	Stage         string    `json:"stage"`
	Kind          string    `json:"kind"` // contract | generation
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// FailureJournal port for recording stage failures.
type FailureJournal interface {
	Record(ctx context.Context, f *Failure) error
	// ListByComponent returns userID's failures for componentName, newest first.
	ListByComponent(ctx context.Context, userID, componentName string, limit int) ([]*Failure, error)
}
