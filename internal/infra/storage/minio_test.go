package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

func TestKeys(t *testing.T) {
	j, txt := Keys("user-1", "0f8c")
	assert.Equal(t, "user-1/0f8c.json", j)
	assert.Equal(t, "user-1/0f8c.txt", txt)
}

func TestKeysEscapeUserID(t *testing.T) {
	j, _ := Keys("../other/user", "id")
	assert.Equal(t, "..%2Fother%2Fuser/id.json", j)
}

func TestPutRequiresPersistedResult(t *testing.T) {
	s := &Store{}
	_, err := s.Put(context.Background(), "user-1", &analysis.AnalysisResult{ComponentName: "LoginForm"})
	assert.Error(t, err)
}
