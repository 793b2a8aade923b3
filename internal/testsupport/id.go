package testsupport

import (
	"testing"

	"github.com/google/uuid"
)

// NewJobID returns a fresh job identifier for tests.
func NewJobID(t testing.TB) string {
	t.Helper()
	return uuid.NewString()
}
