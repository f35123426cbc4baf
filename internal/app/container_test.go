package app

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/services"
)

// A failed store open must leave the repository interface truly nil, not an
// interface wrapping a nil pointer, or every downstream nil check passes and
// the first Record or Recent call panics.
func TestAuditRepositoryFailureYieldsNilInterface(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	audit := newAuditRepository(filepath.Join(blocker, "audit.db"), zap.NewNop())
	if audit != nil {
		t.Fatalf("expected nil interface when the store cannot open, got %T", audit)
	}
}

func TestContainerCloseWithoutAudit(t *testing.T) {
	c := &Container{
		Orchestrator: services.NewOrchestrator(nil, nil),
		Logger:       zap.NewNop(),
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}
