package ports

import (
	"context"

	"takforge/domain/core"
)

// RegistryEntry is one recorded generation outcome. The registry is
// append-only: later runs consult it to skip rows that already produced an
// artifact, which is what makes interrupted runs resumable.
type RegistryEntry struct {
	TakID      core.TakID          `json:"tak_id"`
	Filename   string              `json:"filename"`
	Status     core.ArtifactStatus `json:"status"`
	RunID      core.RunID          `json:"run_id"`
	RecordedAt core.Timestamp      `json:"recorded_at"`
}

// RegistryStore persists generation outcomes across runs
type RegistryStore interface {
	// Contains reports whether the row already has a recorded outcome
	Contains(ctx context.Context, id core.TakID) (bool, error)

	// Record appends one outcome; recording an already-present ID is a no-op
	Record(ctx context.Context, entry RegistryEntry) error

	// Get returns the recorded outcome, core.ErrNotFound when absent
	Get(ctx context.Context, id core.TakID) (*RegistryEntry, error)

	// All returns every recorded outcome in recording order
	All(ctx context.Context) ([]RegistryEntry, error)
}
