package docqueue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskKey identifies a pending task. The queue holds at most one record per
// key.
type TaskKey struct {
	UserID   int      `json:"user_id"`
	Provider Provider `json:"provider"`
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%d", k.Provider, k.UserID)
}

// TaskRecord is a pending task. Records handed out by the [Queue] are copies;
// mutating them has no effect on the queue.
type TaskRecord struct {
	TaskKey

	// ID is assigned when the key is first inserted and survives
	// deduplication. It is only meaningful for correlating logs and metrics.
	ID uuid.UUID `json:"id"`

	// Timestamp is the earliest timestamp submitted for the key.
	Timestamp time.Time `json:"timestamp"`

	// AgeBoosted is set on a returned record when it belongs to a
	// deprioritized provider but had waited long enough to compete on
	// timestamp alone during the evaluation that selected it.
	AgeBoosted bool `json:"age_boosted,omitempty"`

	// Position in the store's heap, -1 once removed.
	index int
}
