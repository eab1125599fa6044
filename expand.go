package docqueue

import (
	"fmt"
	"slices"
	"time"
)

// Submission is a request to process a provider for a user as of Timestamp.
type Submission struct {
	Provider  Provider  `json:"provider"`
	UserID    int       `json:"user_id" validate:"gte=0"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

func (s Submission) key() TaskKey {
	return TaskKey{UserID: s.UserID, Provider: s.Provider}
}

// expand turns a submission into the ordered list of submissions that must be
// applied to the store: missing prerequisites first, deepest first, then the
// submission itself. Every prerequisite is submitted no later than the task
// that depends on it will be pending at, so a pending prerequisite is skipped
// only when it is already early enough and is submitted again otherwise.
func (c *Catalog) expand(sub Submission, lookup func(TaskKey) (*TaskRecord, bool)) ([]Submission, error) {
	if !c.Contains(sub.Provider) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, sub.Provider)
	}

	chain, err := c.chain(sub.Provider)
	if err != nil {
		return nil, err
	}

	// bound is the timestamp the dependent of the next prerequisite ends up
	// with once the store keeps the earliest one.
	bound := sub.Timestamp
	if rec, ok := lookup(sub.key()); ok && rec.Timestamp.Before(bound) {
		bound = rec.Timestamp
	}

	out := make([]Submission, 0, len(chain)+1)
	for _, prereq := range chain {
		pre := Submission{Provider: prereq, UserID: sub.UserID, Timestamp: bound}
		if rec, ok := lookup(pre.key()); ok && !rec.Timestamp.After(bound) {
			bound = rec.Timestamp
			continue
		}
		out = append(out, pre)
	}
	slices.Reverse(out)
	return append(out, sub), nil
}
