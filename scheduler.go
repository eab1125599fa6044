package docqueue

import (
	"cmp"
	"container/heap"
	"fmt"
	"slices"
	"strings"
	"time"
)

// FairnessRelease selects when a user loses the fairness tier once their
// pending count starts to fall.
type FairnessRelease int

const (
	// ReleaseOnDrain keeps the tier until the user has nothing pending, so all
	// of an earlier-activated user's tasks dequeue before any task of a
	// later-activated user.
	ReleaseOnDrain FairnessRelease = iota

	// ReleaseBelowThreshold drops the tier as soon as the user's pending count
	// falls below the fairness threshold.
	ReleaseBelowThreshold
)

var fairnessReleaseNames = map[FairnessRelease]string{
	ReleaseOnDrain:        "drain",
	ReleaseBelowThreshold: "threshold",
}

func (r FairnessRelease) String() string {
	if s, ok := fairnessReleaseNames[r]; ok {
		return s
	}
	return "unknown"
}

// UnmarshalText parses "drain" or "threshold".
func (r *FairnessRelease) UnmarshalText(b []byte) error {
	for k, v := range fairnessReleaseNames {
		if strings.EqualFold(v, string(b)) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown fairness release policy %q", b)
}

// scheduler decides the dequeue order over the records of its store. It owns
// the per-user fairness state; nothing in it is shared between queues.
type scheduler struct {
	catalog   *Catalog
	store     *store
	threshold int
	policy    FairnessRelease
	ageBoost  time.Duration

	// Activation instant per user currently in the fairness tier.
	activations map[int]time.Time

	// Oldest timestamp in the store as of the last evaluation. The age boost
	// is measured against it.
	oldest time.Time
}

func newScheduler(catalog *Catalog, threshold int, policy FairnessRelease, ageBoost time.Duration) *scheduler {
	s := &scheduler{
		catalog:     catalog,
		threshold:   threshold,
		policy:      policy,
		ageBoost:    ageBoost,
		activations: make(map[int]time.Time),
	}
	s.store = newStore(s.less)
	return s
}

// observe records the activation instant for user if inserting a record just
// brought their pending count to the threshold. ts is the timestamp of the
// enqueue call that triggered the insertion. An existing activation instant is
// never recomputed. It reports whether the user was activated.
func (s *scheduler) observe(user int, ts time.Time) bool {
	if _, ok := s.activations[user]; ok {
		return false
	}
	if s.store.count(user) < s.threshold {
		return false
	}
	s.activations[user] = ts
	return true
}

// release clears the activation instant for user when the release policy says
// so. It reports whether the user left the fairness tier.
func (s *scheduler) release(user int) bool {
	if _, ok := s.activations[user]; !ok {
		return false
	}

	n := s.store.count(user)
	switch s.policy {
	case ReleaseBelowThreshold:
		if n >= s.threshold {
			return false
		}
	default:
		if n > 0 {
			return false
		}
	}

	delete(s.activations, user)
	return true
}

// evaluate refreshes the state the comparator depends on. It must run before
// any ordering decision since the oldest record changes with every removal.
func (s *scheduler) evaluate() {
	s.oldest, _, _ = s.store.bounds()
}

// demoted reports whether r sorts behind non-deprioritized records in its
// scope.
func (s *scheduler) demoted(r *TaskRecord) bool {
	if !s.catalog.IsDeprioritized(r.Provider) {
		return false
	}
	return r.Timestamp.Sub(s.oldest) < s.ageBoost
}

// boosted reports whether r is deprioritized but exempt through age.
func (s *scheduler) boosted(r *TaskRecord) bool {
	return s.catalog.IsDeprioritized(r.Provider) && !s.demoted(r)
}

// compare defines the total dequeue order. Records of fairness-active users
// come first, grouped per user by ascending activation instant. Within a group
// and within the remaining records, deprioritized records that are not age
// boosted go last. Ties break on timestamp, user ID, prerequisite depth and
// finally provider name.
func (s *scheduler) compare(a, b *TaskRecord) int {
	aAt, aActive := s.activations[a.UserID]
	bAt, bActive := s.activations[b.UserID]
	if aActive != bActive {
		if aActive {
			return -1
		}
		return 1
	}

	if aActive && a.UserID != b.UserID {
		if c := aAt.Compare(bAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	}

	if aDemoted, bDemoted := s.demoted(a), s.demoted(b); aDemoted != bDemoted {
		if aDemoted {
			return 1
		}
		return -1
	}

	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
		return c
	}
	// Prerequisites share their requester's timestamp.
	if c := cmp.Compare(s.catalog.depth(a.Provider), s.catalog.depth(b.Provider)); c != 0 {
		return c
	}
	return strings.Compare(string(a.Provider), string(b.Provider))
}

func (s *scheduler) less(a, b *TaskRecord) bool {
	return s.compare(a, b) < 0
}

// next removes and returns the record that sorts first. The heap is rebuilt
// on every call because the comparator depends on the store as a whole.
func (s *scheduler) next() (*TaskRecord, bool) {
	if s.store.Len() == 0 {
		return nil, false
	}

	s.evaluate()
	heap.Init(s.store)

	rec, _ := s.store.remove(s.store.records[0].TaskKey)
	rec.AgeBoosted = s.boosted(rec)
	return rec, true
}

// peek returns a copy of the record next would remove.
func (s *scheduler) peek() (TaskRecord, bool) {
	if s.store.Len() == 0 {
		return TaskRecord{}, false
	}

	s.evaluate()
	heap.Init(s.store)

	head := s.store.records[0]
	out := *head
	out.AgeBoosted = s.boosted(head)
	return out, true
}

// ordered returns copies of all records in dequeue order, assuming nothing is
// enqueued in between. Fairness releases caused by the dequeues themselves
// are taken into account.
func (s *scheduler) ordered() []TaskRecord {
	if s.store.Len() == 0 {
		return nil
	}

	// Replay the dequeues against a scratch scheduler so the live fairness
	// state and heap are left untouched.
	scratch := newScheduler(s.catalog, s.threshold, s.policy, s.ageBoost)
	for _, rec := range s.store.all() {
		cp := *rec
		cp.index = -1
		heap.Push(scratch.store, &cp)
	}
	for user, at := range s.activations {
		scratch.activations[user] = at
	}

	out := make([]TaskRecord, 0, s.store.Len())
	for {
		rec, ok := scratch.next()
		if !ok {
			return out
		}
		scratch.release(rec.UserID)
		out = append(out, *rec)
	}
}

// reset drops every record and all fairness state.
func (s *scheduler) reset() {
	s.store.clear()
	clear(s.activations)
	s.oldest = time.Time{}
}

// activeUsers returns users in the fairness tier ordered by activation.
func (s *scheduler) activeUsers() []int {
	users := make([]int, 0, len(s.activations))
	for u := range s.activations {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b int) int {
		if c := s.activations[a].Compare(s.activations[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return users
}
