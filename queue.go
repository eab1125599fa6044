package docqueue

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/tomasbasham/docqueue/logger"
)

// MetricsHook defines hooks for monitoring enqueue, dequeue, fairness and
// purge events. Hooks are called after the queue lock has been released.
type MetricsHook interface {
	OnEnqueue(rec TaskRecord, inserted bool)
	OnDequeue(rec TaskRecord)
	OnFairness(user int, activatedAt time.Time, active bool)
	OnPurge(removed int)
}

// Queue is a priority queue of verification tasks that supports the
// following operations:
//
//   - Enqueue with automatic prerequisite expansion and deduplication
//   - Dequeue of the highest priority task, failing fast when empty
//   - Peek and Pending to inspect the order without changing it
//   - Size, Age and Purge
//
// Users with at least three distinct pending tasks form the fairness tier and
// are served first, earliest activated first. Deprioritized providers go to
// the back of their scope unless their task has aged past the age boost.
// Everything else is served by ascending timestamp.
//
// All operations are mutually exclusive. A Queue shares no state with other
// queues.
type Queue struct {
	mu sync.Mutex

	catalog *Catalog
	sched   *scheduler
	metrics MetricsHook
	logger  *slog.Logger
}

// New creates a new [Queue] with the given options.
func New(opts ...Option) *Queue {
	o := &Options{
		AgeBoost:          DefaultAgeBoost,
		FairnessThreshold: DefaultFairnessThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Catalog == nil {
		o.Catalog = DefaultCatalog()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return &Queue{
		catalog: o.Catalog,
		sched:   newScheduler(o.Catalog, o.FairnessThreshold, o.FairnessRelease, o.AgeBoost),
		metrics: o.Metrics,
		logger:  o.Logger.With(slog.String("component", "docqueue")),
	}
}

// Catalog returns the catalog the queue was created with.
func (q *Queue) Catalog() *Catalog {
	return q.catalog
}

// Enqueue submits a task for provider and user and returns the number of
// pending tasks afterwards. Missing prerequisites are enqueued first with the
// same timestamp. Enqueuing a pending key again keeps the earlier timestamp.
// On error nothing is enqueued.
func (q *Queue) Enqueue(provider Provider, userID int, ts time.Time) (int, error) {
	return q.Submit(Submission{Provider: provider, UserID: userID, Timestamp: ts})
}

// Submit is Enqueue taking a [Submission].
func (q *Queue) Submit(sub Submission) (int, error) {
	if err := validate.Struct(sub); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	var events []func()

	q.mu.Lock()
	subs, err := q.catalog.expand(sub, q.sched.store.lookup)
	if err != nil {
		q.mu.Unlock()
		q.logger.Warn("rejected submission",
			slog.String("provider", sub.Provider.String()),
			slog.Int("user_id", sub.UserID),
			logger.Error(err),
		)
		return 0, err
	}

	for i, s := range subs {
		rec, inserted := q.sched.store.upsert(s.key(), s.Timestamp)
		snapshot := *rec
		implied := i < len(subs)-1

		if !inserted {
			if implied {
				q.logger.Debug("prerequisite pulled forward",
					slog.String("task", rec.TaskKey.String()),
					slog.String("task_id", rec.ID.String()),
					slog.Time("timestamp", rec.Timestamp),
				)
				continue
			}
			q.logger.Debug("deduplicated task",
				slog.String("task", rec.TaskKey.String()),
				slog.String("task_id", rec.ID.String()),
				slog.Time("timestamp", rec.Timestamp),
			)
			events = append(events, func() { q.metrics.OnEnqueue(snapshot, false) })
			continue
		}

		events = append(events, func() { q.metrics.OnEnqueue(snapshot, true) })
		if q.sched.observe(s.UserID, sub.Timestamp) {
			user := s.UserID
			q.logger.Debug("user entered fairness tier",
				slog.Int("user_id", user),
				slog.Time("activated_at", sub.Timestamp),
			)
			events = append(events, func() { q.metrics.OnFairness(user, sub.Timestamp, true) })
		}
	}
	size := q.sched.store.Len()
	q.mu.Unlock()

	q.emit(events)
	return size, nil
}

// Dequeue removes and returns the highest priority task. It returns
// [ErrEmptyQueue] immediately when nothing is pending.
func (q *Queue) Dequeue() (TaskRecord, error) {
	var events []func()

	q.mu.Lock()
	rec, ok := q.sched.next()
	if !ok {
		q.mu.Unlock()
		return TaskRecord{}, ErrEmptyQueue
	}

	out := *rec
	events = append(events, func() { q.metrics.OnDequeue(out) })

	q.logger.Debug("dequeued task",
		slog.String("task", out.TaskKey.String()),
		slog.String("task_id", out.ID.String()),
	)
	if out.AgeBoosted {
		q.logger.Debug("age boost applied",
			slog.String("task", out.TaskKey.String()),
			slog.String("task_id", out.ID.String()),
		)
	}
	if q.sched.release(out.UserID) {
		user := out.UserID
		q.logger.Debug("user left fairness tier", slog.Int("user_id", user))
		events = append(events, func() { q.metrics.OnFairness(user, time.Time{}, false) })
	}
	q.mu.Unlock()

	q.emit(events)
	return out, nil
}

// Peek returns the task Dequeue would return without removing it.
func (q *Queue) Peek() (TaskRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.sched.peek()
	if !ok {
		return TaskRecord{}, ErrEmptyQueue
	}
	return rec, nil
}

// Pending returns every pending task in the order successive Dequeue calls
// would return them if nothing else were enqueued.
func (q *Queue) Pending() []TaskRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sched.ordered()
}

// FairnessTier returns the users currently in the fairness tier, earliest
// activated first.
func (q *Queue) FairnessTier() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sched.activeUsers()
}

// Drain returns an iterator that dequeues tasks until the queue is empty. It
// never blocks; tasks enqueued while iterating are picked up.
func (q *Queue) Drain() iter.Seq[TaskRecord] {
	return func(yield func(TaskRecord) bool) {
		for {
			rec, err := q.Dequeue()
			if err != nil {
				return
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Size returns the number of pending tasks.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sched.store.Len()
}

// Age returns the spread between the newest and oldest pending timestamps,
// or zero when the queue is empty.
func (q *Queue) Age() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	oldest, newest, ok := q.sched.store.bounds()
	if !ok {
		return 0
	}
	return newest.Sub(oldest)
}

// Purge removes every pending task and all fairness state.
func (q *Queue) Purge() {
	var events []func()

	q.mu.Lock()
	removed := q.sched.store.Len()
	for _, user := range q.sched.activeUsers() {
		events = append(events, func() { q.metrics.OnFairness(user, time.Time{}, false) })
	}
	q.sched.reset()
	q.mu.Unlock()

	q.logger.Debug("purged queue", slog.Int("removed", removed))
	events = append(events, func() { q.metrics.OnPurge(removed) })
	q.emit(events)
}

func (q *Queue) emit(events []func()) {
	if q.metrics == nil {
		return
	}
	for _, e := range events {
		e()
	}
}
