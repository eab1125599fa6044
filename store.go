package docqueue

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

// Ensure store implements [heap.Interface].
var _ heap.Interface = (*store)(nil)

// store keeps at most one record per [TaskKey], together with the number of
// pending records per user. Records live in a heap whose ordering is supplied
// by the scheduler.
type store struct {
	records []*TaskRecord
	byKey   map[TaskKey]*TaskRecord
	perUser map[int]int

	less func(a, b *TaskRecord) bool
}

func newStore(less func(a, b *TaskRecord) bool) *store {
	return &store{
		records: make([]*TaskRecord, 0),
		byKey:   make(map[TaskKey]*TaskRecord),
		perUser: make(map[int]int),
		less:    less,
	}
}

func (s *store) lookup(key TaskKey) (*TaskRecord, bool) {
	rec, ok := s.byKey[key]
	return rec, ok
}

// upsert inserts a record for key, or lowers the timestamp of the existing
// one to the earlier of the two. It reports whether a record was inserted.
func (s *store) upsert(key TaskKey, ts time.Time) (*TaskRecord, bool) {
	if rec, ok := s.byKey[key]; ok {
		if ts.Before(rec.Timestamp) {
			rec.Timestamp = ts
		}
		return rec, false
	}

	rec := &TaskRecord{
		TaskKey:   key,
		ID:        uuid.New(),
		Timestamp: ts,
		index:     -1,
	}
	heap.Push(s, rec)
	return rec, true
}

// remove deletes the record for key, if any.
func (s *store) remove(key TaskKey) (*TaskRecord, bool) {
	rec, ok := s.byKey[key]
	if !ok {
		return nil, false
	}
	heap.Remove(s, rec.index)
	return rec, true
}

// all returns the live records. The slice is a view and must not be retained
// across mutations.
func (s *store) all() []*TaskRecord {
	return s.records
}

func (s *store) clear() {
	for _, rec := range s.records {
		rec.index = -1
	}
	s.records = s.records[:0]
	clear(s.byKey)
	clear(s.perUser)
}

// count returns the number of pending records held by user.
func (s *store) count(user int) int {
	return s.perUser[user]
}

// bounds returns the oldest and newest timestamps over all live records.
func (s *store) bounds() (oldest, newest time.Time, ok bool) {
	for i, rec := range s.records {
		if i == 0 || rec.Timestamp.Before(oldest) {
			oldest = rec.Timestamp
		}
		if i == 0 || rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}
	return oldest, newest, len(s.records) > 0
}

// Len returns the number of live records.
func (s *store) Len() int {
	return len(s.records)
}

// Less delegates to the scheduler's ordering.
func (s *store) Less(i, j int) bool {
	return s.less(s.records[i], s.records[j])
}

// Swap swaps the records at indices i and j. It should not be called
// directly.
func (s *store) Swap(i, j int) {
	s.records[i], s.records[j] = s.records[j], s.records[i]
	s.records[i].index = i
	s.records[j].index = j
}

// Push adds a new record and indexes it. It should not be called directly.
func (s *store) Push(x any) {
	rec := x.(*TaskRecord)
	rec.index = len(s.records)
	s.records = append(s.records, rec)
	s.byKey[rec.TaskKey] = rec
	s.perUser[rec.UserID]++
}

// Pop removes the last record and drops it from the indexes. It should not be
// called directly.
func (s *store) Pop() any {
	old := s.records
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil // avoid memory leak
	rec.index = -1 // for safety
	s.records = old[0 : n-1]

	delete(s.byKey, rec.TaskKey)
	if s.perUser[rec.UserID]--; s.perUser[rec.UserID] <= 0 {
		delete(s.perUser, rec.UserID)
	}
	return rec
}
