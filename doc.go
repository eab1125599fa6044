// Package docqueue implements a priority queue for verification-document
// processing tasks.
//
// Tasks are keyed by user and provider and deduplicated on that key, keeping
// the earliest timestamp. Enqueuing a provider that requires another one
// enqueues the prerequisite first.
//
// The dequeue order follows three policies. Users with at least three pending
// tasks are served first, in the order they reached that count ("Rule of 3").
// Deprioritized providers go to the back of their scope. An age boost exempts
// a deprioritized task from that demotion once its timestamp lies at least
// five minutes past the oldest pending timestamp, so it cannot starve.
//
// Dequeue never blocks; callers poll and handle [ErrEmptyQueue].
package docqueue
