// Package scheduler implements the four-priority cooperative task
// queue described in spec §4.K: tasks run to completion on a single
// logical thread, ordered strictly by priority, with no preemption.
//
// New relative to the teacher, which renders and evaluates script
// synchronously with no task queue at all. Grounded in the general
// "typed work item tagged with a priority level, drained highest
// first" idiom EdgeComet's recache subsystem uses for its
// high/normal-priority URL queues (pkg/types.RecacheAPIRequest.Priority,
// internal/edge/recache), adapted from a two-level HTTP-facing queue
// to the four in-process levels spec.md names.
package scheduler

import (
	"time"

	"go.uber.org/zap"
)

// Priority is one of the four cooperative scheduling tiers, ordered
// lowest to highest.
type Priority int

const (
	Idle Priority = iota
	Background
	UserVisible
	UserBlocking

	numPriorities = int(UserBlocking) + 1
)

func (p Priority) String() string {
	switch p {
	case Idle:
		return "idle"
	case Background:
		return "background"
	case UserVisible:
		return "user-visible"
	case UserBlocking:
		return "user-blocking"
	default:
		return "unknown"
	}
}

// Func is a task body. It receives the Scheduler it runs under so it
// may enqueue follow-up tasks of any priority before returning —
// per spec, "yielding means returning from the task body."
type Func func(s *Scheduler)

// Task is a single unit of cooperative work.
type Task struct {
	ID        uint64
	Priority  Priority
	Name      string
	CreatedAt time.Time
	Deadline  *time.Time // advisory only; does not cause cancellation or preemption
	Run       Func
}

// Overdue reports whether t has a deadline that has already passed.
// An overdue task is still dequeued in its normal priority order —
// deadlines in this scheduler are advisory, not a cause for
// reordering or cancellation.
func (t *Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && now.After(*t.Deadline)
}

// Scheduler holds four FIFO queues, one per Priority, and drains them
// highest-priority-first. It is not safe for concurrent use from
// multiple goroutines — per spec §5, a renderer's scheduler runs
// single-threaded cooperative; cross-process parallelism happens
// between renderers, not within one queue.
type Scheduler struct {
	queues [numPriorities][]*Task
	nextID uint64
	log    *zap.Logger
}

// New returns an empty Scheduler. A nil logger defaults to a no-op
// logger, matching internal/domstore.New's convention.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{log: log}
}

// Enqueue appends a new task at the tail of its priority's queue and
// returns its assigned id.
func (s *Scheduler) Enqueue(priority Priority, name string, deadline *time.Time, run Func) uint64 {
	s.nextID++
	t := &Task{
		ID:        s.nextID,
		Priority:  priority,
		Name:      name,
		CreatedAt: time.Now(),
		Deadline:  deadline,
		Run:       run,
	}
	s.queues[priority] = append(s.queues[priority], t)
	s.log.Debug("scheduler: task enqueued",
		zap.Uint64("id", t.ID), zap.String("name", name), zap.String("priority", priority.String()))
	return t.ID
}

// Next dequeues and returns the oldest task at the highest non-empty
// priority level, or nil if every queue is empty.
func (s *Scheduler) Next() *Task {
	return s.NextAtPriority(Idle)
}

// NextAtPriority dequeues the oldest task at the highest non-empty
// priority level at or above min; it never returns a task whose
// priority is below min ("refuses to descend below p").
func (s *Scheduler) NextAtPriority(min Priority) *Task {
	for p := numPriorities - 1; p >= int(min); p-- {
		q := s.queues[p]
		if len(q) == 0 {
			continue
		}
		t := q[0]
		s.queues[p] = q[1:]
		return t
	}
	return nil
}

// Len reports the number of queued (not yet dequeued) tasks across all
// priorities.
func (s *Scheduler) Len() int {
	n := 0
	for _, q := range s.queues {
		n += len(q)
	}
	return n
}

// LenAtPriority reports the queue depth at a single priority.
func (s *Scheduler) LenAtPriority(p Priority) int {
	return len(s.queues[p])
}

// RunAll drains the scheduler by repeatedly calling Next and running
// each task to completion, including any follow-up tasks scheduled
// along the way, until every queue is empty.
func (s *Scheduler) RunAll() {
	for {
		t := s.Next()
		if t == nil {
			return
		}
		s.runOne(t)
	}
}

func (s *Scheduler) runOne(t *Task) {
	if t.Overdue(time.Now()) {
		s.log.Debug("scheduler: running overdue task", zap.Uint64("id", t.ID), zap.String("name", t.Name))
	}
	t.Run(s)
}
