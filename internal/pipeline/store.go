package pipeline

import (
	"fmt"
	"sync"
)

// EventKind labels a store mutation event.
type EventKind string

// Event kinds.
const (
	EventPipelineStatus EventKind = "pipeline_status"
	EventStepStatus     EventKind = "step_status"
	EventStepOutput     EventKind = "step_output"
)

// Event is one incremental mutation of the live pipeline state.
// Job and Step are indexes into the pipeline; both are -1 for
// pipeline-level events.
type Event struct {
	Kind   EventKind
	Job    int
	Step   int
	Status Status
	Chunk  string
}

// subscriberBuffer is the per-subscriber event channel capacity. A
// subscriber that falls further behind than this loses events and should
// resynchronise from Snapshot.
const subscriberBuffer = 256

// Store holds the live state of exactly one pipeline run and fans out
// mutation events to subscribers. One Store is created per run; there is
// no process-wide shared instance. All mutation goes through the Store so
// observers see step statuses and output incrementally, not only at
// completion.
type Store struct {
	mu       sync.RWMutex
	pipeline *Pipeline
	subs     map[int]chan Event
	nextSub  int
	closed   bool
}

// NewStore takes ownership of the pipeline and resets it to a clean
// pre-run shape: every step pending with empty output.
func NewStore(p *Pipeline) *Store {
	p.Status = StatusPending
	for _, job := range p.Jobs {
		for _, step := range job.Steps {
			step.Status = StatusPending
			step.Output = ""
		}
	}
	return &Store{
		pipeline: p,
		subs:     make(map[int]chan Event),
	}
}

// Snapshot returns a deep copy of the current pipeline state.
func (s *Store) Snapshot() Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Pipeline{Name: s.pipeline.Name, Status: s.pipeline.Status}
	out.Jobs = make([]*Job, len(s.pipeline.Jobs))
	for i, job := range s.pipeline.Jobs {
		cj := &Job{Name: job.Name, Steps: make([]*Step, len(job.Steps))}
		for j, step := range job.Steps {
			cs := *step
			cj.Steps[j] = &cs
		}
		out.Jobs[i] = cj
	}
	return out
}

// Subscribe registers an event channel. The returned cancel func must be
// called to release the subscription. Events are delivered best-effort:
// a full channel drops the event rather than stalling the runner.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close tears down all subscriptions. Called once the run has finished.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// SetPipelineStatus updates the aggregate status.
func (s *Store) SetPipelineStatus(status Status) {
	s.mu.Lock()
	s.pipeline.Status = status
	s.publishLocked(Event{Kind: EventPipelineStatus, Job: -1, Step: -1, Status: status})
	s.mu.Unlock()
}

// PipelineStatus returns the current aggregate status.
func (s *Store) PipelineStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Status
}

// SetStepStatus moves a step along the status machine. Transitions only
// run forward; once the pipeline as a whole is error or cancelled, a step
// asked to enter in_progress or success is forced to cancelled instead.
func (s *Store) SetStepStatus(job, step int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stepLocked(job, step)
	if err != nil {
		return err
	}

	if s.pipeline.Status == StatusError || s.pipeline.Status == StatusCancelled {
		if status == StatusInProgress || status == StatusSuccess {
			status = StatusCancelled
		}
	}

	if !allowedTransition(st.Status, status) {
		return fmt.Errorf("invalid step transition %s -> %s", st.Status, status)
	}
	st.Status = status
	s.publishLocked(Event{Kind: EventStepStatus, Job: job, Step: step, Status: status})
	return nil
}

// AppendStepOutput appends a chunk of cleaned output to a step.
func (s *Store) AppendStepOutput(job, step int, chunk string) {
	if chunk == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stepLocked(job, step)
	if err != nil {
		return
	}
	st.Output += chunk
	s.publishLocked(Event{Kind: EventStepOutput, Job: job, Step: step, Chunk: chunk})
}

func (s *Store) stepLocked(job, step int) (*Step, error) {
	if job < 0 || job >= len(s.pipeline.Jobs) {
		return nil, fmt.Errorf("job index %d out of range", job)
	}
	j := s.pipeline.Jobs[job]
	if step < 0 || step >= len(j.Steps) {
		return nil, fmt.Errorf("step index %d out of range in job %q", step, j.Name)
	}
	return j.Steps[step], nil
}

func (s *Store) publishLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
