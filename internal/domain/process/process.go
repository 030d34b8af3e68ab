// Package process defines the Process entity, one live execution of a
// pipeline definition.
package process

import (
	"sync"
	"time"
)

// Status represents the current state of a process.
type Status string

const (
	StatusPending     Status = "pending"
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusHumanReview Status = "human_review"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusKilled      Status = "killed"
)

// Terminal reports whether the status is final. Terminal statuses are
// sticky: no transition leaves them.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusKilled:
		return true
	}
	return false
}

// Process holds the mutable runtime state of one pipeline instance. It is
// shared between the engine goroutine that executes it and the control
// operations (pause/resume/kill); all methods are safe for concurrent use.
// The per-process mutex is independent of any registry-level lock so a slow
// process never blocks registry reads.
type Process struct {
	mu           sync.Mutex
	id           string
	pipelineName string
	status       Status
	stepIndex    int
	logs         []string
	createdAt    time.Time
	updatedAt    time.Time

	// resume carries at most one pending wake-up for a paused or
	// review-blocked engine goroutine.
	resume chan struct{}
}

// New creates a Process in StatusPending.
func New(id, pipelineName string) *Process {
	now := time.Now().UTC()
	return &Process{
		id:           id,
		pipelineName: pipelineName,
		status:       StatusPending,
		createdAt:    now,
		updatedAt:    now,
		resume:       make(chan struct{}, 1),
	}
}

// ID returns the process identity. Immutable after creation.
func (p *Process) ID() string { return p.id }

// PipelineName returns the owning pipeline's name.
func (p *Process) PipelineName() string { return p.pipelineName }

// Status returns the current status.
func (p *Process) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus applies the transition to next if it is legal and reports
// whether the status changed. Terminal statuses never change. Killed is
// reachable from any non-terminal status; Completed and Failed only from
// Running; Paused and HumanReview only from Running; Running from Pending,
// Paused or HumanReview.
func (p *Process) SetStatus(next Status) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !allowed(p.status, next) {
		return false
	}
	p.status = next
	p.updatedAt = time.Now().UTC()
	return true
}

func allowed(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusKilled {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusPaused || to == StatusHumanReview ||
			to == StatusCompleted || to == StatusFailed
	case StatusPaused, StatusHumanReview:
		return to == StatusRunning
	}
	return false
}

// StepIndex returns the current step index.
func (p *Process) StepIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stepIndex
}

// SetStepIndex moves the step cursor.
func (p *Process) SetStepIndex(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stepIndex = i
	p.updatedAt = time.Now().UTC()
}

// AppendLog records one text chunk on the append-only log.
func (p *Process) AppendLog(chunk string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logs = append(p.logs, chunk)
	p.updatedAt = time.Now().UTC()
}

// ResumeCh returns the channel a suspended engine goroutine waits on.
func (p *Process) ResumeCh() <-chan struct{} { return p.resume }

// SignalResume wakes a goroutine blocked on ResumeCh. At most one wake-up
// is buffered; signalling an unblocked process is harmless.
func (p *Process) SignalResume() {
	select {
	case p.resume <- struct{}{}:
	default:
	}
}

// Snapshot is a read-only copy of a Process for dashboards and detail
// views.
type Snapshot struct {
	ID           string    `json:"id"`
	PipelineName string    `json:"pipeline_name"`
	Status       Status    `json:"status"`
	StepIndex    int       `json:"step_index"`
	Logs         []string  `json:"logs"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a point-in-time copy of the process state.
func (p *Process) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	logs := make([]string, len(p.logs))
	copy(logs, p.logs)

	return Snapshot{
		ID:           p.id,
		PipelineName: p.pipelineName,
		Status:       p.status,
		StepIndex:    p.stepIndex,
		Logs:         logs,
		CreatedAt:    p.createdAt,
		UpdatedAt:    p.updatedAt,
	}
}
