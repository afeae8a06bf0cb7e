// Package workflow implements the review state machine for transcription
// records and the timer registry that drives its automatic transitions.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/repository"
	"voiceowl/backend/pkg/models"
)

// Engine drives the review workflow:
//
//	not_started --Start--> pending_review --(timer)--> in_review --(timer)--> approved
//	any non-terminal --ManualReview--> in_review
//	any non-terminal --Approve--> approved
//	any non-terminal --Reject--> rejected
//
// Every operation for a given id runs inside a per-id exclusive section
// spanning disarm, decision and persist, so a manual action and a firing
// timer can never interleave their writes for the same record. Operations
// on different ids never block each other.
//
// Timer chains live only in process memory; a restart drops pending
// auto-transitions.
type Engine struct {
	store  repository.TranscriptionStore
	timers *TimerRegistry
	logger *logging.Logger

	pendingReviewDelay time.Duration
	autoApproveDelay   time.Duration

	mu       sync.Mutex
	entities map[string]*sync.Mutex
}

// NewEngine creates a new Engine. pendingReviewDelay gates the
// pending_review -> in_review auto-transition, autoApproveDelay the
// in_review -> approved one.
func NewEngine(store repository.TranscriptionStore, timers *TimerRegistry, pendingReviewDelay, autoApproveDelay time.Duration, logger *logging.Logger) *Engine {
	return &Engine{
		store:              store,
		timers:             timers,
		logger:             logger,
		pendingReviewDelay: pendingReviewDelay,
		autoApproveDelay:   autoApproveDelay,
		entities:           make(map[string]*sync.Mutex),
	}
}

// lockEntity acquires the per-id exclusive section and returns the unlock.
func (e *Engine) lockEntity(id string) func() {
	e.mu.Lock()
	m, ok := e.entities[id]
	if !ok {
		m = &sync.Mutex{}
		e.entities[id] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Start moves a not_started record to pending_review and arms the two-stage
// auto-progression chain. Starting an already-started record is a no-op
// that returns the current record unchanged; timers are never double-armed.
func (e *Engine) Start(ctx context.Context, id string) (*models.Transcription, error) {
	unlock := e.lockEntity(id)
	defer unlock()

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Workflow.State != models.WorkflowNotStarted {
		return rec, nil
	}

	state := models.WorkflowPendingReview
	rec, err = e.store.UpdateWorkflow(ctx, id, models.WorkflowPatch{State: &state})
	if err != nil {
		return nil, err
	}

	// Arm atomically replaces any stale chain for this id.
	e.timers.Arm(id, []Stage{
		{Delay: e.pendingReviewDelay, Action: e.autoAdvance(id, models.WorkflowPendingReview, models.WorkflowInReview, false)},
		{Delay: e.autoApproveDelay, Action: e.autoAdvance(id, models.WorkflowInReview, models.WorkflowApproved, true)},
	})

	e.logger.Info("workflow started", "id", id,
		"pending_review_delay", e.pendingReviewDelay,
		"auto_approve_delay", e.autoApproveDelay)
	return rec, nil
}

// autoAdvance builds a timer stage action that moves the record from one
// state to the next. The cancellation check runs inside the per-id section,
// so a disarm issued by a manual operation happens-before this write or not
// at all.
func (e *Engine) autoAdvance(id string, from, to models.WorkflowState, stampReview bool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		unlock := e.lockEntity(id)
		defer unlock()

		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec.Workflow.State != from {
			e.logger.Error("auto transition aborted on unexpected state",
				"id", id, "expected", from, "actual", rec.Workflow.State)
			return fmt.Errorf("%w: expected %s, found %s", ErrUnexpectedState, from, rec.Workflow.State)
		}

		patch := models.WorkflowPatch{State: &to}
		if stampReview {
			now := time.Now().UTC()
			patch.ReviewedAt = &now
		}
		if _, err := e.store.UpdateWorkflow(ctx, id, patch); err != nil {
			return err
		}
		e.logger.Info("workflow auto-advanced", "id", id, "state", to)
		return nil
	}
}

// ManualReview cancels any pending auto-transition and places the record in
// in_review under the given reviewer. Legal from any state; an already
// approved or rejected record is overwritten rather than rejected, matching
// the behavior reviewers rely on today.
func (e *Engine) ManualReview(ctx context.Context, id, reviewer, notes string) (*models.Transcription, error) {
	if reviewer == "" {
		return nil, fmt.Errorf("%w: reviewer required", ErrInvalidInput)
	}

	unlock := e.lockEntity(id)
	defer unlock()

	e.timers.Disarm(id)

	state := models.WorkflowInReview
	return e.store.UpdateWorkflow(ctx, id, models.WorkflowPatch{
		State:    &state,
		Reviewer: &reviewer,
		Notes:    &notes,
	})
}

// Approve cancels any pending auto-transition and marks the record
// approved, stamping reviewedAt.
func (e *Engine) Approve(ctx context.Context, id, reviewer string) (*models.Transcription, error) {
	unlock := e.lockEntity(id)
	defer unlock()

	e.timers.Disarm(id)

	state := models.WorkflowApproved
	now := time.Now().UTC()
	return e.store.UpdateWorkflow(ctx, id, models.WorkflowPatch{
		State:      &state,
		Reviewer:   &reviewer,
		ReviewedAt: &now,
	})
}

// Reject cancels any pending auto-transition and marks the record rejected,
// stamping reviewedAt.
func (e *Engine) Reject(ctx context.Context, id, reviewer, notes string) (*models.Transcription, error) {
	unlock := e.lockEntity(id)
	defer unlock()

	e.timers.Disarm(id)

	state := models.WorkflowRejected
	now := time.Now().UTC()
	return e.store.UpdateWorkflow(ctx, id, models.WorkflowPatch{
		State:      &state,
		Reviewer:   &reviewer,
		ReviewedAt: &now,
		Notes:      &notes,
	})
}

// GetWorkflow returns the current record for a read-only projection of its
// workflow fields.
func (e *Engine) GetWorkflow(ctx context.Context, id string) (*models.Transcription, error) {
	return e.store.Get(ctx, id)
}
