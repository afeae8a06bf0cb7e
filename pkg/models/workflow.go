package models

import (
	"time"
)

// WorkflowState represents a review state in the transcription workflow.
type WorkflowState string

const (
	WorkflowNotStarted    WorkflowState = "not_started"
	WorkflowPendingReview WorkflowState = "pending_review"
	WorkflowInReview      WorkflowState = "in_review"
	WorkflowApproved      WorkflowState = "approved"
	WorkflowRejected      WorkflowState = "rejected"
)

var validStates = map[WorkflowState]bool{
	WorkflowNotStarted:    true,
	WorkflowPendingReview: true,
	WorkflowInReview:      true,
	WorkflowApproved:      true,
	WorkflowRejected:      true,
}

var terminalStates = map[WorkflowState]bool{
	WorkflowApproved: true,
	WorkflowRejected: true,
}

// IsValid returns true if the state is a known workflow state.
func (s WorkflowState) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if no timer-driven progression is scheduled past
// this state. Manual operations still overwrite terminal records; see the
// engine for that (deliberate) behavior.
func (s WorkflowState) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state.
func (s WorkflowState) String() string {
	return string(s)
}

// Workflow is the review lifecycle embedded in a transcription record.
type Workflow struct {
	State      WorkflowState `json:"state"`
	Reviewer   *string       `json:"reviewer"`
	ReviewedAt *time.Time    `json:"reviewedAt"`
	Notes      *string       `json:"notes"`
}

// WorkflowPatch is a partial update of the workflow sub-fields. Nil fields
// are left untouched by the store.
type WorkflowPatch struct {
	State      *WorkflowState
	Reviewer   *string
	ReviewedAt *time.Time
	Notes      *string
}
