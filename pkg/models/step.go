package models

import (
	"time"

	"github.com/google/uuid"
)

// StepType is the provider-specific category of a review step, drawn from the
// provider's closed, ordered vocabulary (see pkg/providers).
type StepType string

// StepStatus is the caller-supplied status of a single review step.
type StepStatus string

const (
	StepStatusNotStarted StepStatus = "NOT_STARTED"
	StepStatusInProgress StepStatus = "IN_PROGRESS"
	StepStatusCompleted  StepStatus = "COMPLETED"
	StepStatusRejected   StepStatus = "REJECTED"
)

// ValidStepStatuses contains all valid step status values.
var ValidStepStatuses = []StepStatus{
	StepStatusNotStarted,
	StepStatusInProgress,
	StepStatusCompleted,
	StepStatusRejected,
}

// IsValidStepStatus checks if the given status is valid.
func IsValidStepStatus(s StepStatus) bool {
	for _, v := range ValidStepStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Step is one phase of a provider's review process. At most one step exists
// per (application, step type); steps are superseded by upsert, never deleted
// individually in the steady state.
type Step struct {
	ID            uuid.UUID  `json:"id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	StepType      StepType   `json:"step_type"`
	Status        StepStatus `json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Documents is populated on application Get and step List.
	Documents []*Document `json:"documents,omitempty"`
}

// StepUpsert is the input to the step ledger's single entry point. Status is
// mandatory; Notes is merged only when non-nil so a status-only upsert does
// not erase previously recorded notes.
type StepUpsert struct {
	StepType StepType   `json:"step_type"`
	Status   StepStatus `json:"status"`
	Notes    *string    `json:"notes,omitempty"`
}
