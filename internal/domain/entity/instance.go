package entity

import (
	"time"

	"github.com/adityarama/procurement-engine/internal/domain/workflow"
)

// WorkflowInstance is one running execution of a definition bound to a case.
// The definition version is pinned at creation time; re-activating the code
// later never alters an in-flight instance.
type WorkflowInstance struct {
	ID                string                  `json:"id"`
	DefinitionCode    string                  `json:"definition_code"`
	DefinitionVersion int                     `json:"definition_version"`
	CaseID            string                  `json:"case_id"`
	Status            workflow.InstanceStatus `json:"status"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// StepInstance is the runtime state of one step within an instance.
// AssignedTo holds the user ids resolved once at creation; it is stored as a
// JSON array for new writes, while legacy rows may hold a bare user id.
type StepInstance struct {
	ID         string              `json:"id"`
	InstanceID string              `json:"instance_id"`
	StepNumber int                 `json:"step_number"`
	Title      string              `json:"title"`
	AssignedTo string              `json:"assigned_to"`
	IsLast     bool                `json:"is_last"`
	Status     workflow.StepStatus `json:"status"`
	ApproverID string              `json:"approver_id,omitempty"`
	ApprovedAt *time.Time          `json:"approved_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
