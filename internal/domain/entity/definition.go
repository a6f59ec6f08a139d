package entity

import "time"

// WorkflowDefinition is a versioned approval process template. For a given
// code, at most one version is active at any committed instant.
type WorkflowDefinition struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Version   int             `json:"version"`
	Name      string          `json:"name"`
	IsActive  bool            `json:"is_active"`
	Steps     []*StepTemplate `json:"steps,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// StepTemplate is one ordered step of a workflow definition. StepNumber is
// dense 1..N; IsLast holds for step N only.
type StepTemplate struct {
	ID           int64  `json:"id"`
	DefinitionID int64  `json:"definition_id"`
	StepNumber   int    `json:"step_number"`
	Title        string `json:"title"`
	AssigneeSpec string `json:"assignee_spec"`
	IsLast       bool   `json:"is_last"`
}
