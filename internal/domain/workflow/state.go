package workflow

// InstanceStatus represents the lifecycle state of a workflow instance
type InstanceStatus string

const (
	InstanceInProgress InstanceStatus = "IN_PROGRESS"
	InstanceCompleted  InstanceStatus = "COMPLETED"
	InstanceRejected   InstanceStatus = "REJECTED"
	InstanceCancelled  InstanceStatus = "CANCELLED"
)

var terminalInstanceStatuses = map[InstanceStatus]bool{
	InstanceCompleted: true,
	InstanceRejected:  true,
	InstanceCancelled: true,
}

// IsTerminal returns true if no further instance transitions are allowed
func (s InstanceStatus) IsTerminal() bool {
	return terminalInstanceStatuses[s]
}

// String returns the string representation of the status
func (s InstanceStatus) String() string {
	return string(s)
}

// StepStatus represents the state of one step instance
type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"
	StepRejected StepStatus = "REJECTED"
	StepSkipped  StepStatus = "SKIPPED"
)

// IsTerminal returns true if the step can never transition again
func (s StepStatus) IsTerminal() bool {
	return s != StepPending
}

// String returns the string representation of the status
func (s StepStatus) String() string {
	return string(s)
}

// StepAction is an approver or administrative action on a pending step
type StepAction string

const (
	ActionApprove StepAction = "APPROVE"
	ActionReject  StepAction = "REJECT"
	ActionSkip    StepAction = "SKIP"
)

var actionResults = map[StepAction]StepStatus{
	ActionApprove: StepApproved,
	ActionReject:  StepRejected,
	ActionSkip:    StepSkipped,
}

// IsValid returns true if the action is a known step action
func (a StepAction) IsValid() bool {
	_, ok := actionResults[a]
	return ok
}

// ResultStatus returns the step status the action transitions into
func (a StepAction) ResultStatus() StepStatus {
	return actionResults[a]
}

// CanTransition reports whether applying action to a step in the given
// status is legal. Terminal steps never regress.
func CanTransition(from StepStatus, action StepAction) bool {
	return from == StepPending && action.IsValid()
}
