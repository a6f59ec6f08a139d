package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceStatusTerminal(t *testing.T) {
	assert.False(t, InstanceInProgress.IsTerminal())
	assert.True(t, InstanceCompleted.IsTerminal())
	assert.True(t, InstanceRejected.IsTerminal())
	assert.True(t, InstanceCancelled.IsTerminal())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    StepStatus
		action  StepAction
		allowed bool
	}{
		{"approve pending", StepPending, ActionApprove, true},
		{"reject pending", StepPending, ActionReject, true},
		{"skip pending", StepPending, ActionSkip, true},
		{"approve approved", StepApproved, ActionApprove, false},
		{"reject approved", StepApproved, ActionReject, false},
		{"approve rejected", StepRejected, ActionApprove, false},
		{"skip skipped", StepSkipped, ActionSkip, false},
		{"unknown action", StepPending, StepAction("ESCALATE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.action))
		})
	}
}

func TestActionResultStatus(t *testing.T) {
	assert.Equal(t, StepApproved, ActionApprove.ResultStatus())
	assert.Equal(t, StepRejected, ActionReject.ResultStatus())
	assert.Equal(t, StepSkipped, ActionSkip.ResultStatus())
}
