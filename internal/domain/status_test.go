package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from   EstimateStatus
		action EstimateAction
		want   EstimateStatus
	}{
		{EstimateStatusDraft, ActionSubmit, EstimateStatusPendingManagerApproval},
		{EstimateStatusDraft, ActionCancel, EstimateStatusCancelled},
		{EstimateStatusSubmitted, ActionCancel, EstimateStatusCancelled},
		{EstimateStatusPendingManagerApproval, ActionApprove, EstimateStatusApproved},
		{EstimateStatusPendingManagerApproval, ActionRequestRevision, EstimateStatusRevisionRequested},
		{EstimateStatusPendingManagerApproval, ActionReject, EstimateStatusRejected},
		{EstimateStatusPendingManagerApproval, ActionCancel, EstimateStatusCancelled},
		{EstimateStatusRevisionRequested, ActionResubmit, EstimateStatusPendingManagerApproval},
		{EstimateStatusRevisionRequested, ActionCancel, EstimateStatusCancelled},
		{EstimateStatusApproved, ActionConvertToQuote, EstimateStatusConverted},
		{EstimateStatusApproved, ActionCancel, EstimateStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := tt.from.NextStatus(tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStatusRejectsEverythingElse(t *testing.T) {
	statuses := []EstimateStatus{
		EstimateStatusDraft, EstimateStatusSubmitted, EstimateStatusPendingManagerApproval,
		EstimateStatusRevisionRequested, EstimateStatusApproved, EstimateStatusRejected,
		EstimateStatusConverted, EstimateStatusCancelled,
	}
	actions := []EstimateAction{
		ActionSubmit, ActionResubmit, ActionApprove, ActionRequestRevision,
		ActionReject, ActionCancel, ActionConvertToQuote,
	}

	for _, status := range statuses {
		for _, action := range actions {
			if status.CanTransition(action) {
				continue
			}
			_, err := status.NextStatus(action)
			var ise *InvalidStateError
			require.ErrorAs(t, err, &ise, "%s/%s", status, action)
			assert.Equal(t, status, ise.Status)
			assert.Equal(t, action, ise.Action)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	for _, status := range []EstimateStatus{EstimateStatusRejected, EstimateStatusConverted, EstimateStatusCancelled} {
		assert.True(t, status.IsTerminal())
		_, ok := estimateTransitions[status]
		assert.False(t, ok, "terminal status %s must have no outgoing transitions", status)
	}
}

func TestCanSpawnRevision(t *testing.T) {
	assert.True(t, EstimateStatusRejected.CanSpawnRevision())
	assert.True(t, EstimateStatusRevisionRequested.CanSpawnRevision())
	assert.False(t, EstimateStatusDraft.CanSpawnRevision())
	assert.False(t, EstimateStatusApproved.CanSpawnRevision())
	assert.False(t, EstimateStatusConverted.CanSpawnRevision())
}

func TestInvalidStateErrorNamesStatusAndAction(t *testing.T) {
	_, err := EstimateStatusApproved.NextStatus(ActionUpdate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approved")
	assert.Contains(t, err.Error(), "update")

	var ise *InvalidStateError
	require.True(t, errors.As(err, &ise))
}
