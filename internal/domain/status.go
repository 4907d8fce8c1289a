package domain

// EstimateStatus represents the workflow status of an estimate
type EstimateStatus string

const (
	EstimateStatusDraft EstimateStatus = "draft"
	// submitted is a transient label used by older clients; a submit action
	// rests at pending_manager_approval. The constant is kept so records
	// imported with the legacy status remain cancellable.
	EstimateStatusSubmitted               EstimateStatus = "submitted"
	EstimateStatusPendingManagerApproval  EstimateStatus = "pending_manager_approval"
	EstimateStatusRevisionRequested       EstimateStatus = "revision_requested"
	EstimateStatusApproved                EstimateStatus = "approved"
	EstimateStatusRejected                EstimateStatus = "rejected"
	EstimateStatusConverted               EstimateStatus = "converted"
	EstimateStatusCancelled               EstimateStatus = "cancelled"
)

// IsValid checks if the EstimateStatus is a valid enum value
func (s EstimateStatus) IsValid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSubmitted, EstimateStatusPendingManagerApproval,
		EstimateStatusRevisionRequested, EstimateStatusApproved, EstimateStatusRejected,
		EstimateStatusConverted, EstimateStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s EstimateStatus) IsTerminal() bool {
	switch s {
	case EstimateStatusRejected, EstimateStatusConverted, EstimateStatusCancelled:
		return true
	}
	return false
}

// EstimateAction is a workflow action attempted against an estimate
type EstimateAction string

const (
	ActionSubmit          EstimateAction = "submit"
	ActionResubmit        EstimateAction = "resubmit"
	ActionApprove         EstimateAction = "approve"
	ActionRequestRevision EstimateAction = "request_revision"
	ActionReject          EstimateAction = "reject"
	ActionCancel          EstimateAction = "cancel"
	ActionConvertToQuote  EstimateAction = "convert_to_quote"
	ActionCreateRevision  EstimateAction = "create_revision"
	ActionCreate          EstimateAction = "create"
	ActionUpdate          EstimateAction = "update"
)

// estimateTransitions is the single authoritative transition table. Any
// action/status pair not present here fails with InvalidStateError.
// create_revision is deliberately absent: it spawns a new record instead of
// transitioning the current one and is gated separately by the service.
var estimateTransitions = map[EstimateStatus]map[EstimateAction]EstimateStatus{
	EstimateStatusDraft: {
		ActionSubmit: EstimateStatusPendingManagerApproval,
		ActionCancel: EstimateStatusCancelled,
	},
	EstimateStatusSubmitted: {
		ActionCancel: EstimateStatusCancelled,
	},
	EstimateStatusPendingManagerApproval: {
		ActionApprove:         EstimateStatusApproved,
		ActionRequestRevision: EstimateStatusRevisionRequested,
		ActionReject:          EstimateStatusRejected,
		ActionCancel:          EstimateStatusCancelled,
	},
	EstimateStatusRevisionRequested: {
		ActionResubmit: EstimateStatusPendingManagerApproval,
		ActionCancel:   EstimateStatusCancelled,
	},
	EstimateStatusApproved: {
		ActionConvertToQuote: EstimateStatusConverted,
		ActionCancel:         EstimateStatusCancelled,
	},
}

// NextStatus resolves the target status for an action from the current
// status. It returns an InvalidStateError when the transition table does not
// permit the pair; illegal transitions never silently no-op.
func (s EstimateStatus) NextStatus(action EstimateAction) (EstimateStatus, error) {
	if targets, ok := estimateTransitions[s]; ok {
		if next, ok := targets[action]; ok {
			return next, nil
		}
	}
	return "", &InvalidStateError{Status: s, Action: action}
}

// CanTransition reports whether the action is legal in the current status.
func (s EstimateStatus) CanTransition(action EstimateAction) bool {
	_, err := s.NextStatus(action)
	return err == nil
}

// CanSpawnRevision reports whether a revision may be created from this
// status. The latest-version check lives with the aggregate, not here.
func (s EstimateStatus) CanSpawnRevision() bool {
	return s == EstimateStatusRejected || s == EstimateStatusRevisionRequested
}
