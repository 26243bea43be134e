package domain

import (
	"errors"
	"fmt"
)

// Status is the review workflow state of a CandidateProfile.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSubmitted       Status = "SUBMITTED"
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusVerified        Status = "VERIFIED"
	StatusReworkRequested Status = "REWORK_REQUESTED"
	StatusRejected        Status = "REJECTED"
)

var AllStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusUnderReview,
	StatusVerified, StatusReworkRequested, StatusRejected,
}

// QueueStatuses are the reviewer-actionable statuses.
var QueueStatuses = []Status{StatusSubmitted, StatusUnderReview, StatusReworkRequested}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Action is a command against the state machine.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionStartReview   Action = "start_review"
	ActionVerify        Action = "verify"
	ActionRequestRework Action = "request_rework"
	ActionReject        Action = "reject"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type transitionKey struct {
	from   Status
	action Action
}

// transitions is the complete legal transition table. Missing entries are illegal.
var transitions = map[transitionKey]Status{
	{StatusDraft, ActionSubmit}:           StatusSubmitted,
	{StatusSubmitted, ActionSubmit}:       StatusSubmitted,
	{StatusUnderReview, ActionSubmit}:     StatusSubmitted,
	{StatusReworkRequested, ActionSubmit}: StatusSubmitted,
	{StatusVerified, ActionSubmit}:        StatusVerified,

	{StatusSubmitted, ActionStartReview}: StatusUnderReview,

	{StatusDraft, ActionVerify}:           StatusVerified,
	{StatusSubmitted, ActionVerify}:       StatusVerified,
	{StatusUnderReview, ActionVerify}:     StatusVerified,
	{StatusReworkRequested, ActionVerify}: StatusVerified,

	{StatusDraft, ActionRequestRework}:           StatusReworkRequested,
	{StatusSubmitted, ActionRequestRework}:       StatusReworkRequested,
	{StatusUnderReview, ActionRequestRework}:     StatusReworkRequested,
	{StatusReworkRequested, ActionRequestRework}: StatusReworkRequested,

	{StatusDraft, ActionReject}:           StatusRejected,
	{StatusSubmitted, ActionReject}:       StatusRejected,
	{StatusUnderReview, ActionReject}:     StatusRejected,
	{StatusReworkRequested, ActionReject}: StatusRejected,
}

// actionRoles lists who may drive reviewer actions. Submit is ownership-gated instead.
var actionRoles = map[Action][]Role{
	ActionStartReview:   {RoleReviewer, RoleAdmin},
	ActionVerify:        {RoleAdmin},
	ActionRequestRework: {RoleReviewer, RoleAdmin},
	ActionReject:        {RoleAdmin},
}

// NextStatus applies action to from. The result equals from for the
// submit-on-VERIFIED no-op.
func NextStatus(from Status, action Action) (Status, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// CanPerform reports whether role may issue a reviewer action.
func CanPerform(role Role, action Action) bool {
	for _, r := range actionRoles[action] {
		if r == role {
			return true
		}
	}
	return false
}
