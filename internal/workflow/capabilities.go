// Package workflow holds the task lifecycle rules: who may do what to a task,
// which status changes are legal, and which notices each change produces.
// Everything here is pure; persistence and delivery live elsewhere.
package workflow

import (
	"caseflow.io/caseflow/internal/constants"
	model "caseflow.io/caseflow/internal/models"
)

// Actor is the caller of a command as established by the auth layer.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Capabilities is derived per (task, actor) and never stored.
type Capabilities struct {
	IsAssignee         bool `json:"is_assignee"`
	IsCreator          bool `json:"is_creator"`
	IsReviewerEligible bool `json:"is_reviewer_eligible"`
	CanStart           bool `json:"can_start"`
	CanSubmitResponse  bool `json:"can_submit_response"`
	CanSubmitForReview bool `json:"can_submit_for_review"`
	CanReview          bool `json:"can_review"`
	CanForceComplete   bool `json:"can_force_complete"`
	CanEdit            bool `json:"can_edit"`
	CanDelete          bool `json:"can_delete"`
}

// Policy carries product switches that widen the default capability rules.
type Policy struct {
	// DelegatedReview lets assignees holding the reviewer role review tasks.
	DelegatedReview bool
}

func ResolveCapabilities(task *model.Task, actor Actor) Capabilities {
	return Policy{}.Resolve(task, actor)
}

func (p Policy) Resolve(task *model.Task, actor Actor) Capabilities {
	assignment, isAssignee := task.AssigneeFor(actor.UserID)
	isCreator := task.IsCreatedBy(actor.UserID)
	status := task.Status

	reviewerEligible := isCreator ||
		(p.DelegatedReview && isAssignee && assignment.Role == constants.RoleReviewer)

	return Capabilities{
		IsAssignee:         isAssignee,
		IsCreator:          isCreator,
		IsReviewerEligible: reviewerEligible,
		CanStart:           isAssignee && status == constants.StatusPending,
		CanSubmitResponse:  isAssignee && acceptsResponses(status),
		CanSubmitForReview: isAssignee && (status == constants.StatusInProgress || status == constants.StatusRejected),
		CanReview:          reviewerEligible && status == constants.StatusUnderReview,
		CanForceComplete:   isCreator && status != constants.StatusCompleted,
		CanEdit:            isCreator,
		CanDelete:          isCreator || actor.IsAdmin,
	}
}

func acceptsResponses(s constants.TaskStatus) bool {
	return s == constants.StatusPending || s == constants.StatusInProgress
}

// reviewers lists everyone who should hear about a submission: the creator
// plus delegated reviewers when the policy allows them.
func (p Policy) reviewers(task *model.Task) []string {
	ids := []string{task.CreatedBy}
	if p.DelegatedReview {
		for _, a := range task.Assignees {
			if a.Role == constants.RoleReviewer {
				ids = append(ids, a.UserID)
			}
		}
	}
	return ids
}
