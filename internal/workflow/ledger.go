package workflow

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	model "caseflow.io/caseflow/internal/models"
)

const (
	MaxResponseCommentLength = 5000
	MaxResponseDocuments     = 20
)

// ResponseInput is what an assignee submits as a progress report.
type ResponseInput struct {
	Comment              string
	CompletionPercentage int
	TimeSpent            int
	Completed            bool
	// SubmitForReview asks for the task to move to under-review in the same
	// command. Only honored together with Completed.
	SubmitForReview bool
	Documents       []string
}

func ValidateResponse(in ResponseInput) error {
	if in.CompletionPercentage < 0 || in.CompletionPercentage > 100 {
		return apperrors.Validation("completion_percentage", "must be between 0 and 100, got %d", in.CompletionPercentage)
	}
	if in.TimeSpent < 0 {
		return apperrors.Validation("time_spent", "must not be negative, got %d", in.TimeSpent)
	}
	if utf8.RuneCountInString(in.Comment) > MaxResponseCommentLength {
		return apperrors.Validation("comment", "must be at most %d characters", MaxResponseCommentLength)
	}
	if len(in.Documents) > MaxResponseDocuments {
		return apperrors.Validation("documents", "at most %d documents may be attached", MaxResponseDocuments)
	}
	for _, ref := range in.Documents {
		if strings.TrimSpace(ref) == "" {
			return apperrors.Validation("documents", "document references must not be empty")
		}
	}
	return nil
}

func validateEntry(entry model.TaskResponse) error {
	return ValidateResponse(ResponseInput{
		Comment:              entry.Comment,
		CompletionPercentage: entry.CompletionPercentage,
		TimeSpent:            entry.TimeSpent,
		Documents:            entry.Documents,
	})
}

// AppendResponse returns a copy of task with entry appended to its ledger.
// The input task is never modified.
func AppendResponse(task *model.Task, entry model.TaskResponse) (*model.Task, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}
	next := task.Clone()
	appendEntry(next, entry)
	return next, nil
}

func appendEntry(task *model.Task, entry model.TaskResponse) {
	entry.TaskID = task.ID
	entry.Seq = 1
	if n := len(task.Responses); n > 0 {
		entry.Seq = task.Responses[n-1].Seq + 1
	}
	if entry.Status == "" {
		entry.Status = constants.ResponsePartial
	}
	task.Responses = append(task.Responses, entry)
}

func newEntry(id string, actor Actor, in ResponseInput, now time.Time) model.TaskResponse {
	status := constants.ResponsePartial
	if in.Completed {
		status = constants.ResponseCompleted
	}
	var docs []string
	if len(in.Documents) > 0 {
		docs = append(docs, in.Documents...)
	}
	return model.TaskResponse{
		ID:                   id,
		SubmittedBy:          actor.UserID,
		SubmittedAt:          now,
		Comment:              strings.TrimSpace(in.Comment),
		CompletionPercentage: in.CompletionPercentage,
		TimeSpent:            in.TimeSpent,
		Status:               status,
		Documents:            docs,
	}
}

// OverallProgress is the rounded mean completion percentage across every
// ledger entry, including entries from rejected cycles.
func OverallProgress(responses []model.TaskResponse) int {
	if len(responses) == 0 {
		return 0
	}
	sum := 0
	for _, r := range responses {
		sum += r.CompletionPercentage
	}
	return int(math.Round(float64(sum) / float64(len(responses))))
}

// TotalTimeSpent sums reported minutes across the ledger.
func TotalTimeSpent(responses []model.TaskResponse) int {
	total := 0
	for _, r := range responses {
		total += r.TimeSpent
	}
	return total
}

// CanDeleteResponse reports whether actor may remove entry from task.
func CanDeleteResponse(task *model.Task, entry model.TaskResponse, actor Actor) bool {
	if actor.UserID == "" {
		return false
	}
	if entry.SubmittedBy == actor.UserID || task.IsCreatedBy(actor.UserID) || actor.IsAdmin {
		return true
	}
	a, ok := task.AssigneeFor(actor.UserID)
	return ok && (a.Role == constants.RolePrimary || a.Role == constants.RoleCollaborator)
}

func removeEntry(task *model.Task, idx int) {
	task.Responses = append(task.Responses[:idx:idx], task.Responses[idx+1:]...)
}
