package dto

import (
	"time"

	"caseflow.io/caseflow/internal/constants"
	model "caseflow.io/caseflow/internal/models"
	"caseflow.io/caseflow/internal/services"
	"caseflow.io/caseflow/internal/workflow"
)

type AssigneeRequest struct {
	UserID   string                 `json:"user_id" validate:"required,max=64"`
	Role     constants.AssigneeRole `json:"role" validate:"omitempty,oneof=primary collaborator reviewer viewer"`
	IsClient bool                   `json:"is_client"`
}

type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,max=200,singleline"`
	Description string            `json:"description" validate:"max=10000"`
	CaseID      string            `json:"case_id" validate:"max=64,singleline"`
	DueDate     *time.Time        `json:"due_date"`
	Assignees   []AssigneeRequest `json:"assignees" validate:"required,min=1,max=50,dive"`
}

type UpdateTaskRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=1,max=200,singleline"`
	Description *string           `json:"description" validate:"omitempty,max=10000"`
	CaseID      *string           `json:"case_id" validate:"omitempty,max=64,singleline"`
	DueDate     *time.Time        `json:"due_date"`
	Assignees   []AssigneeRequest `json:"assignees" validate:"omitempty,min=1,max=50,dive"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

type ReviewRequest struct {
	Approve       *bool   `json:"approve" validate:"required"`
	Rating        float64 `json:"rating"`
	ReviewComment string  `json:"review_comment"`
}

type ResponseRequest struct {
	Comment              string   `json:"comment"`
	CompletionPercentage int      `json:"completion_percentage"`
	TimeSpent            int      `json:"time_spent"`
	Completed            bool     `json:"completed"`
	SubmitForReview      bool     `json:"submit_for_review"`
	Documents            []string `json:"documents" validate:"omitempty,dive,required"`
}

// TaskView is a task as returned by the API, with the derived ledger totals.
type TaskView struct {
	*model.Task
	OverallProgress int `json:"overall_progress"`
	TotalTimeSpent  int `json:"total_time_spent"`
}

type TaskListResponse struct {
	Count int        `json:"count"`
	Tasks []TaskView `json:"tasks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func NewTaskView(t *model.Task) TaskView {
	return TaskView{
		Task:            t,
		OverallProgress: workflow.OverallProgress(t.Responses),
		TotalTimeSpent:  workflow.TotalTimeSpent(t.Responses),
	}
}

func NewTaskList(tasks []model.Task) TaskListResponse {
	views := make([]TaskView, len(tasks))
	for i := range tasks {
		views[i] = NewTaskView(&tasks[i])
	}
	return TaskListResponse{Count: len(views), Tasks: views}
}

func (r CreateTaskRequest) ToInput() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		CaseID:      r.CaseID,
		DueDate:     r.DueDate,
		Assignees:   toAssignees(r.Assignees),
	}
}

func (r UpdateTaskRequest) ToInput() services.UpdateTaskInput {
	return services.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		CaseID:      r.CaseID,
		DueDate:     r.DueDate,
		Assignees:   toAssignees(r.Assignees),
	}
}

func (r ReviewRequest) ToDecision() workflow.Decision {
	return workflow.Decision{
		Approve:       r.Approve != nil && *r.Approve,
		Rating:        r.Rating,
		ReviewComment: r.ReviewComment,
	}
}

func (r ResponseRequest) ToInput() workflow.ResponseInput {
	return workflow.ResponseInput{
		Comment:              r.Comment,
		CompletionPercentage: r.CompletionPercentage,
		TimeSpent:            r.TimeSpent,
		Completed:            r.Completed,
		SubmitForReview:      r.SubmitForReview,
		Documents:            r.Documents,
	}
}

func toAssignees(in []AssigneeRequest) []services.AssigneeInput {
	if in == nil {
		return nil
	}
	out := make([]services.AssigneeInput, len(in))
	for i, a := range in {
		out[i] = services.AssigneeInput{UserID: a.UserID, Role: a.Role, IsClient: a.IsClient}
	}
	return out
}
