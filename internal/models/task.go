package model

import (
	"time"

	"caseflow.io/caseflow/internal/constants"
)

type Task struct {
	ID                   string               `gorm:"primaryKey;size:36" json:"id"`
	Title                string               `gorm:"not null" json:"title"`
	Description          string               `json:"description"`
	CaseID               string               `gorm:"size:64;index" json:"case_id,omitempty"`
	Status               constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedBy            string               `gorm:"size:64;not null;index" json:"created_by"`
	Version              uint                 `gorm:"not null;default:1" json:"version"`
	DueDate              *time.Time           `json:"due_date,omitempty"`
	StartDate            *time.Time           `json:"start_date,omitempty"`
	ActualCompletionDate *time.Time           `json:"actual_completion_date,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`

	Assignees []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees"`
	Responses []TaskResponse `gorm:"foreignKey:TaskID" json:"responses"`
	Review    *ReviewOutcome `gorm:"foreignKey:TaskID" json:"review_outcome,omitempty"`
}

type TaskAssignee struct {
	ID         uint                   `gorm:"primaryKey" json:"-"`
	TaskID     string                 `gorm:"size:36;not null;index" json:"-"`
	Position   int                    `gorm:"not null" json:"-"`
	UserID     string                 `gorm:"size:64;not null;index" json:"user_id"`
	Role       constants.AssigneeRole `gorm:"type:varchar(20);not null" json:"role"`
	IsClient   bool                   `gorm:"not null;default:false" json:"is_client"`
	AssignedBy string                 `gorm:"size:64" json:"assigned_by"`
}

// TaskResponse is one entry of the response ledger. Seq preserves append order.
type TaskResponse struct {
	ID                   string                   `gorm:"primaryKey;size:36" json:"id"`
	TaskID               string                   `gorm:"size:36;not null;index" json:"-"`
	Seq                  int                      `gorm:"not null" json:"-"`
	SubmittedBy          string                   `gorm:"size:64;not null" json:"submitted_by"`
	SubmittedAt          time.Time                `gorm:"not null" json:"submitted_at"`
	Comment              string                   `json:"comment"`
	CompletionPercentage int                      `gorm:"not null" json:"completion_percentage"`
	TimeSpent            int                      `gorm:"not null;default:0" json:"time_spent"`
	Status               constants.ResponseStatus `gorm:"type:varchar(20);not null" json:"status"`
	Documents            []string                 `gorm:"serializer:json" json:"documents"`
}

// ReviewOutcome holds the latest review decision for a task. Rating is nil
// when the task was force-completed.
type ReviewOutcome struct {
	TaskID        string    `gorm:"primaryKey;size:36" json:"-"`
	Approve       bool      `gorm:"not null" json:"approve"`
	Rating        *float64  `json:"rating"`
	ReviewComment string    `json:"review_comment"`
	ReviewedBy    string    `gorm:"size:64;not null" json:"reviewed_by"`
	ReviewedAt    time.Time `gorm:"not null" json:"reviewed_at"`
}

// TaskAudit is an append-only record of every command applied to a task.
type TaskAudit struct {
	ID         uint                 `gorm:"primaryKey" json:"id"`
	TaskID     string               `gorm:"size:36;not null;index" json:"task_id"`
	ActorID    string               `gorm:"size:64;not null" json:"actor_id"`
	Action     constants.TaskEvent  `gorm:"type:varchar(32);not null" json:"action"`
	FromStatus constants.TaskStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   constants.TaskStatus `gorm:"type:varchar(20)" json:"to_status"`
	Comment    string               `json:"comment,omitempty"`
	Approve    *bool                `json:"approve,omitempty"`
	Rating     *float64             `json:"rating,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

func (t *Task) IsCreatedBy(userID string) bool {
	return userID != "" && t.CreatedBy == userID
}

// AssigneeFor returns the assignment of userID, if any.
func (t *Task) AssigneeFor(userID string) (TaskAssignee, bool) {
	if userID == "" {
		return TaskAssignee{}, false
	}
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return a, true
		}
	}
	return TaskAssignee{}, false
}

func (t *Task) FindResponse(id string) (int, bool) {
	for i := range t.Responses {
		if t.Responses[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy of the task so callers can mutate it freely.
func (t *Task) Clone() *Task {
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.StartDate = cloneTime(t.StartDate)
	c.ActualCompletionDate = cloneTime(t.ActualCompletionDate)

	if t.Assignees != nil {
		c.Assignees = make([]TaskAssignee, len(t.Assignees))
		copy(c.Assignees, t.Assignees)
	}
	if t.Responses != nil {
		c.Responses = make([]TaskResponse, len(t.Responses))
		for i, r := range t.Responses {
			if r.Documents != nil {
				r.Documents = append([]string(nil), r.Documents...)
			}
			c.Responses[i] = r
		}
	}
	if t.Review != nil {
		review := *t.Review
		if t.Review.Rating != nil {
			rating := *t.Review.Rating
			review.Rating = &rating
		}
		c.Review = &review
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
