package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"caseflow.io/caseflow/internal/constants"
	model "caseflow.io/caseflow/internal/models"
)

const (
	creatorID  = "creator-c"
	assigneeID = "assignee-a"
	collabID   = "collab-b"
	reviewerID = "reviewer-r"
	viewerID   = "viewer-v"
	outsiderID = "outsider-o"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(policy Policy) *Engine {
	seq := 0
	return NewEngine(policy,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("resp-%d", seq)
		}),
	)
}

func newTask(status constants.TaskStatus) *model.Task {
	return &model.Task{
		ID:        "task-1",
		Title:     "Draft motion to dismiss",
		CaseID:    "case-42",
		Status:    status,
		CreatedBy: creatorID,
		Version:   1,
		Assignees: []model.TaskAssignee{
			{UserID: assigneeID, Role: constants.RolePrimary, AssignedBy: creatorID},
			{UserID: collabID, Role: constants.RoleCollaborator, AssignedBy: creatorID},
			{UserID: reviewerID, Role: constants.RoleReviewer, AssignedBy: creatorID},
			{UserID: viewerID, Role: constants.RoleViewer, IsClient: true, AssignedBy: creatorID},
		},
	}
}

func actor(id string) Actor {
	return Actor{UserID: id}
}

func apply(t *testing.T, e *Engine, task *model.Task, req Request) *model.Task {
	t.Helper()
	out, err := e.Apply(task, req)
	require.NoError(t, err)
	return out.Task
}
