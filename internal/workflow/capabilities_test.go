package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"caseflow.io/caseflow/internal/constants"
	model "caseflow.io/caseflow/internal/models"
)

func TestResolveCapabilities_Roles(t *testing.T) {
	tests := []struct {
		name   string
		status constants.TaskStatus
		actor  Actor
		want   Capabilities
	}{
		{
			name:   "assignee on in-progress task",
			status: constants.StatusInProgress,
			actor:  actor(assigneeID),
			want: Capabilities{
				IsAssignee:         true,
				CanSubmitResponse:  true,
				CanSubmitForReview: true,
			},
		},
		{
			name:   "assignee on pending task",
			status: constants.StatusPending,
			actor:  actor(assigneeID),
			want: Capabilities{
				IsAssignee:        true,
				CanStart:          true,
				CanSubmitResponse: true,
			},
		},
		{
			name:   "creator on under-review task",
			status: constants.StatusUnderReview,
			actor:  actor(creatorID),
			want: Capabilities{
				IsCreator:          true,
				IsReviewerEligible: true,
				CanReview:          true,
				CanForceComplete:   true,
				CanEdit:            true,
				CanDelete:          true,
			},
		},
		{
			name:   "creator on completed task",
			status: constants.StatusCompleted,
			actor:  actor(creatorID),
			want: Capabilities{
				IsCreator:          true,
				IsReviewerEligible: true,
				CanEdit:            true,
				CanDelete:          true,
			},
		},
		{
			name:   "admin outsider",
			status: constants.StatusInProgress,
			actor:  Actor{UserID: outsiderID, IsAdmin: true},
			want:   Capabilities{CanDelete: true},
		},
		{
			name:   "outsider",
			status: constants.StatusUnderReview,
			actor:  actor(outsiderID),
			want:   Capabilities{},
		},
		{
			name:   "anonymous",
			status: constants.StatusInProgress,
			actor:  Actor{},
			want:   Capabilities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCapabilities(newTask(tt.status), tt.actor)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCapabilities_SelfAssignedGetsUnion(t *testing.T) {
	task := newTask(constants.StatusRejected)
	task.Assignees = append(task.Assignees, model.TaskAssignee{UserID: creatorID, Role: constants.RolePrimary})

	caps := ResolveCapabilities(task, actor(creatorID))

	assert.True(t, caps.IsAssignee)
	assert.True(t, caps.IsCreator)
	assert.True(t, caps.CanSubmitForReview)
	assert.True(t, caps.CanForceComplete)
	assert.False(t, caps.CanReview)
}

func TestResolveCapabilities_DelegatedReview(t *testing.T) {
	task := newTask(constants.StatusUnderReview)

	assert.False(t, ResolveCapabilities(task, actor(reviewerID)).CanReview)

	caps := Policy{DelegatedReview: true}.Resolve(task, actor(reviewerID))
	assert.True(t, caps.IsReviewerEligible)
	assert.True(t, caps.CanReview)

	task.Status = constants.StatusInProgress
	caps = Policy{DelegatedReview: true}.Resolve(task, actor(reviewerID))
	assert.True(t, caps.IsReviewerEligible)
	assert.False(t, caps.CanReview, "only under-review tasks are reviewable")

	caps = Policy{DelegatedReview: true}.Resolve(newTask(constants.StatusUnderReview), actor(collabID))
	assert.False(t, caps.CanReview)
}

func TestResolveCapabilities_IsPure(t *testing.T) {
	statuses := []constants.TaskStatus{
		constants.StatusPending, constants.StatusInProgress, constants.StatusUnderReview,
		constants.StatusRejected, constants.StatusCompleted,
	}
	users := []string{creatorID, assigneeID, collabID, reviewerID, viewerID, outsiderID}

	for _, s := range statuses {
		for _, u := range users {
			task := newTask(s)
			before := task.Clone()
			first := ResolveCapabilities(task, actor(u))
			second := ResolveCapabilities(task, actor(u))
			assert.Equal(t, first, second)
			assert.Equal(t, before, task)
		}
	}
}
