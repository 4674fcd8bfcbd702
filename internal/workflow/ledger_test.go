package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	model "caseflow.io/caseflow/internal/models"
)

func submitResponse(t *testing.T, e *Engine, task *model.Task, user string, in ResponseInput) *model.Task {
	t.Helper()
	return apply(t, e, task, Request{Event: constants.EventSubmitResponse, Actor: actor(user), Response: &in})
}

func TestLedger_SubmitResponseKeepsStatus(t *testing.T) {
	e := newTestEngine(Policy{})
	task := newTask(constants.StatusInProgress)

	next := submitResponse(t, e, task, assigneeID, ResponseInput{
		Comment:              "  drafted sections 1-3  ",
		CompletionPercentage: 40,
		TimeSpent:            90,
		Documents:            []string{"doc-1", "doc-2"},
	})

	assert.Equal(t, constants.StatusInProgress, next.Status)
	require.Len(t, next.Responses, 1)
	entry := next.Responses[0]
	assert.Equal(t, "resp-1", entry.ID)
	assert.Equal(t, task.ID, entry.TaskID)
	assert.Equal(t, 1, entry.Seq)
	assert.Equal(t, "drafted sections 1-3", entry.Comment)
	assert.Equal(t, constants.ResponsePartial, entry.Status)
	assert.Equal(t, []string{"doc-1", "doc-2"}, entry.Documents)
	assert.Equal(t, fixedNow, entry.SubmittedAt)
	assert.Empty(t, task.Responses)
}

func TestLedger_CompletedResponseWithSubmitMovesToReview(t *testing.T) {
	e := newTestEngine(Policy{})

	out, err := e.Apply(newTask(constants.StatusInProgress), Request{
		Event: constants.EventSubmitResponse,
		Actor: actor(assigneeID),
		Response: &ResponseInput{
			Comment:              "final draft attached",
			CompletionPercentage: 100,
			Completed:            true,
			SubmitForReview:      true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusUnderReview, out.Task.Status)
	assert.Len(t, out.Task.Responses, 1)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, constants.NoticeSubmittedForReview, out.Notices[0].Kind)
}

func TestLedger_CompletedResponseWithoutSubmitStaysInProgress(t *testing.T) {
	e := newTestEngine(Policy{})

	next := submitResponse(t, e, newTask(constants.StatusInProgress), assigneeID, ResponseInput{CompletionPercentage: 100, Completed: true})
	assert.Equal(t, constants.StatusInProgress, next.Status)
	assert.Equal(t, constants.ResponseCompleted, next.Responses[0].Status)
}

func TestLedger_Validation(t *testing.T) {
	e := newTestEngine(Policy{})
	inputs := []ResponseInput{
		{CompletionPercentage: 150},
		{CompletionPercentage: -1},
		{CompletionPercentage: 10, TimeSpent: -5},
		{CompletionPercentage: 10, Documents: []string{" "}},
	}

	for _, in := range inputs {
		task := newTask(constants.StatusInProgress)
		before := task.Clone()
		_, err := e.Apply(task, Request{Event: constants.EventSubmitResponse, Actor: actor(assigneeID), Response: &in})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, before, task)
	}
}

func TestLedger_NotAllowedUnderReviewOrForOutsiders(t *testing.T) {
	e := newTestEngine(Policy{})
	in := ResponseInput{CompletionPercentage: 10}

	_, err := e.Apply(newTask(constants.StatusUnderReview), Request{Event: constants.EventSubmitResponse, Actor: actor(assigneeID), Response: &in})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = e.Apply(newTask(constants.StatusInProgress), Request{Event: constants.EventSubmitResponse, Actor: actor(creatorID), Response: &in})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestLedger_ResponsesRefusedOnceRejected(t *testing.T) {
	e := newTestEngine(Policy{})
	task := newTask(constants.StatusRejected)
	before := task.Clone()
	in := ResponseInput{CompletionPercentage: 40}

	_, err := e.Apply(task, Request{Event: constants.EventSubmitResponse, Actor: actor(assigneeID), Response: &in})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, before, task)
	assert.False(t, ResolveCapabilities(task, actor(assigneeID)).CanSubmitResponse)

	in = ResponseInput{CompletionPercentage: 100, Completed: true, SubmitForReview: true}
	_, err = e.Apply(task, Request{Event: constants.EventSubmitResponse, Actor: actor(assigneeID), Response: &in})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestOverallProgress(t *testing.T) {
	entries := func(pcts ...int) []model.TaskResponse {
		out := make([]model.TaskResponse, len(pcts))
		for i, p := range pcts {
			out[i] = model.TaskResponse{CompletionPercentage: p}
		}
		return out
	}

	assert.Equal(t, 0, OverallProgress(nil))
	assert.Equal(t, 40, OverallProgress(entries(40)))
	assert.Equal(t, 50, OverallProgress(entries(20, 80)))
	assert.Equal(t, 33, OverallProgress(entries(0, 0, 100)))
	assert.Equal(t, 67, OverallProgress(entries(100, 100, 0)))
	assert.Equal(t, 3, OverallProgress(entries(2, 3)))
	assert.Equal(t, OverallProgress(entries(10, 55, 90, 35)), OverallProgress(entries(90, 35, 10, 55)))
}

func TestOverallProgress_AfterAppends(t *testing.T) {
	e := newTestEngine(Policy{})
	task := newTask(constants.StatusInProgress)

	for _, pct := range []int{10, 25, 60, 85} {
		task = submitResponse(t, e, task, assigneeID, ResponseInput{CompletionPercentage: pct})
	}

	assert.Equal(t, 45, OverallProgress(task.Responses))
	for i, r := range task.Responses {
		assert.Equal(t, i+1, r.Seq)
	}
}

func TestAppendResponse(t *testing.T) {
	task := newTask(constants.StatusInProgress)

	next, err := AppendResponse(task, model.TaskResponse{ID: "r1", SubmittedBy: assigneeID, CompletionPercentage: 30, TimeSpent: 15})
	require.NoError(t, err)
	require.Len(t, next.Responses, 1)
	assert.Equal(t, constants.ResponsePartial, next.Responses[0].Status)
	assert.Empty(t, task.Responses)

	_, err = AppendResponse(task, model.TaskResponse{ID: "r2", CompletionPercentage: 101})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteResponse_Authorization(t *testing.T) {
	e := newTestEngine(Policy{})
	base := submitResponse(t, e, newTask(constants.StatusInProgress), reviewerID, ResponseInput{CompletionPercentage: 20})
	responseID := base.Responses[0].ID

	allowed := []Actor{actor(reviewerID), actor(creatorID), actor(assigneeID), actor(collabID), {UserID: outsiderID, IsAdmin: true}}
	for _, a := range allowed {
		out, err := e.Apply(base, Request{Event: constants.EventDeleteResponse, Actor: a, ResponseID: responseID})
		require.NoError(t, err, "actor %s", a.UserID)
		assert.Empty(t, out.Task.Responses)
	}

	denied := []Actor{actor(viewerID), actor(outsiderID)}
	for _, a := range denied {
		_, err := e.Apply(base, Request{Event: constants.EventDeleteResponse, Actor: a, ResponseID: responseID})
		assert.ErrorIs(t, err, apperrors.ErrNotAuthorized, "actor %s", a.UserID)
	}
	assert.Len(t, base.Responses, 1)
}

func TestDeleteResponse_PreservesOrder(t *testing.T) {
	e := newTestEngine(Policy{})
	task := newTask(constants.StatusInProgress)
	for _, pct := range []int{10, 20, 30} {
		task = submitResponse(t, e, task, assigneeID, ResponseInput{CompletionPercentage: pct})
	}

	next := apply(t, e, task, Request{Event: constants.EventDeleteResponse, Actor: actor(assigneeID), ResponseID: "resp-2"})
	require.Len(t, next.Responses, 2)
	assert.Equal(t, "resp-1", next.Responses[0].ID)
	assert.Equal(t, "resp-3", next.Responses[1].ID)
	assert.Len(t, task.Responses, 3)
}

func TestDeleteResponse_NotFoundAndCompleted(t *testing.T) {
	e := newTestEngine(Policy{})

	_, err := e.Apply(newTask(constants.StatusInProgress), Request{Event: constants.EventDeleteResponse, Actor: actor(creatorID), ResponseID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = e.Apply(newTask(constants.StatusCompleted), Request{Event: constants.EventDeleteResponse, Actor: actor(creatorID), ResponseID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}
