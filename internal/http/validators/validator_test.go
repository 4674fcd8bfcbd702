package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "caseflow.io/caseflow/internal/data_models"
	apperrors "caseflow.io/caseflow/internal/errors"
)

func TestRequestValidator(t *testing.T) {
	v := New()

	valid := dto.CreateTaskRequest{
		Title:     "Prepare deposition outline",
		Assignees: []dto.AssigneeRequest{{UserID: "associate-a", Role: "primary"}},
	}
	require.NoError(t, v.Validate(&valid))

	tests := []struct {
		name  string
		req   dto.CreateTaskRequest
		field string
	}{
		{"missing title", dto.CreateTaskRequest{Assignees: valid.Assignees}, "title"},
		{"no assignees", dto.CreateTaskRequest{Title: "x"}, "assignees"},
		{"assignee without user", dto.CreateTaskRequest{Title: "x", Assignees: []dto.AssigneeRequest{{Role: "primary"}}}, "assignees[0].user_id"},
		{"title with line break", dto.CreateTaskRequest{Title: "Brief\r\nReply-To: attacker@evil.test", Assignees: valid.Assignees}, "title"},
		{"unknown role", dto.CreateTaskRequest{Title: "x", Assignees: []dto.AssigneeRequest{{UserID: "u", Role: "owner"}}}, "assignees[0].role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)

			var ex *apperrors.Exception
			require.ErrorAs(t, err, &ex)
			assert.Equal(t, tt.field, ex.Field)
		})
	}
}

func TestRequestValidator_UpdateTitle(t *testing.T) {
	v := New()

	title := "Brief\nBcc: x"
	err := v.Validate(&dto.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	title = "Brief"
	assert.NoError(t, v.Validate(&dto.UpdateTaskRequest{Title: &title}))
}

func TestRequestValidator_Review(t *testing.T) {
	v := New()

	err := v.Validate(&dto.ReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
