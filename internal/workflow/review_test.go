package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "caseflow.io/caseflow/internal/errors"
)

func TestValidateDecision(t *testing.T) {
	tests := []struct {
		name    string
		d       Decision
		wantErr bool
	}{
		{"valid approve", Decision{Approve: true, Rating: 5, ReviewComment: approveComment}, false},
		{"valid reject half rating", Decision{Rating: 2.5, ReviewComment: rejectComment}, false},
		{"comment too short", Decision{Rating: 3, ReviewComment: "too short"}, true},
		{"comment short after trim", Decision{Rating: 3, ReviewComment: "   short but padded        "}, true},
		{"comment exactly min", Decision{Rating: 3, ReviewComment: strings.Repeat("x", MinReviewCommentLength)}, false},
		{"comment exactly max", Decision{Rating: 3, ReviewComment: strings.Repeat("x", MaxReviewCommentLength)}, false},
		{"comment too long", Decision{Rating: 3, ReviewComment: strings.Repeat("x", MaxReviewCommentLength+1)}, true},
		{"multibyte counted as runes", Decision{Rating: 3, ReviewComment: strings.Repeat("é", MinReviewCommentLength)}, false},
		{"rating zero", Decision{Rating: 0, ReviewComment: approveComment}, true},
		{"rating quarter step", Decision{Rating: 3.25, ReviewComment: approveComment}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDecision(tt.d)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
