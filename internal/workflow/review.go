package workflow

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	model "caseflow.io/caseflow/internal/models"
)

const (
	MinRating = 1.0
	MaxRating = 5.0

	MinReviewCommentLength = 20
	MaxReviewCommentLength = 1000
)

// Decision is a reviewer's verdict on a task under review.
type Decision struct {
	Approve       bool
	Rating        float64
	ReviewComment string
}

// ValidateRating accepts whole and half steps between MinRating and MaxRating.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return apperrors.Validation("rating", "must be between %g and %g", MinRating, MaxRating)
	}
	if doubled := rating * 2; doubled != math.Trunc(doubled) {
		return apperrors.Validation("rating", "must be a whole or half number, got %g", rating)
	}
	return nil
}

func ValidateDecision(d Decision) error {
	if err := ValidateRating(d.Rating); err != nil {
		return err
	}
	n := utf8.RuneCountInString(strings.TrimSpace(d.ReviewComment))
	if n < MinReviewCommentLength || n > MaxReviewCommentLength {
		return apperrors.Validation("review_comment", "must be %d to %d characters, got %d",
			MinReviewCommentLength, MaxReviewCommentLength, n)
	}
	return nil
}

// Review applies decision to a task under review on behalf of actor.
func (e *Engine) Review(task *model.Task, decision Decision, actor Actor) (*Outcome, error) {
	return e.Apply(task, Request{
		Event:    constants.EventReview,
		Actor:    actor,
		Decision: &decision,
	})
}

func (e *Engine) applyReview(t *model.Task, req Request, now time.Time, out *Outcome) error {
	d := req.Decision
	rating := d.Rating
	comment := strings.TrimSpace(d.ReviewComment)

	// Any previous outcome is replaced; history lives in the audit log.
	t.Review = &model.ReviewOutcome{
		TaskID:        t.ID,
		Approve:       d.Approve,
		Rating:        &rating,
		ReviewComment: comment,
		ReviewedBy:    req.Actor.UserID,
		ReviewedAt:    now,
	}

	kind := constants.NoticeRejected
	if d.Approve {
		t.Status = constants.StatusCompleted
		t.ActualCompletionDate = &now
		kind = constants.NoticeApproved
	} else {
		t.Status = constants.StatusRejected
	}

	approve := d.Approve
	out.Audit.Approve = &approve
	out.Audit.Rating = &rating
	out.Audit.Comment = comment
	out.addNotice(closingNotice(kind, t, req.Actor, now, map[string]string{
		"rating":         strconv.FormatFloat(rating, 'f', -1, 64),
		"review_comment": comment,
	}))
	return nil
}

func (e *Engine) applyForceComplete(t *model.Task, req Request, now time.Time, out *Outcome) error {
	comment := strings.TrimSpace(req.Comment)
	t.Status = constants.StatusCompleted
	t.ActualCompletionDate = &now
	t.Review = &model.ReviewOutcome{
		TaskID:        t.ID,
		Approve:       true,
		ReviewComment: comment,
		ReviewedBy:    req.Actor.UserID,
		ReviewedAt:    now,
	}

	approve := true
	out.Audit.Approve = &approve
	out.Audit.Comment = comment
	out.addNotice(closingNotice(constants.NoticeForceCompleted, t, req.Actor, now, map[string]string{
		"comment": comment,
	}))
	return nil
}
