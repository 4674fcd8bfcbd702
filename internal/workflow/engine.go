package workflow

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	model "caseflow.io/caseflow/internal/models"
)

const MaxTransitionCommentLength = 1000

// Request is one command against a task. Only the payload field matching
// Event is read.
type Request struct {
	Event      constants.TaskEvent
	Actor      Actor
	Comment    string
	Decision   *Decision
	Response   *ResponseInput
	ResponseID string
}

// Outcome is the result of a successful transition: the next snapshot of the
// task, the notices it asks for, and the audit record describing it.
type Outcome struct {
	Task    *model.Task
	Notices []Notice
	Audit   model.TaskAudit
}

func (o *Outcome) addNotice(n Notice) {
	if len(n.Recipients) == 0 {
		return
	}
	o.Notices = append(o.Notices, n)
}

type transition struct {
	from   []constants.TaskStatus
	guard  func(Capabilities) bool
	denied string
	apply  func(e *Engine, t *model.Task, req Request, now time.Time, out *Outcome) error
}

func (tr transition) allows(s constants.TaskStatus) bool {
	for _, from := range tr.from {
		if from == s {
			return true
		}
	}
	return false
}

var transitions = map[constants.TaskEvent]transition{
	constants.EventStart: {
		from:   []constants.TaskStatus{constants.StatusPending},
		guard:  func(c Capabilities) bool { return c.CanStart },
		denied: "only an assignee can start this task",
		apply:  (*Engine).applyStart,
	},
	constants.EventSubmitForReview: {
		from:   []constants.TaskStatus{constants.StatusInProgress, constants.StatusRejected},
		guard:  func(c Capabilities) bool { return c.CanSubmitForReview },
		denied: "only an assignee can submit this task for review",
		apply:  (*Engine).applySubmitForReview,
	},
	constants.EventReview: {
		from:   []constants.TaskStatus{constants.StatusUnderReview},
		guard:  func(c Capabilities) bool { return c.CanReview },
		denied: "only the task creator can review this task",
		apply:  (*Engine).applyReview,
	},
	constants.EventForceComplete: {
		from: []constants.TaskStatus{
			constants.StatusPending, constants.StatusInProgress,
			constants.StatusUnderReview, constants.StatusRejected,
		},
		guard:  func(c Capabilities) bool { return c.CanForceComplete },
		denied: "only the task creator can force-complete this task",
		apply:  (*Engine).applyForceComplete,
	},
	constants.EventSubmitResponse: {
		from:   []constants.TaskStatus{constants.StatusPending, constants.StatusInProgress},
		guard:  func(c Capabilities) bool { return c.CanSubmitResponse },
		denied: "only an assignee can submit a response",
		apply:  (*Engine).applySubmitResponse,
	},
	constants.EventDeleteResponse: {
		from: []constants.TaskStatus{
			constants.StatusPending, constants.StatusInProgress,
			constants.StatusUnderReview, constants.StatusRejected,
		},
		// Authorization depends on the entry and is checked in apply.
		guard: func(Capabilities) bool { return true },
		apply: (*Engine).applyDeleteResponse,
	},
}

type Engine struct {
	policy Policy
	now    func() time.Time
	newID  func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func NewEngine(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Capabilities resolves what actor may do to task under the engine's policy.
func (e *Engine) Capabilities(task *model.Task, actor Actor) Capabilities {
	return e.policy.Resolve(task, actor)
}

// Apply validates req against task and returns the resulting outcome. Checks
// run in a fixed order: payload, then legality from the current status, then
// the actor's capability. task itself is never modified.
func (e *Engine) Apply(task *model.Task, req Request) (*Outcome, error) {
	tr, ok := transitions[req.Event]
	if !ok {
		return nil, apperrors.Validation("event", "unknown event %q", req.Event)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !tr.allows(task.Status) {
		return nil, invalidState(req.Event, task.Status)
	}
	if !tr.guard(e.policy.Resolve(task, req.Actor)) {
		return nil, apperrors.NotAuthorized("%s", tr.denied)
	}

	now := e.now()
	next := task.Clone()
	out := &Outcome{
		Task: next,
		Audit: model.TaskAudit{
			TaskID:     task.ID,
			ActorID:    req.Actor.UserID,
			Action:     req.Event,
			FromStatus: task.Status,
			CreatedAt:  now,
		},
	}
	if err := tr.apply(e, next, req, now, out); err != nil {
		return nil, err
	}

	next.UpdatedAt = now
	out.Audit.ToStatus = next.Status
	return out, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Actor.UserID) == "" {
		return apperrors.NotAuthorized("an authenticated user is required")
	}
	if utf8.RuneCountInString(req.Comment) > MaxTransitionCommentLength {
		return apperrors.Validation("comment", "must be at most %d characters", MaxTransitionCommentLength)
	}

	switch req.Event {
	case constants.EventReview:
		if req.Decision == nil {
			return apperrors.Validation("decision", "a review decision is required")
		}
		return ValidateDecision(*req.Decision)
	case constants.EventSubmitResponse:
		if req.Response == nil {
			return apperrors.Validation("response", "a response entry is required")
		}
		return ValidateResponse(*req.Response)
	case constants.EventDeleteResponse:
		if strings.TrimSpace(req.ResponseID) == "" {
			return apperrors.Validation("response_id", "is required")
		}
	}
	return nil
}

func invalidState(event constants.TaskEvent, status constants.TaskStatus) error {
	if status.IsTerminal() {
		return apperrors.InvalidState("task is already %s", status)
	}
	return apperrors.InvalidState("cannot %s a task that is %s", event, status)
}

func (e *Engine) applyStart(t *model.Task, _ Request, now time.Time, _ *Outcome) error {
	t.Status = constants.StatusInProgress
	if t.StartDate == nil {
		t.StartDate = &now
	}
	return nil
}

func (e *Engine) applySubmitForReview(t *model.Task, req Request, now time.Time, out *Outcome) error {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		comment = "submitted for review"
	}
	pct := implicitPercentage(t.Responses)
	status := constants.ResponsePartial
	if pct == 100 {
		status = constants.ResponseCompleted
	}
	appendEntry(t, model.TaskResponse{
		ID:                   e.newID(),
		SubmittedBy:          req.Actor.UserID,
		SubmittedAt:          now,
		Comment:              comment,
		CompletionPercentage: pct,
		Status:               status,
	})
	e.moveToReview(t, req.Actor, comment, now, out)
	return nil
}

// implicitPercentage repeats the latest reported percentage so a submission
// does not shift overall progress. An empty ledger counts as done.
func implicitPercentage(entries []model.TaskResponse) int {
	if len(entries) == 0 {
		return 100
	}
	return entries[len(entries)-1].CompletionPercentage
}

func (e *Engine) moveToReview(t *model.Task, actor Actor, comment string, now time.Time, out *Outcome) {
	t.Status = constants.StatusUnderReview
	out.Audit.Comment = comment
	out.addNotice(e.policy.submittedNotice(t, actor, comment, now))
}

func (e *Engine) applySubmitResponse(t *model.Task, req Request, now time.Time, out *Outcome) error {
	in := *req.Response
	from := t.Status
	entry := newEntry(e.newID(), req.Actor, in, now)
	appendEntry(t, entry)
	out.Audit.Comment = entry.Comment

	if !(in.Completed && in.SubmitForReview) {
		return nil
	}
	if from != constants.StatusInProgress {
		return invalidState(constants.EventSubmitForReview, from)
	}
	e.moveToReview(t, req.Actor, entry.Comment, now, out)
	return nil
}

func (e *Engine) applyDeleteResponse(t *model.Task, req Request, _ time.Time, out *Outcome) error {
	idx, ok := t.FindResponse(req.ResponseID)
	if !ok {
		return apperrors.ErrResponseNotFound
	}
	if !CanDeleteResponse(t, t.Responses[idx], req.Actor) {
		return apperrors.NotAuthorized("only the author, the task creator, an admin or a primary or collaborating assignee can delete this response")
	}
	removeEntry(t, idx)
	out.Audit.Comment = "deleted response " + req.ResponseID
	return nil
}
