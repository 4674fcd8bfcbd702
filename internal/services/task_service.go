package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	"caseflow.io/caseflow/internal/metrics"
	model "caseflow.io/caseflow/internal/models"
	repository "caseflow.io/caseflow/internal/repositories"
	"caseflow.io/caseflow/internal/workflow"
)

// TaskStore is the persistence the service needs. Save and Delete must fail
// with repository.ErrOptimisticLock when the stored version has moved on.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task, audit *model.TaskAudit) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context, filter repository.ListFilter) ([]model.Task, error)
	Save(ctx context.Context, task *model.Task, audit *model.TaskAudit) error
	Delete(ctx context.Context, task *model.Task, audit *model.TaskAudit) error
	Events(ctx context.Context, taskID string) ([]model.TaskAudit, error)
}

type Dispatcher interface {
	Enqueue(ctx context.Context, notice workflow.Notice) error
}

type AssigneeInput struct {
	UserID   string
	Role     constants.AssigneeRole
	IsClient bool
}

type CreateTaskInput struct {
	Title       string
	Description string
	CaseID      string
	DueDate     *time.Time
	Assignees   []AssigneeInput
}

// UpdateTaskInput leaves fields that are nil untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	CaseID      *string
	DueDate     *time.Time
	Assignees   []AssigneeInput
}

const MaxTitleLength = 200

type TaskService struct {
	repo       TaskStore
	engine     *workflow.Engine
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	retries    int
	now        func() time.Time
}

func NewTaskService(
	repo TaskStore,
	engine *workflow.Engine,
	dispatcher Dispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
	conflictRetries int,
) *TaskService {
	return &TaskService{
		repo:       repo,
		engine:     engine,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		retries:    conflictRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) CreateTask(ctx context.Context, actor workflow.Actor, in CreateTaskInput) (*model.Task, error) {
	if actor.UserID == "" {
		return nil, s.fail(constants.EventCreate, apperrors.ErrUnauthenticated)
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, s.fail(constants.EventCreate, err)
	}
	assignees, err := buildAssignees(in.Assignees, actor.UserID)
	if err != nil {
		return nil, s.fail(constants.EventCreate, err)
	}

	now := s.now()
	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CaseID:      strings.TrimSpace(in.CaseID),
		Status:      constants.StatusPending,
		CreatedBy:   actor.UserID,
		Version:     1,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Assignees:   assignees,
	}

	audit := &model.TaskAudit{
		ActorID:   actor.UserID,
		Action:    constants.EventCreate,
		ToStatus:  constants.StatusPending,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, task, audit); err != nil {
		return nil, s.fail(constants.EventCreate, err)
	}

	s.succeed(constants.EventCreate)
	s.logger.InfoContext(ctx, "task created",
		slog.String("task_id", task.ID),
		slog.String("created_by", actor.UserID),
		slog.Int("assignees", len(assignees)),
	)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor workflow.Actor, id string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(task, actor) {
		return nil, apperrors.NotAuthorized("you are not a participant in this task")
	}
	return task, nil
}

// ListTasks lets admins list anything. Everyone else may only list tasks
// they created or are assigned to, defaulting to their assignments.
func (s *TaskService) ListTasks(ctx context.Context, actor workflow.Actor, filter repository.ListFilter) ([]model.Task, error) {
	if !actor.IsAdmin {
		if filter.AssigneeID == "" && filter.CreatedBy == "" {
			filter.AssigneeID = actor.UserID
		}
		if (filter.AssigneeID != "" && filter.AssigneeID != actor.UserID) ||
			(filter.CreatedBy != "" && filter.CreatedBy != actor.UserID) {
			return nil, apperrors.NotAuthorized("only admins can list other users' tasks")
		}
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.Validation("status", "unknown status %q", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *TaskService) Capabilities(ctx context.Context, actor workflow.Actor, id string) (workflow.Capabilities, error) {
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return workflow.Capabilities{}, err
	}
	return s.engine.Capabilities(task, actor), nil
}

type Progress struct {
	OverallProgress int `json:"overall_progress"`
	TotalTimeSpent  int `json:"total_time_spent"`
	Responses       int `json:"responses"`
}

func (s *TaskService) Progress(ctx context.Context, actor workflow.Actor, id string) (Progress, error) {
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		OverallProgress: workflow.OverallProgress(task.Responses),
		TotalTimeSpent:  workflow.TotalTimeSpent(task.Responses),
		Responses:       len(task.Responses),
	}, nil
}

func (s *TaskService) Events(ctx context.Context, actor workflow.Actor, id string) ([]model.TaskAudit, error) {
	if _, err := s.GetTask(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.Events(ctx, id)
}

func (s *TaskService) UpdateTask(ctx context.Context, actor workflow.Actor, id string, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(constants.EventUpdate, err)
	}
	if !s.engine.Capabilities(task, actor).CanEdit {
		return nil, s.fail(constants.EventUpdate, apperrors.NotAuthorized("only the task creator can edit this task"))
	}
	if task.Status.IsTerminal() {
		return nil, s.fail(constants.EventUpdate, apperrors.InvalidState("task is already %s", task.Status))
	}

	next := task.Clone()
	if in.Title != nil {
		title, err := cleanTitle(*in.Title)
		if err != nil {
			return nil, s.fail(constants.EventUpdate, err)
		}
		next.Title = title
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
	}
	if in.CaseID != nil {
		next.CaseID = strings.TrimSpace(*in.CaseID)
	}
	if in.DueDate != nil {
		due := *in.DueDate
		next.DueDate = &due
	}
	if in.Assignees != nil {
		assignees, err := buildAssignees(in.Assignees, actor.UserID)
		if err != nil {
			return nil, s.fail(constants.EventUpdate, err)
		}
		next.Assignees = mergeAssignedBy(task.Assignees, assignees)
	}

	now := s.now()
	next.UpdatedAt = now
	audit := &model.TaskAudit{
		ActorID:    actor.UserID,
		Action:     constants.EventUpdate,
		FromStatus: task.Status,
		ToStatus:   next.Status,
		CreatedAt:  now,
	}
	if err := s.repo.Save(ctx, next, audit); err != nil {
		return nil, s.fail(constants.EventUpdate, err)
	}

	s.succeed(constants.EventUpdate)
	return next, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor workflow.Actor, id string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail(constants.EventDelete, err)
	}
	if !s.engine.Capabilities(task, actor).CanDelete {
		return s.fail(constants.EventDelete, apperrors.NotAuthorized("only the task creator or an admin can delete this task"))
	}

	audit := &model.TaskAudit{
		ActorID:    actor.UserID,
		Action:     constants.EventDelete,
		FromStatus: task.Status,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Delete(ctx, task, audit); err != nil {
		return s.fail(constants.EventDelete, err)
	}

	s.succeed(constants.EventDelete)
	s.logger.InfoContext(ctx, "task deleted", slog.String("task_id", id), slog.String("actor", actor.UserID))
	return nil
}

func (s *TaskService) StartTask(ctx context.Context, actor workflow.Actor, id string) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventStart, Actor: actor})
}

func (s *TaskService) SubmitForReview(ctx context.Context, actor workflow.Actor, id, comment string) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventSubmitForReview, Actor: actor, Comment: comment})
}

func (s *TaskService) ReviewTask(ctx context.Context, actor workflow.Actor, id string, decision workflow.Decision) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventReview, Actor: actor, Decision: &decision})
}

func (s *TaskService) ForceComplete(ctx context.Context, actor workflow.Actor, id, comment string) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventForceComplete, Actor: actor, Comment: comment})
}

func (s *TaskService) SubmitResponse(ctx context.Context, actor workflow.Actor, id string, in workflow.ResponseInput) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventSubmitResponse, Actor: actor, Response: &in})
}

func (s *TaskService) DeleteResponse(ctx context.Context, actor workflow.Actor, id, responseID string) (*model.Task, error) {
	return s.apply(ctx, id, workflow.Request{Event: constants.EventDeleteResponse, Actor: actor, ResponseID: responseID})
}

// apply runs req through the engine and saves the result. On a version
// conflict the task is reloaded: if its status moved, the request is judged
// against the new state and fails either with the engine's error or with
// ErrOptimisticLock, so two racing transitions never both succeed. If only
// the ledger moved, the request is retried up to s.retries times.
func (s *TaskService) apply(ctx context.Context, id string, req workflow.Request) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(req.Event, err)
	}
	loadedStatus := task.Status

	for attempt := 0; ; attempt++ {
		out, err := s.engine.Apply(task, req)
		if err != nil {
			return nil, s.fail(req.Event, err)
		}

		err = s.repo.Save(ctx, out.Task, &out.Audit)
		if err == nil {
			s.succeed(req.Event)
			s.logger.InfoContext(ctx, "task transition",
				slog.String("task_id", id),
				slog.String("event", string(req.Event)),
				slog.String("actor", req.Actor.UserID),
				slog.String("from", string(out.Audit.FromStatus)),
				slog.String("to", string(out.Audit.ToStatus)),
			)
			s.dispatch(ctx, out.Notices)
			return out.Task, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, s.fail(req.Event, err)
		}

		s.metrics.Conflicts.Inc()
		fresh, ferr := s.repo.FindByID(ctx, id)
		if ferr != nil {
			return nil, s.fail(req.Event, ferr)
		}
		if fresh.Status != loadedStatus {
			if _, verr := s.engine.Apply(fresh, req); verr != nil {
				return nil, s.fail(req.Event, verr)
			}
			return nil, s.fail(req.Event, repository.ErrOptimisticLock)
		}
		if attempt >= s.retries {
			return nil, s.fail(req.Event, repository.ErrOptimisticLock)
		}

		s.logger.DebugContext(ctx, "retrying after version conflict",
			slog.String("task_id", id), slog.Int("attempt", attempt+1))
		task = fresh
	}
}

// dispatch hands notices to the dispatcher. A failure here is logged and
// never reported to the caller: the transition is already committed.
func (s *TaskService) dispatch(ctx context.Context, notices []workflow.Notice) {
	if s.dispatcher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, n := range notices {
		if err := s.dispatcher.Enqueue(ctx, n); err != nil {
			s.logger.Warn("notice dropped",
				slog.String("event", string(n.Kind)),
				slog.String("task_id", n.TaskID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *TaskService) succeed(event constants.TaskEvent) {
	s.metrics.Transitions.WithLabelValues(string(event), "ok").Inc()
}

func (s *TaskService) fail(event constants.TaskEvent, err error) error {
	result := string(apperrors.KindOf(err))
	if result == "" {
		result = "internal"
		s.logger.Error("task command failed",
			slog.String("event", string(event)), slog.String("error", err.Error()))
	}
	s.metrics.Transitions.WithLabelValues(string(event), result).Inc()
	return err
}

func canView(task *model.Task, actor workflow.Actor) bool {
	if actor.IsAdmin || task.IsCreatedBy(actor.UserID) {
		return true
	}
	_, ok := task.AssigneeFor(actor.UserID)
	return ok
}

// cleanTitle trims a title and refuses line breaks and other control
// characters, since titles end up in mail headers.
func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.Validation("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperrors.Validation("title", "must be at most %d characters", MaxTitleLength)
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return "", apperrors.Validation("title", "must not contain line breaks or control characters")
	}
	return title, nil
}

func buildAssignees(in []AssigneeInput, assignedBy string) ([]model.TaskAssignee, error) {
	if len(in) == 0 {
		return nil, apperrors.Validation("assignees", "at least one assignee is required")
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]model.TaskAssignee, 0, len(in))
	for _, a := range in {
		userID := strings.TrimSpace(a.UserID)
		if userID == "" {
			return nil, apperrors.Validation("assignees", "user_id is required")
		}
		if _, dup := seen[userID]; dup {
			return nil, apperrors.Validation("assignees", "user %s is assigned more than once", userID)
		}
		seen[userID] = struct{}{}

		role := a.Role
		if role == "" {
			role = constants.RolePrimary
		}
		if !role.IsValid() {
			return nil, apperrors.Validation("assignees", "unknown role %q", role)
		}
		out = append(out, model.TaskAssignee{
			UserID:     userID,
			Role:       role,
			IsClient:   a.IsClient,
			AssignedBy: assignedBy,
		})
	}
	return out, nil
}

// mergeAssignedBy keeps the original assigner for users who were already
// on the task.
func mergeAssignedBy(prev, next []model.TaskAssignee) []model.TaskAssignee {
	for i := range next {
		for _, p := range prev {
			if p.UserID == next[i].UserID && p.AssignedBy != "" {
				next[i].AssignedBy = p.AssignedBy
				break
			}
		}
	}
	return next
}
