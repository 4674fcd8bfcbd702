package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"caseflow.io/caseflow/internal/constants"
	dto "caseflow.io/caseflow/internal/data_models"
	apperrors "caseflow.io/caseflow/internal/errors"
	middleware "caseflow.io/caseflow/internal/http/middlewares"
	model "caseflow.io/caseflow/internal/models"
	repository "caseflow.io/caseflow/internal/repositories"
	"caseflow.io/caseflow/internal/services"
	"caseflow.io/caseflow/internal/workflow"
)

type Handler struct {
	taskService *services.TaskService
}

func NewHandler(taskService *services.TaskService) *Handler {
	return &Handler{
		taskService: taskService,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), actor, req.ToInput())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewTaskView(task))
}

func (h *Handler) GetTask(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewTaskView(task))
}

func (h *Handler) ListTasks(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	filter := repository.ListFilter{
		Status:     constants.TaskStatus(c.QueryParam("status")),
		AssigneeID: c.QueryParam("assignee"),
		CreatedBy:  c.QueryParam("created_by"),
		CaseID:     c.QueryParam("case_id"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > repository.MaxListLimit {
			return apperrors.ErrInvalidLimit
		}
		filter.Limit = limit
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewTaskList(tasks))
}

func (h *Handler) UpdateTask(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), actor, id, req.ToInput())
	return respond(c, task, err)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Capabilities(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	caps, err := h.taskService.Capabilities(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, caps)
}

func (h *Handler) Progress(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	progress, err := h.taskService.Progress(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, progress)
}

func (h *Handler) Events(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	events, err := h.taskService.Events(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":  len(events),
		"events": events,
	})
}

func (h *Handler) StartTask(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.StartTask(c.Request().Context(), actor, id)
	return respond(c, task, err)
}

func (h *Handler) SubmitForReview(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.SubmitForReview(c.Request().Context(), actor, id, req.Comment)
	return respond(c, task, err)
}

func (h *Handler) ReviewTask(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.ReviewTask(c.Request().Context(), actor, id, req.ToDecision())
	return respond(c, task, err)
}

func (h *Handler) ForceComplete(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.ForceComplete(c.Request().Context(), actor, id, req.Comment)
	return respond(c, task, err)
}

func (h *Handler) SubmitResponse(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.SubmitResponse(c.Request().Context(), actor, id, req.ToInput())
	return respond(c, task, err)
}

func (h *Handler) DeleteResponse(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	responseID := c.Param("responseId")
	if responseID == "" {
		return apperrors.ErrResponseNotFound
	}

	task, err := h.taskService.DeleteResponse(c.Request().Context(), actor, id, responseID)
	return respond(c, task, err)
}

func respond(c echo.Context, task *model.Task, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewTaskView(task))
}

func actorOf(c echo.Context) (workflow.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return workflow.Actor{}, apperrors.ErrUnauthenticated
	}
	return actor, nil
}

func actorAndID(c echo.Context) (workflow.Actor, string, error) {
	actor, err := actorOf(c)
	if err != nil {
		return workflow.Actor{}, "", err
	}
	id := c.Param("id")
	if id == "" {
		return workflow.Actor{}, "", apperrors.ErrTaskIDRequired
	}
	return actor, id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	return c.Validate(req)
}

// ErrorHandler renders every error as {"error": kind, "message": msg}.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := dto.ErrorResponse{Error: "Internal", Message: "internal server error"}

		var ex *apperrors.Exception
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ex):
			status = apperrors.StatusCode(ex)
			body = dto.ErrorResponse{Error: string(ex.Kind), Field: ex.Field, Message: ex.Message}
		case errors.As(err, &he):
			status = he.Code
			body = dto.ErrorResponse{Error: http.StatusText(he.Code), Message: fmt.Sprint(he.Message)}
		default:
			logger.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("failed to write error response", slog.String("error", err.Error()))
		}
	}
}
