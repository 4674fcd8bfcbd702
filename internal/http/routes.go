package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caseflow.io/caseflow/internal/auth"
	middleware "caseflow.io/caseflow/internal/http/middlewares"
	"caseflow.io/caseflow/internal/http/validators"
	"caseflow.io/caseflow/internal/metrics"
)

func Register(e *echo.Echo, h *Handler, signer *auth.Signer, m *metrics.Metrics, logger *slog.Logger, rateLimitPerMinute int) {
	e.HideBanner = true
	e.Validator = validators.New()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	tasks := e.Group("/tasks",
		middleware.Authenticate(signer),
		middleware.RateLimiter(rateLimitPerMinute, time.Minute),
	)

	tasks.POST("", h.CreateTask)
	tasks.GET("", h.ListTasks)
	tasks.GET("/:id", h.GetTask)
	tasks.PATCH("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)
	tasks.GET("/:id/capabilities", h.Capabilities)
	tasks.GET("/:id/progress", h.Progress)
	tasks.GET("/:id/events", h.Events)

	tasks.POST("/:id/start", h.StartTask)
	tasks.POST("/:id/submit", h.SubmitForReview)
	tasks.POST("/:id/review", h.ReviewTask)
	tasks.POST("/:id/force-complete", h.ForceComplete)
	tasks.POST("/:id/responses", h.SubmitResponse)
	tasks.DELETE("/:id/responses/:responseId", h.DeleteResponse)
}
