package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	config "caseflow.io/caseflow/internal/configs"
	"caseflow.io/caseflow/internal/constants"
	"caseflow.io/caseflow/internal/metrics"
	model "caseflow.io/caseflow/internal/models"
	repository "caseflow.io/caseflow/internal/repositories"
	"caseflow.io/caseflow/internal/workflow"
)

const (
	creatorID  = "partner-c"
	assigneeID = "associate-a"
	paralegal  = "paralegal-p"
	outsiderID = "outsider-o"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// recordingDispatcher collects notices instead of delivering them.
type recordingDispatcher struct {
	mu      sync.Mutex
	notices []workflow.Notice
	err     error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, n workflow.Notice) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	d.notices = append(d.notices, n)
	return nil
}

func (d *recordingDispatcher) kinds() []constants.NoticeKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]constants.NoticeKind, len(d.notices))
	for i, n := range d.notices {
		out[i] = n.Kind
	}
	return out
}

type fixture struct {
	svc        *TaskService
	repo       *repository.TaskRepository
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewTaskRepository(setupTestDB(t))
	d := &recordingDispatcher{}
	svc := NewTaskService(repo, workflow.NewEngine(workflow.Policy{}), d, discardLogger(), metrics.New(), 3)
	return &fixture{svc: svc, repo: repo, dispatcher: d}
}

func as(id string) workflow.Actor {
	return workflow.Actor{UserID: id}
}

func (f *fixture) createTask(t *testing.T) *model.Task {
	t.Helper()

	task, err := f.svc.CreateTask(context.Background(), as(creatorID), CreateTaskInput{
		Title:  "Draft motion to compel",
		CaseID: "case-2025-014",
		Assignees: []AssigneeInput{
			{UserID: assigneeID, Role: constants.RolePrimary},
			{UserID: paralegal, Role: constants.RoleCollaborator},
		},
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) startedTask(t *testing.T) *model.Task {
	t.Helper()

	task := f.createTask(t)
	started, err := f.svc.StartTask(context.Background(), as(assigneeID), task.ID)
	require.NoError(t, err)
	return started
}
