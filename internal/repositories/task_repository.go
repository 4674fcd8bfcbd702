package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	model "caseflow.io/caseflow/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type TaskRepository struct {
	db *gorm.DB
}

// ErrOptimisticLock is returned by Save and Delete when the stored version no
// longer matches the one the caller loaded.
var ErrOptimisticLock = apperrors.ErrOptimisticLock

type ListFilter struct {
	Status     constants.TaskStatus
	AssigneeID string
	CreatedBy  string
	CaseID     string
	Limit      int
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task, audit *model.TaskAudit) error {
	if task.Version == 0 {
		task.Version = 1
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		if err := writeAssignees(tx, task); err != nil {
			return err
		}
		return writeAudit(tx, task.ID, audit)
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := withChildren(r.db.WithContext(ctx)).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter ListFilter) ([]model.Task, error) {
	limit := filter.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, apperrors.ErrInvalidLimit
	}

	db := r.db.WithContext(ctx)
	query := withChildren(db).Order("created_at desc").Limit(limit)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.CaseID != "" {
		query = query.Where("case_id = ?", filter.CaseID)
	}
	if filter.AssigneeID != "" {
		sub := db.Model(&model.TaskAssignee{}).Select("task_id").Where("user_id = ?", filter.AssigneeID)
		query = query.Where("id IN (?)", sub)
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save writes task and its children in one transaction, guarded by the
// version the task was loaded with. On success task.Version is advanced.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task, audit *model.TaskAudit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND version = ?", task.ID, task.Version).
			Updates(map[string]interface{}{
				"title":                  task.Title,
				"description":            task.Description,
				"case_id":                task.CaseID,
				"status":                 task.Status,
				"due_date":               task.DueDate,
				"start_date":             task.StartDate,
				"actual_completion_date": task.ActualCompletionDate,
				"updated_at":             task.UpdatedAt,
				"version":                gorm.Expr("version + 1"),
			})

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		if err := writeAssignees(tx, task); err != nil {
			return err
		}
		if err := syncResponses(tx, task); err != nil {
			return err
		}
		if err := syncReview(tx, task); err != nil {
			return err
		}
		return writeAudit(tx, task.ID, audit)
	})
	if err != nil {
		return err
	}

	task.Version++
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task, audit *model.TaskAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND version = ?", task.ID, task.Version).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		for _, child := range []interface{}{&model.TaskAssignee{}, &model.TaskResponse{}, &model.ReviewOutcome{}} {
			if err := tx.Where("task_id = ?", task.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return writeAudit(tx, task.ID, audit)
	})
}

func (r *TaskRepository) Events(ctx context.Context, taskID string) ([]model.TaskAudit, error) {
	var events []model.TaskAudit
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id asc").
		Find(&events).Error
	return events, err
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assignees", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
		Preload("Review")
}

func writeAssignees(tx *gorm.DB, task *model.Task) error {
	if len(task.Assignees) == 0 {
		return nil
	}
	for i := range task.Assignees {
		task.Assignees[i].ID = 0
		task.Assignees[i].TaskID = task.ID
		task.Assignees[i].Position = i
	}
	return tx.Create(&task.Assignees).Error
}

// syncResponses drops ledger rows no longer present on task and inserts new
// ones. Existing rows are immutable and left alone.
func syncResponses(tx *gorm.DB, task *model.Task) error {
	ids := make([]string, 0, len(task.Responses))
	for i := range task.Responses {
		task.Responses[i].TaskID = task.ID
		ids = append(ids, task.Responses[i].ID)
	}

	stale := tx.Where("task_id = ?", task.ID)
	if len(ids) > 0 {
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&model.TaskResponse{}).Error; err != nil {
		return err
	}

	if len(task.Responses) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&task.Responses).Error
}

func syncReview(tx *gorm.DB, task *model.Task) error {
	if task.Review == nil {
		return tx.Where("task_id = ?", task.ID).Delete(&model.ReviewOutcome{}).Error
	}
	task.Review.TaskID = task.ID
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(task.Review).Error
}

func writeAudit(tx *gorm.DB, taskID string, audit *model.TaskAudit) error {
	if audit == nil {
		return nil
	}
	audit.TaskID = taskID
	return tx.Create(audit).Error
}
