package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"planner/internal/model"
)

// TaskFilter narrows List. Zero fields do not filter.
type TaskFilter struct {
	GroupID     *string
	IsCompleted *bool
	IsRecurring *bool
	// DueFrom and DueTo bound the due date, inclusive, as YYYY-MM-DD.
	DueFrom string
	DueTo   string
}

// TaskRepository handles CRUD for tasks and keeps their subtasks in step.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Transaction runs fn with a repository bound to a single transaction.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(tx *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

func orderedSubtasks(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Preload("Subtasks", orderedSubtasks)
	if filter.GroupID != nil {
		q = q.Where("group_id = ?", *filter.GroupID)
	}
	if filter.IsCompleted != nil {
		q = q.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *filter.IsRecurring)
	}
	if filter.DueFrom != "" {
		q = q.Where("due_date >= ?", filter.DueFrom)
	}
	if filter.DueTo != "" {
		q = q.Where("due_date <= ?", filter.DueTo)
	}

	var tasks []model.Task
	if err := q.Order("created_at ASC").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Preload("Subtasks", orderedSubtasks).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// Create inserts task together with its subtasks.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if model.IsVirtualID(task.ID) {
		return ErrVirtualTask
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes every column of task. Subtasks are left alone; see
// ReplaceSubtasks.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if model.IsVirtualID(task.ID) {
		return ErrVirtualTask
	}
	result := r.db.WithContext(ctx).Model(task).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ReplaceSubtasks drops the subtasks of taskID and inserts subtasks in their
// place.
func (r *TaskRepository) ReplaceSubtasks(ctx context.Context, taskID string, subtasks []model.Subtask) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Subtask{}).Error; err != nil {
			return fmt.Errorf("delete subtasks: %w", err)
		}
		if len(subtasks) == 0 {
			return nil
		}
		for i := range subtasks {
			subtasks[i].ID = ""
			subtasks[i].TaskID = taskID
		}
		if err := tx.Create(&subtasks).Error; err != nil {
			return fmt.Errorf("create subtasks: %w", err)
		}
		return nil
	})
}

// Delete removes a task and its subtasks.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Subtask{}).Error; err != nil {
			return fmt.Errorf("delete subtasks: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&model.Task{})
		if result.Error != nil {
			return fmt.Errorf("delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}
