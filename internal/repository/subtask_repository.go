package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"planner/internal/model"
)

// SubtaskRepository manages checklist items.
type SubtaskRepository struct {
	db *gorm.DB
}

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID string) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("position ASC").Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

func (r *SubtaskRepository) Get(ctx context.Context, id string) (*model.Subtask, error) {
	var subtask model.Subtask
	if err := r.db.WithContext(ctx).First(&subtask, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return &subtask, nil
}

// NextPosition returns one past the highest position used by taskID, or 0
// for an empty checklist.
func (r *SubtaskRepository) NextPosition(ctx context.Context, taskID string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("task_id = ?", taskID).
		Select("COALESCE(MAX(position) + 1, 0)").
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("next subtask position: %w", err)
	}
	return next, nil
}

// PositionTaken reports whether another subtask of taskID sits at position.
// exceptID is ignored so an item can keep its own slot.
func (r *SubtaskRepository) PositionTaken(ctx context.Context, taskID string, position int, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("task_id = ? AND position = ? AND id <> ?", taskID, position, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check subtask position: %w", err)
	}
	return count > 0, nil
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) Update(ctx context.Context, subtask *model.Subtask) error {
	result := r.db.WithContext(ctx).Model(subtask).
		Select("title", "is_completed", "position").
		Updates(subtask)
	if result.Error != nil {
		return fmt.Errorf("update subtask: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Subtask{})
	if result.Error != nil {
		return fmt.Errorf("delete subtask: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}
