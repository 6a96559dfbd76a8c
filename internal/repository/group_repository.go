package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"planner/internal/model"
)

// GroupRepository manages task groups.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Update(ctx context.Context, group *model.Group) error {
	result := r.db.WithContext(ctx).Model(group).Select("name", "color").Updates(group)
	if result.Error != nil {
		return fmt.Errorf("update group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// Delete removes a group. Its tasks stay, with no group.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	if model.IsProtectedGroup(id) {
		return ErrProtectedGroup
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return fmt.Errorf("ungroup tasks: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&model.Group{})
		if result.Error != nil {
			return fmt.Errorf("delete group: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}
		return nil
	})
}
