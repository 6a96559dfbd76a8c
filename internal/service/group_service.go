package service

import (
	"context"
	"regexp"
	"strings"

	"planner/internal/model"
	"planner/internal/repository"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// GroupService provides helpers around groups.
type GroupService struct {
	repo *repository.GroupRepository
}

func NewGroupService(repo *repository.GroupRepository) *GroupService {
	return &GroupService{repo: repo}
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.repo.List(ctx)
}

func (s *GroupService) Get(ctx context.Context, id string) (*model.Group, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a group. An empty color falls back to model.DefaultColor.
func (s *GroupService) Create(ctx context.Context, name, color string) (*model.Group, error) {
	group := model.Group{Name: name, Color: color}
	if err := validateGroup(&group); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) Update(ctx context.Context, id string, patch model.GroupPatch) (*model.Group, error) {
	group, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(group)
	if err := validateGroup(group); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group and leaves its tasks ungrouped. The seeded groups
// are refused with repository.ErrProtectedGroup.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateGroup(g *model.Group) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return validationf("group name is required")
	}
	g.Color = strings.TrimSpace(g.Color)
	if g.Color == "" {
		g.Color = model.DefaultColor
	}
	if !colorPattern.MatchString(g.Color) {
		return validationf("color %q is not a #rrggbb value", g.Color)
	}
	return nil
}
