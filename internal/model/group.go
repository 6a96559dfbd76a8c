package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Well-known groups seeded on first start. Neither can be deleted.
const (
	DefaultGroupID   = "default"
	CompletedGroupID = "completed"
	DefaultColor     = "#6366f1"
)

// Group clusters tasks by area (work, health, study, etc.). Tasks reference
// groups weakly: deleting a group leaves its tasks ungrouped.
type Group struct {
	ID    string `gorm:"primaryKey;size:36" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Color string `gorm:"size:16" json:"color"`
}

func (g *Group) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Color == "" {
		g.Color = DefaultColor
	}
	return nil
}

func IsProtectedGroup(id string) bool {
	return id == DefaultGroupID || id == CompletedGroupID
}

// SeedGroups are created when the store is empty.
func SeedGroups() []Group {
	return []Group{
		{ID: DefaultGroupID, Name: "Geral", Color: DefaultColor},
		{ID: CompletedGroupID, Name: "Concluídas", Color: "#10b981"},
	}
}
