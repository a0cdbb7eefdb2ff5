package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel values for a task without an assignee.
const (
	UnassignedUserID   = ""
	UnassignedUserName = "unassigned"
)

type Task struct {
	ID          string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`

	// AssignedUserID and AssignedUserName are kept in step with the user's
	// pending set by the sync engine; callers never set the name directly.
	AssignedUserID   string `gorm:"type:varchar(36);not null;default:'';index" json:"assignedUserId"`
	AssignedUserName string `gorm:"type:varchar(255);not null;default:'unassigned'" json:"assignedUserName"`

	CreatedAt time.Time `json:"createdAt"`
}

// Assigned reports whether the task currently has an assignee.
func (t *Task) Assigned() bool {
	return t.AssignedUserID != UnassignedUserID
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
