package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID   string `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	// Email is stored lowercased so the unique index is case-insensitive.
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`

	// PendingTaskIDs is the user's derived set of incomplete assigned tasks,
	// loaded from user_pending_tasks by the repository.
	PendingTaskIDs []string `gorm:"-" json:"pendingTaskIds"`

	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
