package models

// PendingTask is one entry in a user's pending set. Neither column carries a
// foreign key: tasks and users are stored independently and the sync engine
// is the only thing keeping the two collections consistent.
type PendingTask struct {
	UserID string `gorm:"primarykey;type:varchar(36)"`
	TaskID string `gorm:"primarykey;type:varchar(36)"`
}

func (PendingTask) TableName() string {
	return "user_pending_tasks"
}
