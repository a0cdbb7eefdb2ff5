package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
)

// newTestDB opens an in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.PendingTask{})
	require.NoError(t, err)

	return db
}

func closeTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.Close()
}

func testDeadline() *time.Time {
	deadline := time.Date(2030, time.March, 1, 12, 0, 0, 0, time.UTC)
	return &deadline
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: email}
	require.NoError(t, db.Create(user).Error)
	user.PendingTaskIDs = []string{}
	return user
}

func createTestTask(t *testing.T, db *gorm.DB, name string, completed bool, assignee *models.User) *models.Task {
	t.Helper()

	task := &models.Task{
		Name:             name,
		Deadline:         *testDeadline(),
		Completed:        completed,
		AssignedUserID:   models.UnassignedUserID,
		AssignedUserName: models.UnassignedUserName,
	}
	if assignee != nil {
		task.AssignedUserID = assignee.ID
		task.AssignedUserName = assignee.Name
	}
	require.NoError(t, db.Create(task).Error)

	if assignee != nil && !completed {
		require.NoError(t, db.Create(&models.PendingTask{UserID: assignee.ID, TaskID: task.ID}).Error)
	}
	return task
}

func pendingIDs(t *testing.T, db *gorm.DB, userID string) []string {
	t.Helper()

	ids, err := repository.NewUserRepository(db).PendingTaskIDs(context.Background(), userID)
	require.NoError(t, err)
	return ids
}

func reloadTask(t *testing.T, db *gorm.DB, id string) *models.Task {
	t.Helper()

	var task models.Task
	require.NoError(t, db.First(&task, "id = ?", id).Error)
	return &task
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
