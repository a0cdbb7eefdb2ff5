package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/database"
	"github.com/yukikurage/task-tracker/internal/models"
)

// taskColumns maps the externally visible task field names to columns
// allowed in where/sort documents.
var taskColumns = map[string]string{
	"id":               "id",
	"name":             "name",
	"description":      "description",
	"deadline":         "deadline",
	"completed":        "completed",
	"assignedUserId":   "assigned_user_id",
	"assignedUserName": "assigned_user_name",
	"createdAt":        "created_at",
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering, sorting and windowing
func (r *GormTaskRepository) List(ctx context.Context, q ListQuery) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	query, err := applyWhere(query, q.Where, taskColumns)
	if err != nil {
		return nil, err
	}
	query, err = applySort(query, q.Sort, taskColumns)
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := query.Scopes(database.Window(q.Skip, q.Limit)).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Count counts the tasks matching a where document
func (r *GormTaskRepository) Count(ctx context.Context, where map[string]any) (int64, error) {
	query, err := applyWhere(r.db.WithContext(ctx).Model(&models.Task{}), where, taskColumns)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists all fields of an existing task
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes a task record. Pending set cleanup is the sync engine's
// responsibility.
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error
}

// AssignableIDs returns the subset of ids naming existing, incomplete tasks
func (r *GormTaskRepository) AssignableIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	found := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ? AND completed = ?", ids, false).
		Order("id").
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// AssignUser conditionally claims a task for a user in a single write
func (r *GormTaskRepository) AssignUser(ctx context.Context, taskID, userID, userName string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND completed = ? AND (assigned_user_id = ? OR assigned_user_id = ?)",
			taskID, false, models.UnassignedUserID, userID).
		Updates(map[string]interface{}{
			"assigned_user_id":   userID,
			"assigned_user_name": userName,
		})
	return res.RowsAffected > 0, res.Error
}

// UnassignUser conditionally resets a task's assignee in a single write
func (r *GormTaskRepository) UnassignUser(ctx context.Context, taskID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND assigned_user_id = ? AND completed = ?", taskID, userID, false).
		Updates(map[string]interface{}{
			"assigned_user_id":   models.UnassignedUserID,
			"assigned_user_name": models.UnassignedUserName,
		})
	return res.RowsAffected > 0, res.Error
}

// UnassignUserAll resets every listed task still owned by the user
func (r *GormTaskRepository) UnassignUserAll(ctx context.Context, userID string, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ? AND assigned_user_id = ? AND completed = ?", taskIDs, userID, false).
		Updates(map[string]interface{}{
			"assigned_user_id":   models.UnassignedUserID,
			"assigned_user_name": models.UnassignedUserName,
		})
	return res.RowsAffected, res.Error
}
