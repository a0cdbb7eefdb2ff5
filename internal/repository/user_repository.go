package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/task-tracker/internal/database"
	"github.com/yukikurage/task-tracker/internal/models"
)

// userColumns maps the externally visible user field names to columns
// allowed in where/sort documents.
var userColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
}

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID and loads its pending set
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	pending, err := r.PendingTaskIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.PendingTaskIDs = pending

	return &user, nil
}

// FindByEmail finds a user by email. Emails are stored lowercased.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users with filtering, sorting and windowing, and loads the
// pending sets in one extra query.
func (r *GormUserRepository) List(ctx context.Context, q ListQuery) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	query, err := applyWhere(query, q.Where, userColumns)
	if err != nil {
		return nil, err
	}
	query, err = applySort(query, q.Sort, userColumns)
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := query.Scopes(database.Window(q.Skip, q.Limit)).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return users, nil
	}

	userIDs := make([]string, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}

	var rows []models.PendingTask
	err = r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("task_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]string, len(users))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.TaskID)
	}
	for i := range users {
		users[i].PendingTaskIDs = byUser[users[i].ID]
		if users[i].PendingTaskIDs == nil {
			users[i].PendingTaskIDs = []string{}
		}
	}

	return users, nil
}

// Count counts the users matching a where document
func (r *GormUserRepository) Count(ctx context.Context, where map[string]any) (int64, error) {
	query, err := applyWhere(r.db.WithContext(ctx).Model(&models.User{}), where, userColumns)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the scalar fields of an existing user
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete removes a user record and its pending set rows
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.PendingTask{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
}

// AddPendingTask inserts taskID into the user's pending set if absent. The
// user-existence predicate and the insert travel in one statement so a
// concurrent user delete cannot slip between them; a missing user or an
// existing entry inserts zero rows, which is the expected no-op.
func (r *GormUserRepository) AddPendingTask(ctx context.Context, userID, taskID string) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO user_pending_tasks (user_id, task_id)
		 SELECT u.id, ? FROM users u WHERE u.id = ?
		 AND NOT EXISTS (
			SELECT 1 FROM user_pending_tasks p WHERE p.user_id = u.id AND p.task_id = ?
		 )`,
		taskID, userID, taskID).Error
}

// ClearPendingTask removes taskID from every user's pending set, including
// stale entries that never belonged to the current assignee.
func (r *GormUserRepository) ClearPendingTask(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&models.PendingTask{}).Error
}

// RemovePendingTask removes taskID from the user's pending set if present
func (r *GormUserRepository) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Delete(&models.PendingTask{}).Error
}

// ReplacePendingTasks overwrites the user's pending set with taskIDs
func (r *GormUserRepository) ReplacePendingTasks(ctx context.Context, userID string, taskIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.PendingTask{}).Error; err != nil {
			return err
		}
		if len(taskIDs) == 0 {
			return nil
		}

		rows := make([]models.PendingTask, len(taskIDs))
		for i, taskID := range taskIDs {
			rows[i] = models.PendingTask{UserID: userID, TaskID: taskID}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// PendingTaskIDs returns the user's pending set, ordered for stable output
func (r *GormUserRepository) PendingTaskIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.PendingTask{}).
		Where("user_id = ?", userID).
		Order("task_id").
		Pluck("task_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
