package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/models"
)

// ErrUnknownField is returned when a list query references a field that is
// not exposed for filtering or sorting.
var ErrUnknownField = errors.New("unknown query field")

// ListQuery holds the storage-level options of a list request. Where values
// are matched by equality, or by membership when the value is an array.
type ListQuery struct {
	Where map[string]any
	Sort  map[string]int
	Skip  int
	Limit int
}

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error

	FindByID(ctx context.Context, id string) (*models.Task, error)

	List(ctx context.Context, q ListQuery) ([]models.Task, error)

	Count(ctx context.Context, where map[string]any) (int64, error)

	// Save persists all fields of an existing task.
	Save(ctx context.Context, task *models.Task) error

	Delete(ctx context.Context, id string) error

	// AssignableIDs returns the subset of ids naming tasks that exist and are
	// not completed.
	AssignableIDs(ctx context.Context, ids []string) ([]string, error)

	// AssignUser is a guarded write: it sets the assignee fields only if the
	// task exists, is not completed, and is unassigned or already assigned to
	// userID. It reports whether the write applied.
	AssignUser(ctx context.Context, taskID, userID, userName string) (bool, error)

	// UnassignUser is a guarded write: it resets the assignee fields to their
	// sentinels only if the task is currently assigned to userID and not
	// completed. It reports whether the write applied.
	UnassignUser(ctx context.Context, taskID, userID string) (bool, error)

	// UnassignUserAll resets the assignee fields on every task in taskIDs that
	// is currently assigned to userID and not completed, in one write.
	UnassignUserAll(ctx context.Context, userID string, taskIDs []string) (int64, error)
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error

	FindByID(ctx context.Context, id string) (*models.User, error)

	FindByEmail(ctx context.Context, email string) (*models.User, error)

	List(ctx context.Context, q ListQuery) ([]models.User, error)

	Count(ctx context.Context, where map[string]any) (int64, error)

	Save(ctx context.Context, user *models.User) error

	// Delete removes the user record together with its pending set rows.
	Delete(ctx context.Context, id string) error

	// AddPendingTask inserts taskID into the user's pending set if absent.
	// A missing user is a no-op, not an error.
	AddPendingTask(ctx context.Context, userID, taskID string) error

	// RemovePendingTask removes taskID from the user's pending set if present.
	RemovePendingTask(ctx context.Context, userID, taskID string) error

	// ClearPendingTask removes taskID from every user's pending set.
	ClearPendingTask(ctx context.Context, taskID string) error

	// ReplacePendingTasks overwrites the user's pending set with taskIDs.
	ReplacePendingTasks(ctx context.Context, userID string, taskIDs []string) error

	PendingTaskIDs(ctx context.Context, userID string) ([]string, error)
}

// Repositories bundles the per-entity repositories over one database handle,
// so a transaction-scoped set can be derived from a *gorm.DB transaction.
type Repositories struct {
	Tasks TaskRepository
	Users UserRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Tasks: NewTaskRepository(db),
		Users: NewUserRepository(db),
	}
}

// applyWhere translates a where document into equality/membership conditions
// over the allowed columns.
func applyWhere(db *gorm.DB, where map[string]any, columns map[string]string) (*gorm.DB, error) {
	for field, value := range where {
		column, ok := columns[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}

		if values, ok := value.([]any); ok {
			db = db.Where(column+" IN ?", values)
		} else {
			db = db.Where(column+" = ?", value)
		}
	}
	return db, nil
}

// applySort translates a sort document ({"field": 1|-1}) into ORDER BY
// clauses. Fields are applied in lexical order since JSON object order is
// not preserved.
func applySort(db *gorm.DB, sortDoc map[string]int, columns map[string]string) (*gorm.DB, error) {
	fields := make([]string, 0, len(sortDoc))
	for field := range sortDoc {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		column, ok := columns[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}

		direction := " ASC"
		if sortDoc[field] < 0 {
			direction = " DESC"
		}
		db = db.Order(column + direction)
	}
	return db, nil
}
