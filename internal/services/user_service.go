package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
)

// UserService is the user lifecycle manager: it owns every user write and
// emits the sync intents that keep task assignments consistent with each
// user's pending set.
type UserService struct {
	runner syncRunner
}

// NewUserService creates a new UserService over the given database handle.
func NewUserService(db *gorm.DB, strict bool, logger zerolog.Logger) *UserService {
	return &UserService{runner: newSyncRunner(db, strict, logger)}
}

// UserInput carries the caller-supplied user fields. PendingTaskIDs is the
// full desired set; updates reconcile against it, they do not merge.
type UserInput struct {
	Name           string
	Email          string
	PendingTaskIDs []string
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.runner.repos.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns the users matching a list query
func (s *UserService) ListUsers(ctx context.Context, q repository.ListQuery) ([]models.User, error) {
	return s.runner.repos.Users.List(ctx, q)
}

// CountUsers counts the users matching a where document
func (s *UserService) CountUsers(ctx context.Context, where map[string]any) (int64, error) {
	return s.runner.repos.Users.Count(ctx, where)
}

// CreateUser validates the input, persists the user with the pending ids
// that name existing incomplete tasks, then claims those tasks for the new
// user. Ids that fail the filter are silently dropped.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*models.User, error) {
	name, email, err := validateUserInput(input)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		if err := ensureEmailFree(ctx, repos, email, ""); err != nil {
			return err
		}

		pending, err := repos.Tasks.AssignableIDs(ctx, uniqueStrings(input.PendingTaskIDs))
		if err != nil {
			return fmt.Errorf("failed to filter pending tasks: %w", err)
		}

		user = &models.User{Name: name, Email: email, PendingTaskIDs: pending}
		if err := repos.Users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := repos.Users.ReplacePendingTasks(ctx, user.ID, pending); err != nil {
			return fmt.Errorf("failed to store pending set: %w", err)
		}

		return sync.Apply(ctx, assignIntents(pending, user)...)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUser replaces the user's fields and reconciles task assignments
// against the symmetric difference of the old and new pending sets.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserInput) (*models.User, error) {
	name, email, err := validateUserInput(input)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		var err error
		user, err = repos.Users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		if err := ensureEmailFree(ctx, repos, email, user.ID); err != nil {
			return err
		}

		newSet, err := repos.Tasks.AssignableIDs(ctx, uniqueStrings(input.PendingTaskIDs))
		if err != nil {
			return fmt.Errorf("failed to filter pending tasks: %w", err)
		}

		oldSet := user.PendingTaskIDs
		toAdd, toRemove := diffSets(oldSet, newSet)

		user.Name = name
		user.Email = email
		user.PendingTaskIDs = newSet

		if err := repos.Users.Save(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := repos.Users.ReplacePendingTasks(ctx, user.ID, newSet); err != nil {
			return fmt.Errorf("failed to store pending set: %w", err)
		}

		intents := assignIntents(toAdd, user)
		for _, taskID := range toRemove {
			intents = append(intents, Intent{Op: OpUnassign, TaskID: taskID, UserID: user.ID})
		}
		return sync.Apply(ctx, intents...)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser releases every task the user still owns, then removes the user
// record. Removal is authoritative even if the release fails; the dangling
// assignee references heal on the next write touching those tasks.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		user, err := repos.Users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		if len(user.PendingTaskIDs) > 0 {
			err = sync.Apply(ctx, Intent{Op: OpUnassignAll, UserID: user.ID, TaskIDs: user.PendingTaskIDs})
			if err != nil {
				return err
			}
		}

		if err := repos.Users.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

func validateUserInput(input UserInput) (name, email string, err error) {
	name = strings.TrimSpace(input.Name)
	email = strings.ToLower(strings.TrimSpace(input.Email))

	if name == "" {
		return "", "", ErrUserNameRequired
	}
	if email == "" {
		return "", "", ErrEmailRequired
	}
	return name, email, nil
}

// ensureEmailFree rejects an email already registered to another user.
func ensureEmailFree(ctx context.Context, repos repository.Repositories, email, selfID string) error {
	existing, err := repos.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing.ID != selfID {
		return ErrEmailTaken
	}
	return nil
}

func assignIntents(taskIDs []string, user *models.User) []Intent {
	intents := make([]Intent, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		intents = append(intents, Intent{
			Op:       OpAssign,
			TaskID:   taskID,
			UserID:   user.ID,
			UserName: user.Name,
		})
	}
	return intents
}

// diffSets returns the ids only in next (toAdd) and only in prev (toRemove).
func diffSets(prev, next []string) (toAdd, toRemove []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		prevSet[id] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, id := range next {
		nextSet[id] = struct{}{}
	}

	for _, id := range next {
		if _, ok := prevSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range prev {
		if _, ok := nextSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

// uniqueStrings removes duplicate values, preserving first occurrence order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
