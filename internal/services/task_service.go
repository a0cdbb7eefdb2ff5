package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
)

// TaskService is the task lifecycle manager: it owns every task write and
// emits the sync intents that keep the user collection consistent.
type TaskService struct {
	runner syncRunner
}

// NewTaskService creates a new TaskService over the given database handle.
func NewTaskService(db *gorm.DB, strict bool, logger zerolog.Logger) *TaskService {
	return &TaskService{runner: newSyncRunner(db, strict, logger)}
}

// TaskInput carries the caller-supplied task fields. Create and update share
// it: updates are full replacements, matching the PUT contract.
type TaskInput struct {
	Name           string
	Description    string
	Deadline       *time.Time
	Completed      bool
	AssignedUserID string
}

// taskSyncState is the slice of task state the sync engine cares about.
type taskSyncState struct {
	completed      bool
	assignedUserID string
}

// taskSyncIntents computes the intents restoring the pending-set invariants
// after a task transitions from prev to next.
func taskSyncIntents(taskID string, prev, next taskSyncState) []Intent {
	reassigned := prev.assignedUserID != next.assignedUserID

	if next.completed {
		// A completed task belongs in no pending set. Clearing across all
		// users also sweeps out stale entries left behind by earlier failed
		// or refused reconciliations.
		if !prev.completed || reassigned {
			return []Intent{{Op: OpClear, TaskID: taskID}}
		}
		return nil
	}

	var intents []Intent

	if reassigned {
		if prev.assignedUserID != models.UnassignedUserID {
			intents = append(intents, Intent{Op: OpRemove, UserID: prev.assignedUserID, TaskID: taskID})
		}
		if next.assignedUserID != models.UnassignedUserID {
			intents = append(intents, Intent{Op: OpAdd, UserID: next.assignedUserID, TaskID: taskID})
		}
		return intents
	}

	if next.assignedUserID != models.UnassignedUserID && prev.completed {
		intents = append(intents, Intent{Op: OpAdd, UserID: next.assignedUserID, TaskID: taskID})
	}
	return intents
}

// GetTask returns a task by id
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.runner.repos.Tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasks returns the tasks matching a list query
func (s *TaskService) ListTasks(ctx context.Context, q repository.ListQuery) ([]models.Task, error) {
	return s.runner.repos.Tasks.List(ctx, q)
}

// CountTasks counts the tasks matching a where document
func (s *TaskService) CountTasks(ctx context.Context, where map[string]any) (int64, error) {
	return s.runner.repos.Tasks.Count(ctx, where)
}

// CreateTask validates the input, persists the task and, when the new task
// is incomplete and assigned, adds it to the assignee's pending set.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		assigneeName, err := resolveAssignee(ctx, repos, input.AssignedUserID)
		if err != nil {
			return err
		}

		task = &models.Task{
			Name:             input.Name,
			Description:      input.Description,
			Deadline:         *input.Deadline,
			Completed:        input.Completed,
			AssignedUserID:   models.UnassignedUserID,
			AssignedUserName: models.UnassignedUserName,
		}
		if input.AssignedUserID != "" {
			task.AssignedUserID = input.AssignedUserID
			task.AssignedUserName = assigneeName
		}

		if err := repos.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if task.Assigned() && !task.Completed {
			return sync.Apply(ctx, Intent{Op: OpAdd, UserID: task.AssignedUserID, TaskID: task.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTask replaces a task's fields and reconciles both assignees'
// pending sets against the prior state.
func (s *TaskService) UpdateTask(ctx context.Context, id string, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		var err error
		task, err = repos.Tasks.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		assigneeName, err := resolveAssignee(ctx, repos, input.AssignedUserID)
		if err != nil {
			return err
		}

		prev := taskSyncState{completed: task.Completed, assignedUserID: task.AssignedUserID}

		task.Name = input.Name
		task.Description = input.Description
		task.Deadline = *input.Deadline
		task.Completed = input.Completed
		if input.AssignedUserID != "" {
			task.AssignedUserID = input.AssignedUserID
			task.AssignedUserName = assigneeName
		} else {
			task.AssignedUserID = models.UnassignedUserID
			task.AssignedUserName = models.UnassignedUserName
		}

		if err := repos.Tasks.Save(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		next := taskSyncState{completed: task.Completed, assignedUserID: task.AssignedUserID}
		return sync.Apply(ctx, taskSyncIntents(task.ID, prev, next)...)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask removes a task and clears its id from every pending set, the
// assignee's entry and any stale ones alike. The task record is gone even if
// the pending-set write fails; the stale entry heals on the next write
// touching it.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return s.runner.run(ctx, func(repos repository.Repositories, sync *SyncEngine) error {
		if _, err := repos.Tasks.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		if err := repos.Tasks.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		return sync.Apply(ctx, Intent{Op: OpClear, TaskID: id})
	})
}

func validateTaskInput(input TaskInput) error {
	if input.Name == "" {
		return ErrTaskNameRequired
	}
	if input.Deadline == nil {
		return ErrDeadlineRequired
	}
	return nil
}

// resolveAssignee returns the current name of the referenced user, or the
// empty string when no assignee is requested.
func resolveAssignee(ctx context.Context, repos repository.Repositories, assignedUserID string) (string, error) {
	if assignedUserID == "" {
		return "", nil
	}

	user, err := repos.Users.FindByID(ctx, assignedUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAssigneeNotFound
		}
		return "", fmt.Errorf("failed to resolve assignee: %w", err)
	}
	return user.Name, nil
}
