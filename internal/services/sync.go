package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/repository"
)

// IntentOp names a synchronization primitive.
type IntentOp string

const (
	// OpAdd appends a task id to a user's pending set if absent.
	OpAdd IntentOp = "add"
	// OpRemove removes a task id from a user's pending set if present.
	OpRemove IntentOp = "remove"
	// OpClear removes a task id from every user's pending set, stale
	// entries included.
	OpClear IntentOp = "clear"
	// OpAssign claims a task for a user unless another user already owns it.
	OpAssign IntentOp = "assign"
	// OpUnassign resets a task's assignee if the given user still owns it.
	OpUnassign IntentOp = "unassign"
	// OpUnassignAll resets every listed task still owned by the given user.
	OpUnassignAll IntentOp = "unassign_all"
)

// Intent is one synchronization instruction produced by a lifecycle
// operation and applied by the SyncEngine against the counterpart entity.
type Intent struct {
	Op       IntentOp
	TaskID   string
	UserID   string
	UserName string

	// TaskIDs is only set for OpUnassignAll.
	TaskIDs []string
}

// SyncEngine applies intents as idempotent conditional writes. In
// best-effort mode a failed write is logged and skipped so the caller's own
// entity write is never rolled back; in strict mode the first failure is
// returned so the enclosing transaction aborts.
type SyncEngine struct {
	repos  repository.Repositories
	logger zerolog.Logger
	strict bool
}

func NewSyncEngine(repos repository.Repositories, logger zerolog.Logger) *SyncEngine {
	return &SyncEngine{repos: repos, logger: logger}
}

// Strict returns a copy of the engine that propagates apply errors.
func (e *SyncEngine) Strict() *SyncEngine {
	strict := *e
	strict.strict = true
	return &strict
}

// Apply applies the intents in order.
func (e *SyncEngine) Apply(ctx context.Context, intents ...Intent) error {
	for _, intent := range intents {
		err := e.applyOne(ctx, intent)
		if err == nil {
			continue
		}
		if e.strict {
			return fmt.Errorf("failed to apply %s intent: %w", intent.Op, err)
		}

		e.logger.Error().
			Err(err).
			Str("op", string(intent.Op)).
			Str("taskId", intent.TaskID).
			Str("userId", intent.UserID).
			Msg("reconciliation failed, counterpart entity left stale")
	}
	return nil
}

func (e *SyncEngine) applyOne(ctx context.Context, intent Intent) error {
	switch intent.Op {
	case OpAdd:
		if intent.UserID == "" {
			return nil
		}
		return e.repos.Users.AddPendingTask(ctx, intent.UserID, intent.TaskID)

	case OpRemove:
		if intent.UserID == "" {
			return nil
		}
		return e.repos.Users.RemovePendingTask(ctx, intent.UserID, intent.TaskID)

	case OpClear:
		return e.repos.Users.ClearPendingTask(ctx, intent.TaskID)

	case OpAssign:
		applied, err := e.repos.Tasks.AssignUser(ctx, intent.TaskID, intent.UserID, intent.UserName)
		if err == nil && !applied {
			e.logger.Debug().
				Str("taskId", intent.TaskID).
				Str("userId", intent.UserID).
				Msg("assign intent skipped, task gone, completed or owned by another user")
		}
		return err

	case OpUnassign:
		_, err := e.repos.Tasks.UnassignUser(ctx, intent.TaskID, intent.UserID)
		return err

	case OpUnassignAll:
		_, err := e.repos.Tasks.UnassignUserAll(ctx, intent.UserID, intent.TaskIDs)
		return err

	default:
		return fmt.Errorf("unknown intent op %q", intent.Op)
	}
}

// syncRunner gives lifecycle services one code path for both consistency
// modes: best-effort runs against the base handle, strict wraps the entity
// write and the reconciliation in a single transaction.
type syncRunner struct {
	db     *gorm.DB
	repos  repository.Repositories
	logger zerolog.Logger
	strict bool
}

func newSyncRunner(db *gorm.DB, strict bool, logger zerolog.Logger) syncRunner {
	return syncRunner{
		db:     db,
		repos:  repository.NewRepositories(db),
		logger: logger,
		strict: strict,
	}
}

func (r syncRunner) run(ctx context.Context, fn func(repos repository.Repositories, sync *SyncEngine) error) error {
	if !r.strict {
		return fn(r.repos, NewSyncEngine(r.repos, r.logger))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		return fn(repos, NewSyncEngine(repos, r.logger).Strict())
	})
}
