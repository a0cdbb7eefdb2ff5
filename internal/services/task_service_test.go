package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/models"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context
}

func (suite *TaskServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewTaskService(suite.db, false, nopLogger())
	suite.ctx = context.Background()
}

func (suite *TaskServiceTestSuite) TearDownTest() {
	closeTestDB(suite.T(), suite.db)
}

func (suite *TaskServiceTestSuite) TestCreateRequiresNameAndDeadline() {
	_, err := suite.service.CreateTask(suite.ctx, TaskInput{Deadline: testDeadline()})
	suite.ErrorIs(err, ErrTaskNameRequired)

	_, err = suite.service.CreateTask(suite.ctx, TaskInput{Name: "No deadline"})
	suite.ErrorIs(err, ErrDeadlineRequired)
}

func (suite *TaskServiceTestSuite) TestCreateRejectsUnknownAssignee() {
	_, err := suite.service.CreateTask(suite.ctx, TaskInput{
		Name:           "Ghost",
		Deadline:       testDeadline(),
		AssignedUserID: uuid.NewString(),
	})
	suite.ErrorIs(err, ErrAssigneeNotFound)
}

func (suite *TaskServiceTestSuite) TestCreateUnassignedUsesSentinels() {
	task, err := suite.service.CreateTask(suite.ctx, TaskInput{
		Name:     "Solo",
		Deadline: testDeadline(),
	})
	suite.Require().NoError(err)

	suite.Equal(models.UnassignedUserID, task.AssignedUserID)
	suite.Equal(models.UnassignedUserName, task.AssignedUserName)
}

func (suite *TaskServiceTestSuite) TestCreateAssignedAddsToPendingSet() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")

	task, err := suite.service.CreateTask(suite.ctx, TaskInput{
		Name:           "Write spec",
		Deadline:       testDeadline(),
		AssignedUserID: user.ID,
	})
	suite.Require().NoError(err)

	suite.Equal("Amy", task.AssignedUserName)
	suite.Equal([]string{task.ID}, pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestCreateCompletedAssignedSkipsPendingSet() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")

	task, err := suite.service.CreateTask(suite.ctx, TaskInput{
		Name:           "Already done",
		Deadline:       testDeadline(),
		Completed:      true,
		AssignedUserID: user.ID,
	})
	suite.Require().NoError(err)

	suite.Equal(user.ID, task.AssignedUserID)
	suite.Empty(pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateNotFound() {
	_, err := suite.service.UpdateTask(suite.ctx, uuid.NewString(), TaskInput{
		Name:     "Missing",
		Deadline: testDeadline(),
	})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdateCompleteClearsPendingSet() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, user)

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, TaskInput{
		Name:           task.Name,
		Deadline:       testDeadline(),
		Completed:      true,
		AssignedUserID: user.ID,
	})
	suite.Require().NoError(err)

	suite.Empty(pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateReopenRestoresPendingSet() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", true, user)

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, TaskInput{
		Name:           task.Name,
		Deadline:       testDeadline(),
		Completed:      false,
		AssignedUserID: user.ID,
	})
	suite.Require().NoError(err)

	suite.Equal([]string{task.ID}, pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateReassignMovesPendingEntry() {
	amy := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	bo := createTestUser(suite.T(), suite.db, "Bo", "b@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, amy)

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, TaskInput{
		Name:           task.Name,
		Deadline:       testDeadline(),
		AssignedUserID: bo.ID,
	})
	suite.Require().NoError(err)

	suite.Equal("Bo", updated.AssignedUserName)
	suite.Empty(pendingIDs(suite.T(), suite.db, amy.ID))
	suite.Equal([]string{task.ID}, pendingIDs(suite.T(), suite.db, bo.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateUnassignClearsPendingEntry() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, user)

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, TaskInput{
		Name:     task.Name,
		Deadline: testDeadline(),
	})
	suite.Require().NoError(err)

	suite.Equal(models.UnassignedUserID, updated.AssignedUserID)
	suite.Equal(models.UnassignedUserName, updated.AssignedUserName)
	suite.Empty(pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestDeleteNotFound() {
	err := suite.service.DeleteTask(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestDeleteClearsPendingEntry() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, user)

	suite.Require().NoError(suite.service.DeleteTask(suite.ctx, task.ID))

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Zero(count)
	suite.Empty(pendingIDs(suite.T(), suite.db, user.ID))
}

func (suite *TaskServiceTestSuite) TestUpdateCompleteSweepsStaleEntries() {
	owner := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	parked := createTestUser(suite.T(), suite.db, "Bo", "b@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, owner)

	// A refused claim leaves the id parked in the other user's set.
	suite.Require().NoError(suite.db.Create(&models.PendingTask{UserID: parked.ID, TaskID: task.ID}).Error)

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, TaskInput{
		Name:           task.Name,
		Deadline:       testDeadline(),
		Completed:      true,
		AssignedUserID: owner.ID,
	})
	suite.Require().NoError(err)

	suite.Empty(pendingIDs(suite.T(), suite.db, owner.ID))
	suite.Empty(pendingIDs(suite.T(), suite.db, parked.ID))
}

func (suite *TaskServiceTestSuite) TestDeleteSweepsStaleEntries() {
	owner := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	parked := createTestUser(suite.T(), suite.db, "Bo", "b@x.com")
	task := createTestTask(suite.T(), suite.db, "Write spec", false, owner)
	suite.Require().NoError(suite.db.Create(&models.PendingTask{UserID: parked.ID, TaskID: task.ID}).Error)

	suite.Require().NoError(suite.service.DeleteTask(suite.ctx, task.ID))

	var rows int64
	suite.db.Model(&models.PendingTask{}).Count(&rows)
	suite.Zero(rows)
}

func (suite *TaskServiceTestSuite) TestCreateKeepsTaskWhenReconciliationFails() {
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	suite.Require().NoError(suite.db.Migrator().DropTable(&models.PendingTask{}))

	task, err := suite.service.CreateTask(suite.ctx, TaskInput{
		Name:           "Write spec",
		Deadline:       testDeadline(),
		AssignedUserID: user.ID,
	})
	suite.Require().NoError(err)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.EqualValues(1, count)
}

func (suite *TaskServiceTestSuite) TestCreateStrictRollsBackWhenReconciliationFails() {
	strict := NewTaskService(suite.db, true, nopLogger())
	user := createTestUser(suite.T(), suite.db, "Amy", "a@x.com")
	suite.Require().NoError(suite.db.Migrator().DropTable(&models.PendingTask{}))

	_, err := strict.CreateTask(suite.ctx, TaskInput{
		Name:           "Write spec",
		Deadline:       testDeadline(),
		AssignedUserID: user.ID,
	})
	suite.Require().Error(err)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Zero(count)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

// TestTaskSyncIntents checks the full prior/new transition table.
func TestTaskSyncIntents(t *testing.T) {
	const taskID = "t1"

	tests := []struct {
		name string
		prev taskSyncState
		next taskSyncState
		want []Intent
	}{
		{
			name: "reassigned incomplete",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{assignedUserID: "b"},
			want: []Intent{
				{Op: OpRemove, UserID: "a", TaskID: taskID},
				{Op: OpAdd, UserID: "b", TaskID: taskID},
			},
		},
		{
			name: "reassigned and completed",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{assignedUserID: "b", completed: true},
			want: []Intent{{Op: OpClear, TaskID: taskID}},
		},
		{
			name: "same assignee completed",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{assignedUserID: "a", completed: true},
			want: []Intent{{Op: OpClear, TaskID: taskID}},
		},
		{
			name: "already completed unchanged",
			prev: taskSyncState{assignedUserID: "a", completed: true},
			next: taskSyncState{assignedUserID: "a", completed: true},
			want: nil,
		},
		{
			name: "same assignee reopened",
			prev: taskSyncState{assignedUserID: "a", completed: true},
			next: taskSyncState{assignedUserID: "a"},
			want: []Intent{{Op: OpAdd, UserID: "a", TaskID: taskID}},
		},
		{
			name: "same assignee unchanged",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{assignedUserID: "a"},
			want: nil,
		},
		{
			name: "newly assigned incomplete",
			prev: taskSyncState{},
			next: taskSyncState{assignedUserID: "b"},
			want: []Intent{{Op: OpAdd, UserID: "b", TaskID: taskID}},
		},
		{
			name: "newly assigned completed",
			prev: taskSyncState{},
			next: taskSyncState{assignedUserID: "b", completed: true},
			want: []Intent{{Op: OpClear, TaskID: taskID}},
		},
		{
			name: "unassigned",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{},
			want: []Intent{{Op: OpRemove, UserID: "a", TaskID: taskID}},
		},
		{
			name: "unassigned while completing",
			prev: taskSyncState{assignedUserID: "a"},
			next: taskSyncState{completed: true},
			want: []Intent{{Op: OpClear, TaskID: taskID}},
		},
		{
			name: "completed while never assigned",
			prev: taskSyncState{},
			next: taskSyncState{completed: true},
			want: []Intent{{Op: OpClear, TaskID: taskID}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taskSyncIntents(taskID, tt.prev, tt.next)
			assert.Equal(t, tt.want, got)
		})
	}
}
