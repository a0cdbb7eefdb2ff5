package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker/internal/dto"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/services"
	"github.com/yukikurage/task-tracker/internal/utils"
)

// defaultTaskListLimit caps unbounded task listings.
const defaultTaskListLimit = 100

type TaskHandler struct {
	service *services.TaskService
	logger  zerolog.Logger
}

func NewTaskHandler(service *services.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// taskPayload is the request body for task create and update.
type taskPayload struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Deadline       *utils.FlexTime `json:"deadline"`
	Completed      bool            `json:"completed"`
	AssignedUserID string          `json:"assignedUserId"`
}

func (p taskPayload) toInput() services.TaskInput {
	input := services.TaskInput{
		Name:           p.Name,
		Description:    p.Description,
		Completed:      p.Completed,
		AssignedUserID: p.AssignedUserID,
	}
	if p.Deadline != nil {
		deadline := p.Deadline.Time
		input.Deadline = &deadline
	}
	return input
}

// ListTasks returns tasks matching the where/select/sort/skip/limit query,
// or only their count when count=true.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	opts, err := utils.ParseListOptions(c, defaultTaskListLimit)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	if opts.Count {
		count, err := h.service.CountTasks(c.Request.Context(), opts.Query.Where)
		if err != nil {
			h.fail(c, err)
			return
		}
		apierrors.OK(c, "Count only", gin.H{"count": count})
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), opts.Query)
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "OK", dto.TaskDocs(tasks, opts.Select))
}

// GetTask returns a single task; select projection is honored.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidID(id) {
		apierrors.BadRequest(c, "Invalid id format")
		return
	}

	opts, err := utils.ParseListOptions(c, 0)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "OK", dto.TaskDoc(*task, opts.Select))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req taskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.AssignedUserID != "" && !utils.IsValidID(req.AssignedUserID) {
		apierrors.BadRequest(c, "Invalid assignedUserId")
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.Created(c, "Created", dto.TaskDoc(*task, nil))
}

// UpdateTask replaces a task's fields
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidID(id) {
		apierrors.BadRequest(c, "Invalid id format")
		return
	}

	var req taskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.AssignedUserID != "" && !utils.IsValidID(req.AssignedUserID) {
		apierrors.BadRequest(c, "Invalid assignedUserId")
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "Updated", dto.TaskDoc(*task, nil))
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidID(id) {
		apierrors.BadRequest(c, "Invalid id format")
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "Deleted", gin.H{"id": id})
}

func (h *TaskHandler) fail(c *gin.Context, err error) {
	if apierrors.IsInternal(err) {
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("task handler failed")
	}
	apierrors.FromService(c, err)
}
