package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker/internal/dto"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/services"
	"github.com/yukikurage/task-tracker/internal/utils"
)

type UserHandler struct {
	service *services.UserService
	logger  zerolog.Logger
}

func NewUserHandler(service *services.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// userPayload is the request body for user create and update. PendingTaskIDs
// is the full desired set.
type userPayload struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	PendingTaskIDs []string `json:"pendingTaskIds"`
}

func (p userPayload) toInput() services.UserInput {
	return services.UserInput{
		Name:           p.Name,
		Email:          p.Email,
		PendingTaskIDs: p.PendingTaskIDs,
	}
}

// ListUsers returns users matching the where/select/sort/skip/limit query,
// or only their count when count=true.
func (h *UserHandler) ListUsers(c *gin.Context) {
	opts, err := utils.ParseListOptions(c, 0)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	if opts.Count {
		count, err := h.service.CountUsers(c.Request.Context(), opts.Query.Where)
		if err != nil {
			h.fail(c, err)
			return
		}
		apierrors.OK(c, "Count only", gin.H{"count": count})
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), opts.Query)
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "OK", dto.UserDocs(users, opts.Select))
}

// GetUser returns a single user; select projection is honored.
func (h *UserHandler) GetUser(c *gin.Context) {
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

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "OK", dto.UserDoc(*user, opts.Select))
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.Created(c, "Created", dto.UserDoc(*user, nil))
}

// UpdateUser replaces a user's fields and reconciles its pending set
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidID(id) {
		apierrors.BadRequest(c, "Invalid id format")
		return
	}

	var req userPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "Updated", dto.UserDoc(*user, nil))
}

// DeleteUser removes a user and releases its assigned tasks
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidID(id) {
		apierrors.BadRequest(c, "Invalid id format")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	apierrors.OK(c, "Deleted", gin.H{"id": id})
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	if apierrors.IsInternal(err) {
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("user handler failed")
	}
	apierrors.FromService(c, err)
}
