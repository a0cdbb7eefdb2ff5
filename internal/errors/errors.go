package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/services"
)

// Every response carries the same envelope: a human-readable message and the
// payload, which is null on failure.
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}

// OK sends a 200 response
func OK(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, message, data)
}

// Created sends a 201 response
func Created(c *gin.Context, message string, data any) {
	respond(c, http.StatusCreated, message, data)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, message, nil)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, message, nil)
}

// Internal sends a 500 response
func Internal(c *gin.Context) {
	respond(c, http.StatusInternalServerError, "Server error", nil)
}

// statusOf maps the service error taxonomy to HTTP statuses: validation and
// bad references are 400, missing targets 404, duplicate email 409,
// everything else 500.
func statusOf(err error) int {
	switch {
	case stderrors.Is(err, services.ErrTaskNotFound),
		stderrors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound

	case stderrors.Is(err, services.ErrTaskNameRequired),
		stderrors.Is(err, services.ErrDeadlineRequired),
		stderrors.Is(err, services.ErrUserNameRequired),
		stderrors.Is(err, services.ErrEmailRequired),
		stderrors.Is(err, services.ErrAssigneeNotFound),
		stderrors.Is(err, repository.ErrUnknownField):
		return http.StatusBadRequest

	case stderrors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// FromService responds with the status and message matching a service error.
func FromService(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		Internal(c)
		return
	}
	respond(c, status, err.Error(), nil)
}

// IsInternal reports whether err maps to a 500, so handlers can log it.
func IsInternal(err error) bool {
	return statusOf(err) == http.StatusInternalServerError
}
