package services

import "errors"

var (
	// Not found
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")

	// Validation
	ErrTaskNameRequired = errors.New("task name is required")
	ErrDeadlineRequired = errors.New("deadline is required")
	ErrUserNameRequired = errors.New("user name is required")
	ErrEmailRequired    = errors.New("email is required")

	// Reference: the assignee id is well-formed but names no existing user
	ErrAssigneeNotFound = errors.New("assigned user does not exist")

	// Conflict
	ErrEmailTaken = errors.New("email is already registered")
)
