package repository

import "errors"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrGroupNotFound   = errors.New("group not found")

	// ErrProtectedGroup is returned when deleting one of the seeded groups.
	ErrProtectedGroup = errors.New("group is protected")

	// ErrVirtualTask is returned when a projected occurrence id reaches a
	// write path.
	ErrVirtualTask = errors.New("virtual occurrences cannot be stored")
)
