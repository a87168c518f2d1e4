package entity

import "errors"

var (
	ErrTitleDescriptionRequired = errors.New("title and description are required")
	ErrUpdateFieldsRequired     = errors.New("id, title, description and status are required")
	ErrTaskIDRequired           = errors.New("task id is required")
	ErrTaskNotFound             = errors.New("task not found")
)
