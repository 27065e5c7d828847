package agent

import "errors"

var (
	ErrEmptyToolName = errors.New("tool name cannot be empty")
	ErrDuplicateTool = errors.New("tool is already registered")
	ErrToolNotFound  = errors.New("tool not found")
)
