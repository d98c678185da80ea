package tools

import "errors"

var (
	// ErrToolNameEmpty indicates a tool was defined without a name.
	ErrToolNameEmpty = errors.New("tool name is empty")

	// ErrToolExecuteNil indicates a tool was defined without an Execute func.
	ErrToolExecuteNil = errors.New("tool execute function is nil")

	// ErrToolAlreadyRegistered indicates a duplicate registration.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrToolNotFound indicates a lookup for an unknown tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrMissingArgument indicates a required argument was not provided.
	ErrMissingArgument = errors.New("missing required argument")
)
