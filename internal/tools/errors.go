package tools

import "errors"

var (
	ErrUnknownTool           = errors.New("unknown tool")
	ErrValidation            = errors.New("validation failed")
	ErrCapabilityUnavailable = errors.New("capability not available")
	ErrDuplicateTool         = errors.New("tool already registered")
)
