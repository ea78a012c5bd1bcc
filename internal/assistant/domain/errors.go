package domain

import "errors"

var (
	ErrInvalidType          = errors.New("unknown conversation type")
	ErrEmptyMessage         = errors.New("message is required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrVersionConflict      = errors.New("conversation was modified concurrently")
	ErrProviderUnavailable  = errors.New("llm provider not configured")
)
