package domain

import "errors"

var (
	ErrInvalidPost      = errors.New("invalid post")
	ErrInvalidStatus    = errors.New("invalid post status")
	ErrInvalidPlatform  = errors.New("unsupported platform")
	ErrPostNotFound     = errors.New("post not found")
	ErrTransitionDenied = errors.New("status change not allowed")
)
