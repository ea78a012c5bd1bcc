package domain

import "errors"

var (
	ErrLimitReached  = errors.New("free plan limit reached, upgrade to add more")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid status")
)
