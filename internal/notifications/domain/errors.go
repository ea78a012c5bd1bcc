package domain

import "errors"

var (
	ErrInvalidType         = errors.New("unknown notification type")
	ErrInvalidEvent        = errors.New("invalid notification event")
	ErrRecipientNoEmail    = errors.New("recipient email not found")
	ErrNotificationMissing = errors.New("notification not found")
)
