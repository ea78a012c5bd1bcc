package domain

import "errors"

var (
	ErrInvalidVRN        = errors.New("vrn must be 9 digits")
	ErrInvalidPeriodKey  = errors.New("period key must be 4 characters")
	ErrInvalidReturn     = errors.New("invalid vat return")
	ErrInvalidObligation = errors.New("invalid obligation")
	ErrNoOpenObligation  = errors.New("no open obligation for period")
	ErrAlreadySubmitted  = errors.New("return already submitted for period")
	ErrReturnNotFound    = errors.New("vat return not found")
	ErrUpstreamFailed    = errors.New("hmrc request failed")
)
