package domain

import (
	"errors"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Plan names stored in profiles.plan.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Profile is the application-side record of an authenticated user.
type Profile struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	Company     *string   `json:"company,omitempty"`
	Plan        string    `json:"plan"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SyncProfileRequest represents data needed to create or refresh a profile
type SyncProfileRequest struct {
	UserID      string
	Email       string
	DisplayName *string
	Company     *string
}

// UpdateProfileRequest represents data for updating a profile
type UpdateProfileRequest struct {
	DisplayName *string
	Company     *string
}
