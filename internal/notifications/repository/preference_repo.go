package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

const selectPreferences = `
	SELECT user_id, email_task_assigned, email_task_completed, email_status_changed,
	       email_comments, email_due_reminders, in_app_enabled, created_at, updated_at
	FROM notification_preferences
	WHERE user_id = $1
`

// PreferenceRepository handles PostgreSQL operations for notification preferences
type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetOrCreate returns the user's preferences, creating the all-enabled default row on
// first use. Concurrent first calls both end up reading the single row that won the insert.
func (r *PreferenceRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Preferences, error) {
	p, err := r.get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	d := domain.DefaultPreferences(userID)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (
			user_id, email_task_assigned, email_task_completed, email_status_changed,
			email_comments, email_due_reminders, in_app_enabled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`, d.UserID, d.EmailTaskAssigned, d.EmailTaskCompleted, d.EmailStatusChanged,
		d.EmailComments, d.EmailDueReminders, d.InAppEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}

	p, err = r.get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences after create: %w", err)
	}
	return p, nil
}

func (r *PreferenceRepository) get(ctx context.Context, userID string) (*domain.Preferences, error) {
	var p domain.Preferences
	err := r.db.QueryRowContext(ctx, selectPreferences, userID).Scan(
		&p.UserID,
		&p.EmailTaskAssigned,
		&p.EmailTaskCompleted,
		&p.EmailStatusChanged,
		&p.EmailComments,
		&p.EmailDueReminders,
		&p.InAppEnabled,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the full preference row
func (r *PreferenceRepository) Update(ctx context.Context, p *domain.Preferences) error {
	query := `
		UPDATE notification_preferences
		SET email_task_assigned = $2, email_task_completed = $3, email_status_changed = $4,
		    email_comments = $5, email_due_reminders = $6, in_app_enabled = $7, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.EmailTaskAssigned,
		p.EmailTaskCompleted,
		p.EmailStatusChanged,
		p.EmailComments,
		p.EmailDueReminders,
		p.InAppEnabled,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}
