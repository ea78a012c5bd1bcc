package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/b2bnest/b2bnest-api/internal/profiles/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves a profile by the auth provider's user id
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, COALESCE(email, ''), display_name, company, plan, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p domain.Profile
	var displayName, company sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&displayName,
		&company,
		&p.Plan,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		p.DisplayName = &displayName.String
	}
	if company.Valid {
		p.Company = &company.String
	}

	return &p, nil
}

// Upsert creates the profile or refreshes the provided fields, keeping stored values for
// the ones left empty.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, email, display_name, company, plan)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, profiles.email),
		    display_name = COALESCE(EXCLUDED.display_name, profiles.display_name),
		    company = COALESCE(EXCLUDED.company, profiles.company),
		    updated_at = NOW()
		RETURNING COALESCE(email, ''), plan, created_at, updated_at
	`

	plan := p.Plan
	if plan == "" {
		plan = domain.PlanFree
	}

	return r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.Email,
		p.DisplayName,
		p.Company,
		plan,
	).Scan(&p.Email, &p.Plan, &p.CreatedAt, &p.UpdatedAt)
}

// Update updates the editable profile fields
func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, company = $3, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, p.UserID, p.DisplayName, p.Company).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}
	return err
}

// EmailForUser returns the stored email for a user, or ErrProfileNotFound when there is
// no profile or it has no email.
func (r *ProfileRepository) EmailForUser(ctx context.Context, userID string) (string, error) {
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT email FROM profiles WHERE user_id = $1`, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrProfileNotFound
	}
	if err != nil {
		return "", err
	}
	if !email.Valid || email.String == "" {
		return "", domain.ErrProfileNotFound
	}
	return email.String, nil
}
