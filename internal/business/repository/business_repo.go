package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/b2bnest/b2bnest-api/internal/business/domain"
	profiles "github.com/b2bnest/b2bnest-api/internal/profiles/domain"
)

var resourceTables = map[domain.Resource]string{
	domain.ResourceCashFlow: "cash_flow_entries",
	domain.ResourceROI:      "roi_calculations",
	domain.ResourceSurveys:  "surveys",
}

// BusinessRepository handles PostgreSQL operations for the capped business collections
type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// insertCapped runs insert inside a transaction holding the user's profile row lock, after
// checking the plan cap for resource. Concurrent inserts for one user serialize on the lock.
func (r *BusinessRepository) insertCapped(ctx context.Context, userID string, resource domain.Resource, insert func(tx *sql.Tx) error) error {
	table, ok := resourceTables[resource]
	if !ok {
		return fmt.Errorf("unknown resource %q", resource)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, plan) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, profiles.PlanFree,
	); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}

	var plan string
	if err := tx.QueryRowContext(ctx, `SELECT plan FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&plan); err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}

	if limit, capped := domain.Limit(plan, resource); capped {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		if count >= limit {
			return domain.ErrLimitReached
		}
	}

	if err := insert(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (r *BusinessRepository) CreateCashFlowEntry(ctx context.Context, e *domain.CashFlowEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return r.insertCapped(ctx, e.UserID, domain.ResourceCashFlow, func(tx *sql.Tx) error {
		query := `
			INSERT INTO cash_flow_entries (id, user_id, type, category, description, amount, entry_date)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
			RETURNING created_at
		`
		err := tx.QueryRowContext(ctx, query, e.ID, e.UserID, e.Type, e.Category, e.Description, e.Amount, e.EntryDate).Scan(&e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert cash flow entry: %w", err)
		}
		return nil
	})
}

func (r *BusinessRepository) ListCashFlowEntries(ctx context.Context, userID string) ([]domain.CashFlowEntry, error) {
	query := `
		SELECT id, user_id, type, category, COALESCE(description, ''), amount, entry_date, created_at
		FROM cash_flow_entries
		WHERE user_id = $1
		ORDER BY entry_date DESC, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash flow entries: %w", err)
	}
	defer rows.Close()

	out := []domain.CashFlowEntry{}
	for rows.Next() {
		var e domain.CashFlowEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Category, &e.Description, &e.Amount, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *BusinessRepository) CreateROICalculation(ctx context.Context, c *domain.ROICalculation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.insertCapped(ctx, c.UserID, domain.ResourceROI, func(tx *sql.Tx) error {
		query := `
			INSERT INTO roi_calculations (id, user_id, name, initial_investment, total_returns, time_period_months, roi_percentage)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at
		`
		err := tx.QueryRowContext(ctx, query, c.ID, c.UserID, c.Name, c.InitialInvestment, c.TotalReturns, c.TimePeriodMonths, c.ROI).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert roi calculation: %w", err)
		}
		return nil
	})
}

func (r *BusinessRepository) ListROICalculations(ctx context.Context, userID string) ([]domain.ROICalculation, error) {
	query := `
		SELECT id, user_id, name, initial_investment, total_returns, time_period_months, roi_percentage, created_at
		FROM roi_calculations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roi calculations: %w", err)
	}
	defer rows.Close()

	out := []domain.ROICalculation{}
	for rows.Next() {
		var c domain.ROICalculation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.InitialInvestment, &c.TotalReturns, &c.TimePeriodMonths, &c.ROI, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roi calculation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *BusinessRepository) CreateSurvey(ctx context.Context, s *domain.Survey) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return r.insertCapped(ctx, s.UserID, domain.ResourceSurveys, func(tx *sql.Tx) error {
		query := `
			INSERT INTO surveys (id, user_id, title, description, questions, status)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query, s.ID, s.UserID, s.Title, s.Description, []byte(s.Questions), s.Status).Scan(&s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert survey: %w", err)
		}
		return nil
	})
}

func (r *BusinessRepository) ListSurveys(ctx context.Context, userID string) ([]domain.Survey, error) {
	query := `
		SELECT id, user_id, title, COALESCE(description, ''), questions, status, created_at, updated_at
		FROM surveys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	out := []domain.Survey{}
	for rows.Next() {
		var s domain.Survey
		var questions []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &questions, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		s.Questions = questions
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *BusinessRepository) UpdateSurveyStatus(ctx context.Context, userID, id, status string) (*domain.Survey, error) {
	query := `
		UPDATE surveys SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, COALESCE(description, ''), questions, status, created_at, updated_at
	`
	var s domain.Survey
	var questions []byte
	err := r.db.QueryRowContext(ctx, query, id, userID, status).
		Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &questions, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}
	s.Questions = questions
	return &s, nil
}

// Delete removes one of the user's records from the resource's table
func (r *BusinessRepository) Delete(ctx context.Context, resource domain.Resource, userID, id string) error {
	table, ok := resourceTables[resource]
	if !ok {
		return fmt.Errorf("unknown resource %q", resource)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Usage returns the user's plan and the size of each capped collection
func (r *BusinessRepository) Usage(ctx context.Context, userID string) (string, map[domain.Resource]int, error) {
	var plan sql.NullString
	query := `
		SELECT
			(SELECT plan FROM profiles WHERE user_id = $1),
			(SELECT COUNT(*) FROM cash_flow_entries WHERE user_id = $1),
			(SELECT COUNT(*) FROM roi_calculations WHERE user_id = $1),
			(SELECT COUNT(*) FROM surveys WHERE user_id = $1)
	`
	var cashFlow, roi, surveys int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&plan, &cashFlow, &roi, &surveys); err != nil {
		return "", nil, fmt.Errorf("failed to read usage: %w", err)
	}

	p := profiles.PlanFree
	if plan.Valid && plan.String != "" {
		p = plan.String
	}
	return p, map[domain.Resource]int{
		domain.ResourceCashFlow: cashFlow,
		domain.ResourceROI:      roi,
		domain.ResourceSurveys:  surveys,
	}, nil
}
