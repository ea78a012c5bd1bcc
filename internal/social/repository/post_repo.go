package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/b2bnest/b2bnest-api/internal/social/domain"
)

const postColumns = `id, user_id, platform, content, hashtags, scheduled_for, status, published_at, created_at, updated_at`

// PostRepository handles PostgreSQL operations for social posts
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*domain.Post, error) {
	var p domain.Post
	var scheduled, published sql.NullTime
	if err := s.Scan(&p.ID, &p.UserID, &p.Platform, &p.Content, pq.Array(&p.Hashtags),
		&scheduled, &p.Status, &published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if scheduled.Valid {
		p.ScheduledFor = &scheduled.Time
	}
	if published.Valid {
		p.PublishedAt = &published.Time
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	return &p, nil
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO social_posts (id, user_id, platform, content, hashtags, scheduled_for, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.Platform, p.Content, pq.Array(p.Hashtags), p.ScheduledFor, p.Status, p.PublishedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// List returns the user's posts, optionally filtered by status, soonest first.
func (r *PostRepository) List(ctx context.Context, userID, status string) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM social_posts
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY COALESCE(scheduled_for, published_at, created_at) ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	out := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PostRepository) Get(ctx context.Context, userID, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1 AND user_id = $2`
	p, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// UpdateStatus writes the status fields of p. The row must still be unpublished, so a
// post the scheduler published meanwhile is not rolled back.
func (r *PostRepository) UpdateStatus(ctx context.Context, p *domain.Post) error {
	query := `
		UPDATE social_posts
		SET status = $1, scheduled_for = $2, published_at = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5 AND (status <> $6 OR $1 = $6)
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Status, p.ScheduledFor, p.PublishedAt, p.ID, p.UserID, domain.StatusPublished,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTransitionDenied
	}
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM social_posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// PublishDue publishes every scheduled post whose time has come and returns how many.
func (r *PostRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE social_posts
		SET status = $1, published_at = $2, updated_at = NOW()
		WHERE status = $3 AND scheduled_for <= $2
	`
	res, err := r.db.ExecContext(ctx, query, domain.StatusPublished, now, domain.StatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("failed to publish due posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
