package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/b2bnest/b2bnest-api/internal/assistant/domain"
)

// Repo stores assistant conversations and business insights in Postgres.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

func (r *Repo) GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	const q = `
select id::text, user_id, conversation_type, title, messages, version, created_at, updated_at
from ai_conversations
where id=$1 and user_id=$2
`
	var c domain.Conversation
	var typ string
	var raw []byte
	err := r.db.QueryRow(ctx, q, id, userID).Scan(&c.ID, &c.UserID, &typ, &c.Title, &raw, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	c.Type = domain.ConversationType(typ)
	if err := json.Unmarshal(raw, &c.Messages); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &c, nil
}

// CreateConversation inserts c at version 1.
func (r *Repo) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	raw, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	const q = `
insert into ai_conversations (id, user_id, conversation_type, title, messages, version)
values ($1, $2, $3, $4, $5, 1)
returning version, created_at, updated_at
`
	return r.db.QueryRow(ctx, q, c.ID, c.UserID, string(c.Type), c.Title, raw).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
}

// SaveMessages replaces the transcript if the stored version still equals c.Version, and
// bumps the version. A stale version returns ErrVersionConflict.
func (r *Repo) SaveMessages(ctx context.Context, c *domain.Conversation) error {
	raw, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	const q = `
update ai_conversations
set messages=$1, version=version+1, updated_at=now()
where id=$2 and user_id=$3 and version=$4
returning version, updated_at
`
	err = r.db.QueryRow(ctx, q, raw, c.ID, c.UserID, c.Version).Scan(&c.Version, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrVersionConflict
	}
	return err
}

func (r *Repo) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	const q = `
select id::text, conversation_type, title, jsonb_array_length(messages), updated_at
from ai_conversations
where user_id=$1
order by updated_at desc
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ConversationSummary{}
	for rows.Next() {
		var s domain.ConversationSummary
		var typ string
		if err := rows.Scan(&s.ID, &typ, &s.Title, &s.MessageCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Type = domain.ConversationType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteConversation(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `delete from ai_conversations where id=$1 and user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *Repo) InsertInsight(ctx context.Context, in *domain.BusinessInsight) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}

	const q = `
insert into business_insights (id, user_id, conversation_id, insight_type, title, content, confidence_score, expires_at)
values ($1, $2, nullif($3, '')::uuid, $4, $5, $6, $7, $8)
returning created_at
`
	return r.db.QueryRow(ctx, q, in.ID, in.UserID, in.ConversationID, string(in.InsightType), in.Title, in.Content, in.Confidence, in.ExpiresAt).
		Scan(&in.CreatedAt)
}

// ListActiveInsights returns the user's insights that have not expired at now.
func (r *Repo) ListActiveInsights(ctx context.Context, userID string, now time.Time) ([]domain.BusinessInsight, error) {
	const q = `
select id::text, user_id, coalesce(conversation_id::text, ''), insight_type, title, content, confidence_score, expires_at, created_at
from business_insights
where user_id=$1 and expires_at > $2
order by created_at desc
`
	rows, err := r.db.Query(ctx, q, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.BusinessInsight{}
	for rows.Next() {
		var in domain.BusinessInsight
		var typ string
		if err := rows.Scan(&in.ID, &in.UserID, &in.ConversationID, &typ, &in.Title, &in.Content, &in.Confidence, &in.ExpiresAt, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.InsightType = domain.ConversationType(typ)
		out = append(out, in)
	}
	return out, rows.Err()
}
