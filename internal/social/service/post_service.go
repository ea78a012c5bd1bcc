package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/social/domain"
)

type Store interface {
	Create(ctx context.Context, p *domain.Post) error
	List(ctx context.Context, userID, status string) ([]domain.Post, error)
	Get(ctx context.Context, userID, id string) (*domain.Post, error)
	UpdateStatus(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, userID, id string) error
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

type PostService struct {
	store Store
	now   func() time.Time
}

func NewPostService(store Store) *PostService {
	return &PostService{store: store, now: time.Now}
}

func (s *PostService) CreatePost(ctx context.Context, userID string, p domain.Post) (*domain.Post, error) {
	if err := p.Validate(s.now()); err != nil {
		return nil, err
	}
	p.ID = ""
	p.UserID = userID
	if err := s.store.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostService) ListPosts(ctx context.Context, userID, status string) ([]domain.Post, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	return s.store.List(ctx, userID, status)
}

// SetStatus moves a post to status. scheduledFor replaces the stored time when given.
func (s *PostService) SetStatus(ctx context.Context, userID, id, status string, scheduledFor *time.Time) (*domain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrPostNotFound
	}
	p, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Transition(status, scheduledFor, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrPostNotFound
	}
	return s.store.Delete(ctx, userID, id)
}

// PublishDue is the scheduler job publishing scheduled posts whose time has come.
func (s *PostService) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.PublishDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.NewLogger(ctx).LogInfo("social.publish_due", "scheduled posts published", zap.Int64("count", n))
	}
	return n, nil
}
