package service

import (
	"context"
	"strings"

	"github.com/b2bnest/b2bnest-api/internal/profiles/domain"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
	Update(ctx context.Context, p *domain.Profile) error
}

type ProfileService struct {
	repo Repository
}

func NewProfileService(repo Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile retrieves a profile by user id
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SyncProfile creates or refreshes the profile after sign-in so that server-side features
// (notification emails, plan limits) can find the user.
func (s *ProfileService) SyncProfile(ctx context.Context, req *domain.SyncProfileRequest) (*domain.Profile, error) {
	p := &domain.Profile{
		UserID:      req.UserID,
		Email:       strings.TrimSpace(strings.ToLower(req.Email)),
		DisplayName: trimmed(req.DisplayName),
		Company:     trimmed(req.Company),
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfile updates profile information
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		p.DisplayName = trimmed(req.DisplayName)
	}
	if req.Company != nil {
		p.Company = trimmed(req.Company)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
