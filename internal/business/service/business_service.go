package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/b2bnest/b2bnest-api/internal/business/domain"
)

type Repository interface {
	CreateCashFlowEntry(ctx context.Context, e *domain.CashFlowEntry) error
	ListCashFlowEntries(ctx context.Context, userID string) ([]domain.CashFlowEntry, error)
	CreateROICalculation(ctx context.Context, c *domain.ROICalculation) error
	ListROICalculations(ctx context.Context, userID string) ([]domain.ROICalculation, error)
	CreateSurvey(ctx context.Context, s *domain.Survey) error
	ListSurveys(ctx context.Context, userID string) ([]domain.Survey, error)
	UpdateSurveyStatus(ctx context.Context, userID, id, status string) (*domain.Survey, error)
	Delete(ctx context.Context, resource domain.Resource, userID, id string) error
	Usage(ctx context.Context, userID string) (string, map[domain.Resource]int, error)
}

type BusinessService struct {
	repo Repository
}

func NewBusinessService(repo Repository) *BusinessService {
	return &BusinessService{repo: repo}
}

func (s *BusinessService) AddCashFlowEntry(ctx context.Context, userID string, e *domain.CashFlowEntry) (*domain.CashFlowEntry, error) {
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCashFlowEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *BusinessService) ListCashFlow(ctx context.Context, userID string) ([]domain.CashFlowEntry, error) {
	return s.repo.ListCashFlowEntries(ctx, userID)
}

func (s *BusinessService) CashFlowSummary(ctx context.Context, userID string) (domain.CashFlowSummary, error) {
	entries, err := s.repo.ListCashFlowEntries(ctx, userID)
	if err != nil {
		return domain.CashFlowSummary{}, err
	}
	return domain.Summarize(entries), nil
}

// PreviewROI computes a calculation without storing it or counting against the cap.
func (s *BusinessService) PreviewROI(c *domain.ROICalculation) (*domain.ROICalculation, error) {
	if err := c.Compute(); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveROI computes the ROI server side and stores it. Client-supplied results are ignored.
func (s *BusinessService) SaveROI(ctx context.Context, userID string, c *domain.ROICalculation) (*domain.ROICalculation, error) {
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := c.Compute(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateROICalculation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *BusinessService) ListROI(ctx context.Context, userID string) ([]domain.ROICalculation, error) {
	list, err := s.repo.ListROICalculations(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		_ = list[i].Compute()
	}
	return list, nil
}

func (s *BusinessService) CreateSurvey(ctx context.Context, userID string, sv *domain.Survey) (*domain.Survey, error) {
	sv.UserID = userID
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *BusinessService) ListSurveys(ctx context.Context, userID string) ([]domain.Survey, error) {
	return s.repo.ListSurveys(ctx, userID)
}

func (s *BusinessService) SetSurveyStatus(ctx context.Context, userID, id, status string) (*domain.Survey, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidSurveyStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.UpdateSurveyStatus(ctx, userID, id, status)
}

func (s *BusinessService) Delete(ctx context.Context, resource domain.Resource, userID, id string) error {
	return s.repo.Delete(ctx, resource, userID, id)
}

func (s *BusinessService) Usage(ctx context.Context, userID string) (*domain.Usage, error) {
	plan, counts, err := s.repo.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}

	u := &domain.Usage{Plan: plan, Resources: make(map[domain.Resource]domain.ResourceUsage, len(counts))}
	for r, used := range counts {
		ru := domain.ResourceUsage{Used: used}
		if limit, capped := domain.Limit(plan, r); capped {
			l := limit
			ru.Limit = &l
		}
		u.Resources[r] = ru
	}
	return u, nil
}
