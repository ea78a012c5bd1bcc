package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/business/domain"
)

// memRepo enforces the free caps the same way the SQL repository does: under one lock.
type memRepo struct {
	mu       sync.Mutex
	plan     string
	cashFlow []domain.CashFlowEntry
	roi      []domain.ROICalculation
	surveys  []domain.Survey
}

func (m *memRepo) capped(r domain.Resource, count int) error {
	if limit, ok := domain.Limit(m.plan, r); ok && count >= limit {
		return domain.ErrLimitReached
	}
	return nil
}

func (m *memRepo) CreateCashFlowEntry(_ context.Context, e *domain.CashFlowEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.capped(domain.ResourceCashFlow, len(m.cashFlow)); err != nil {
		return err
	}
	e.ID = fmt.Sprintf("cf-%d", len(m.cashFlow)+1)
	m.cashFlow = append(m.cashFlow, *e)
	return nil
}

func (m *memRepo) ListCashFlowEntries(context.Context, string) ([]domain.CashFlowEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CashFlowEntry(nil), m.cashFlow...), nil
}

func (m *memRepo) CreateROICalculation(_ context.Context, c *domain.ROICalculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.capped(domain.ResourceROI, len(m.roi)); err != nil {
		return err
	}
	m.roi = append(m.roi, *c)
	return nil
}

func (m *memRepo) ListROICalculations(context.Context, string) ([]domain.ROICalculation, error) {
	return m.roi, nil
}

func (m *memRepo) CreateSurvey(_ context.Context, s *domain.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.capped(domain.ResourceSurveys, len(m.surveys)); err != nil {
		return err
	}
	s.ID = fmt.Sprintf("s-%d", len(m.surveys)+1)
	m.surveys = append(m.surveys, *s)
	return nil
}

func (m *memRepo) ListSurveys(context.Context, string) ([]domain.Survey, error) { return m.surveys, nil }

func (m *memRepo) UpdateSurveyStatus(_ context.Context, _, id, status string) (*domain.Survey, error) {
	for i := range m.surveys {
		if m.surveys[i].ID == id {
			m.surveys[i].Status = status
			return &m.surveys[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Delete(context.Context, domain.Resource, string, string) error { return nil }

func (m *memRepo) Usage(context.Context, string) (string, map[domain.Resource]int, error) {
	return m.plan, map[domain.Resource]int{
		domain.ResourceCashFlow: len(m.cashFlow),
		domain.ResourceROI:      len(m.roi),
		domain.ResourceSurveys:  len(m.surveys),
	}, nil
}

func TestSaveROI_ComputesServerSide(t *testing.T) {
	repo := &memRepo{plan: "free"}
	s := NewBusinessService(repo)

	c, err := s.SaveROI(context.Background(), "user-1", &domain.ROICalculation{
		Name: "Trade show", InitialInvestment: 10000, TotalReturns: 15000, ROI: 999,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.00, c.ROI)
	assert.Equal(t, "user-1", c.UserID)

	_, err = s.SaveROI(context.Background(), "user-1", &domain.ROICalculation{Name: "Bad", InitialInvestment: 0, TotalReturns: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCapRejectsAndLeavesCollectionUnchanged(t *testing.T) {
	repo := &memRepo{plan: "free"}
	s := NewBusinessService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.CreateSurvey(ctx, "user-1", &domain.Survey{Title: fmt.Sprintf("Survey %d", i)})
		require.NoError(t, err)
	}

	_, err := s.CreateSurvey(ctx, "user-1", &domain.Survey{Title: "One too many"})
	assert.ErrorIs(t, err, domain.ErrLimitReached)

	list, err := s.ListSurveys(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestCapHoldsUnderConcurrentInserts(t *testing.T) {
	repo := &memRepo{plan: "free"}
	s := NewBusinessService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddCashFlowEntry(context.Background(), "user-1", &domain.CashFlowEntry{Type: "inflow", Category: "sales", Amount: 10})
		}()
	}
	wg.Wait()

	entries, err := s.ListCashFlow(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestPaidPlanIsUncapped(t *testing.T) {
	repo := &memRepo{plan: "pro"}
	s := NewBusinessService(repo)

	for i := 0; i < 12; i++ {
		_, err := s.SaveROI(context.Background(), "user-1", &domain.ROICalculation{Name: "x", InitialInvestment: 1, TotalReturns: 2})
		require.NoError(t, err)
	}

	u, err := s.Usage(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 12, u.Resources[domain.ResourceROI].Used)
	assert.Nil(t, u.Resources[domain.ResourceROI].Limit)
}

func TestUsageReportsFreeLimits(t *testing.T) {
	s := NewBusinessService(&memRepo{plan: "free"})
	u, err := s.Usage(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, u.Resources[domain.ResourceCashFlow].Limit)
	assert.Equal(t, 50, *u.Resources[domain.ResourceCashFlow].Limit)
	assert.Equal(t, 5, *u.Resources[domain.ResourceSurveys].Limit)
}

func TestSetSurveyStatus(t *testing.T) {
	repo := &memRepo{plan: "free"}
	s := NewBusinessService(repo)
	sv, err := s.CreateSurvey(context.Background(), "user-1", &domain.Survey{Title: "CSAT"})
	require.NoError(t, err)

	got, err := s.SetSurveyStatus(context.Background(), "user-1", sv.ID, "Published")
	require.NoError(t, err)
	assert.Equal(t, domain.SurveyPublished, got.Status)

	_, err = s.SetSurveyStatus(context.Background(), "user-1", sv.ID, "closed")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCashFlowSummary(t *testing.T) {
	s := NewBusinessService(&memRepo{plan: "free"})
	ctx := context.Background()
	_, err := s.AddCashFlowEntry(ctx, "u", &domain.CashFlowEntry{Type: "inflow", Category: "sales", Amount: 500})
	require.NoError(t, err)
	_, err = s.AddCashFlowEntry(ctx, "u", &domain.CashFlowEntry{Type: "outflow", Category: "rent", Amount: 200})
	require.NoError(t, err)

	sum, err := s.CashFlowSummary(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 300.0, sum.Net)
}
