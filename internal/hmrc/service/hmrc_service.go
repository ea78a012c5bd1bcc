package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/hmrc/domain"
	"github.com/b2bnest/b2bnest-api/internal/logging"
)

type Store interface {
	UpsertObligation(ctx context.Context, o *domain.Obligation) error
	ListObligations(ctx context.Context, userID, vrn string, from, to time.Time) ([]domain.Obligation, error)
	SubmitReturn(ctx context.Context, ret *domain.VATReturn, now time.Time, forward func(ctx context.Context, ret *domain.VATReturn) error) error
	ListReturns(ctx context.Context, userID, vrn string) ([]domain.VATReturn, error)
	GetReturn(ctx context.Context, userID, vrn, periodKey string) (*domain.VATReturn, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Gateway is the live HMRC MTD VAT API.
type Gateway interface {
	Obligations(ctx context.Context, vrn string, from, to time.Time) ([]domain.Obligation, error)
	SubmitReturn(ctx context.Context, vrn string, r domain.VATReturn) (*domain.Receipt, error)
}

type HMRCService struct {
	store   Store
	gateway Gateway
	now     func() time.Time
}

// NewHMRCService serves demo obligations when gateway is nil.
func NewHMRCService(store Store, gateway Gateway) *HMRCService {
	return &HMRCService{store: store, gateway: gateway, now: time.Now}
}

// Live reports whether calls reach HMRC.
func (s *HMRCService) Live() bool {
	return s.gateway != nil
}

// ListObligations returns the obligations overlapping [from, to] with their effective
// status. Zero bounds default to the current calendar year.
func (s *HMRCService) ListObligations(ctx context.Context, userID, vrn string, from, to time.Time) ([]domain.Obligation, error) {
	vrn, err := domain.ValidateVRN(vrn)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if from.IsZero() {
		from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to is before from", domain.ErrInvalidObligation)
	}

	if s.gateway != nil {
		if err := s.sync(ctx, userID, vrn, from, to, now); err != nil {
			return nil, err
		}
	} else if err := s.ensureDemo(ctx, userID, vrn, from, to, now); err != nil {
		return nil, err
	}

	obs, err := s.store.ListObligations(ctx, userID, vrn, from, to)
	if err != nil {
		return nil, err
	}
	for i := range obs {
		obs[i].Status = obs[i].EffectiveStatus(now)
	}
	return obs, nil
}

func (s *HMRCService) sync(ctx context.Context, userID, vrn string, from, to, now time.Time) error {
	remote, err := s.gateway.Obligations(ctx, vrn, from, to)
	if err != nil {
		return err
	}
	for i := range remote {
		o := remote[i]
		o.UserID = userID
		o.Status = o.EffectiveStatus(now)
		if err := s.store.UpsertObligation(ctx, &o); err != nil {
			return err
		}
	}
	logging.NewLogger(ctx).LogInfo("hmrc.sync", "obligations synced",
		zap.String("vrn", vrn), zap.Int("count", len(remote)))
	return nil
}

// ensureDemo seeds the current year's quarters for a VRN that has nothing stored yet.
func (s *HMRCService) ensureDemo(ctx context.Context, userID, vrn string, from, to, now time.Time) error {
	existing, err := s.store.ListObligations(ctx, userID, vrn, from, to)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, o := range domain.DemoObligations(now) {
		if o.End.Before(from) || o.Start.After(to) {
			continue
		}
		o.UserID = userID
		o.VRN = vrn
		if err := s.store.UpsertObligation(ctx, &o); err != nil {
			return err
		}
	}
	return nil
}

// SeedObligation stores a single obligation, used to set up demo periods by hand.
func (s *HMRCService) SeedObligation(ctx context.Context, userID, vrn string, o domain.Obligation) (*domain.Obligation, error) {
	vrn, err := domain.ValidateVRN(vrn)
	if err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	o.ID = ""
	o.UserID = userID
	o.VRN = vrn
	if o.Status == domain.StatusFulfilled && o.Received == nil {
		received := s.now().UTC()
		o.Received = &received
	}
	if err := s.store.UpsertObligation(ctx, &o); err != nil {
		return nil, err
	}
	o.Status = o.EffectiveStatus(s.now().UTC())
	return &o, nil
}

// SubmitReturn validates ret, recomputes boxes 3 and 5, forwards it to HMRC when live and
// stores it against its open obligation.
func (s *HMRCService) SubmitReturn(ctx context.Context, userID, vrn string, ret domain.VATReturn) (*domain.VATReturn, error) {
	vrn, err := domain.ValidateVRN(vrn)
	if err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	ret.ID = ""
	ret.UserID = userID
	ret.VRN = vrn
	ret.FormBundleNumber = ""
	ret.ProcessingDate = nil

	var forward func(context.Context, *domain.VATReturn) error
	if s.gateway != nil {
		forward = func(ctx context.Context, r *domain.VATReturn) error {
			receipt, err := s.gateway.SubmitReturn(ctx, r.VRN, *r)
			if err != nil {
				return err
			}
			r.FormBundleNumber = receipt.FormBundleNumber
			processed := receipt.ProcessingDate
			r.ProcessingDate = &processed
			return nil
		}
	}

	if err := s.store.SubmitReturn(ctx, &ret, s.now().UTC(), forward); err != nil {
		return nil, err
	}
	logging.NewLogger(ctx).LogInfo("hmrc.submit_return", "vat return submitted",
		zap.String("vrn", vrn), zap.String("period_key", ret.PeriodKey), zap.Bool("live", s.gateway != nil))
	return &ret, nil
}

func (s *HMRCService) ListReturns(ctx context.Context, userID, vrn string) ([]domain.VATReturn, error) {
	vrn, err := domain.ValidateVRN(vrn)
	if err != nil {
		return nil, err
	}
	return s.store.ListReturns(ctx, userID, vrn)
}

func (s *HMRCService) GetReturn(ctx context.Context, userID, vrn, periodKey string) (*domain.VATReturn, error) {
	vrn, err := domain.ValidateVRN(vrn)
	if err != nil {
		return nil, err
	}
	periodKey, err = domain.ValidatePeriodKey(periodKey)
	if err != nil {
		return nil, err
	}
	return s.store.GetReturn(ctx, userID, vrn, periodKey)
}

// MarkOverdue is the nightly job flipping past-due outstanding obligations.
func (s *HMRCService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.MarkOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.NewLogger(ctx).LogInfo("hmrc.mark_overdue", "obligations marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
