package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	profiles "github.com/b2bnest/b2bnest-api/internal/profiles/domain"
)

// Resource is a capped per-user collection.
type Resource string

const (
	ResourceCashFlow Resource = "cash_flow"
	ResourceROI      Resource = "roi"
	ResourceSurveys  Resource = "surveys"
)

var freeLimits = map[Resource]int{
	ResourceCashFlow: 50,
	ResourceROI:      10,
	ResourceSurveys:  5,
}

// Limit returns the cap for r on plan and whether the plan is capped at all.
func Limit(plan string, r Resource) (int, bool) {
	if plan != "" && plan != profiles.PlanFree {
		return 0, false
	}
	n, ok := freeLimits[r]
	return n, ok
}

const (
	EntryInflow  = "inflow"
	EntryOutflow = "outflow"
)

type CashFlowEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	EntryDate   time.Time `json:"entry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e *CashFlowEntry) Validate() error {
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	if e.Type != EntryInflow && e.Type != EntryOutflow {
		return fmt.Errorf("%w: type must be inflow or outflow", ErrInvalidInput)
	}
	if e.Amount <= 0 || math.IsInf(e.Amount, 0) || math.IsNaN(e.Amount) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return nil
}

type CashFlowSummary struct {
	TotalInflow  float64 `json:"total_inflow"`
	TotalOutflow float64 `json:"total_outflow"`
	Net          float64 `json:"net"`
	Entries      int     `json:"entries"`
}

func Summarize(entries []CashFlowEntry) CashFlowSummary {
	var s CashFlowSummary
	for _, e := range entries {
		switch e.Type {
		case EntryInflow:
			s.TotalInflow += e.Amount
		case EntryOutflow:
			s.TotalOutflow += e.Amount
		}
	}
	s.TotalInflow = round2(s.TotalInflow)
	s.TotalOutflow = round2(s.TotalOutflow)
	s.Net = round2(s.TotalInflow - s.TotalOutflow)
	s.Entries = len(entries)
	return s
}

type ROICalculation struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	InitialInvestment float64   `json:"initial_investment"`
	TotalReturns      float64   `json:"total_returns"`
	TimePeriodMonths  int       `json:"time_period_months,omitempty"`
	ROI               float64   `json:"roi_percentage"`
	NetProfit         float64   `json:"net_profit"`
	AnnualizedROI     *float64  `json:"annualized_roi,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CalculateROI returns (returns - investment) / investment * 100 rounded to two decimals.
func CalculateROI(investment, returns float64) (float64, error) {
	if investment <= 0 || math.IsNaN(investment) || math.IsInf(investment, 0) {
		return 0, fmt.Errorf("%w: initial investment must be greater than zero", ErrInvalidInput)
	}
	if math.IsNaN(returns) || math.IsInf(returns, 0) {
		return 0, fmt.Errorf("%w: total returns must be a number", ErrInvalidInput)
	}
	return round2((returns - investment) / investment * 100), nil
}

// Compute fills the derived fields of c.
func (c *ROICalculation) Compute() error {
	roi, err := CalculateROI(c.InitialInvestment, c.TotalReturns)
	if err != nil {
		return err
	}
	if c.TimePeriodMonths < 0 {
		return fmt.Errorf("%w: time period cannot be negative", ErrInvalidInput)
	}
	c.ROI = roi
	c.NetProfit = round2(c.TotalReturns - c.InitialInvestment)
	c.AnnualizedROI = nil
	if c.TimePeriodMonths > 0 && c.TotalReturns > 0 {
		years := float64(c.TimePeriodMonths) / 12
		a := round2((math.Pow(c.TotalReturns/c.InitialInvestment, 1/years) - 1) * 100)
		c.AnnualizedROI = &a
	}
	return nil
}

const (
	SurveyDraft     = "draft"
	SurveyPublished = "published"
)

func ValidSurveyStatus(s string) bool {
	return s == SurveyDraft || s == SurveyPublished
}

type Survey struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Questions   json.RawMessage `json:"questions"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *Survey) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if s.Status == "" {
		s.Status = SurveyDraft
	}
	if !ValidSurveyStatus(s.Status) {
		return ErrInvalidStatus
	}
	if len(s.Questions) == 0 {
		s.Questions = json.RawMessage("[]")
	}
	var qs []json.RawMessage
	if err := json.Unmarshal(s.Questions, &qs); err != nil {
		return fmt.Errorf("%w: questions must be an array", ErrInvalidInput)
	}
	return nil
}

// ResourceUsage is the used count of one capped collection. Limit is nil when uncapped.
type ResourceUsage struct {
	Used  int  `json:"used"`
	Limit *int `json:"limit"`
}

type Usage struct {
	Plan      string                     `json:"plan"`
	Resources map[Resource]ResourceUsage `json:"resources"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
