package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Obligation statuses.
const (
	StatusOutstanding = "outstanding"
	StatusFulfilled   = "fulfilled"
	StatusOverdue     = "overdue"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusOutstanding, StatusFulfilled, StatusOverdue:
		return true
	}
	return false
}

var (
	vrnPattern       = regexp.MustCompile(`^[0-9]{9}$`)
	periodKeyPattern = regexp.MustCompile(`^[A-Za-z0-9#]{4}$`)
)

func ValidateVRN(vrn string) (string, error) {
	vrn = strings.ReplaceAll(strings.TrimSpace(strings.ToUpper(vrn)), " ", "")
	vrn = strings.TrimPrefix(vrn, "GB")
	if !vrnPattern.MatchString(vrn) {
		return "", ErrInvalidVRN
	}
	return vrn, nil
}

func ValidatePeriodKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if !periodKeyPattern.MatchString(key) {
		return "", ErrInvalidPeriodKey
	}
	return key, nil
}

type Obligation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	VRN       string     `json:"vrn"`
	PeriodKey string     `json:"period_key"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Due       time.Time  `json:"due"`
	Status    string     `json:"status"`
	Received  *time.Time `json:"received,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EffectiveStatus is fulfilled once received, overdue after the due date, otherwise
// outstanding. The due date itself is still on time.
func (o Obligation) EffectiveStatus(now time.Time) string {
	if o.Received != nil {
		return StatusFulfilled
	}
	dueEnd := time.Date(o.Due.Year(), o.Due.Month(), o.Due.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !now.Before(dueEnd) {
		return StatusOverdue
	}
	return StatusOutstanding
}

func (o *Obligation) Validate() error {
	key, err := ValidatePeriodKey(o.PeriodKey)
	if err != nil {
		return err
	}
	o.PeriodKey = key
	if o.Start.IsZero() || o.End.IsZero() || o.Due.IsZero() {
		return fmt.Errorf("%w: start, end and due dates are required", ErrInvalidObligation)
	}
	if o.End.Before(o.Start) {
		return fmt.Errorf("%w: end is before start", ErrInvalidObligation)
	}
	if o.Status == "" {
		o.Status = StatusOutstanding
	}
	if !ValidStatus(o.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidObligation, o.Status)
	}
	return nil
}

// VATReturn holds the nine MTD VAT boxes.
type VATReturn struct {
	ID                           string     `json:"id"`
	UserID                       string     `json:"user_id"`
	VRN                          string     `json:"vrn"`
	PeriodKey                    string     `json:"periodKey"`
	VatDueSales                  float64    `json:"vatDueSales"`
	VatDueAcquisitions           float64    `json:"vatDueAcquisitions"`
	TotalVatDue                  float64    `json:"totalVatDue"`
	VatReclaimedCurrPeriod       float64    `json:"vatReclaimedCurrPeriod"`
	NetVatDue                    float64    `json:"netVatDue"`
	TotalValueSalesExVAT         float64    `json:"totalValueSalesExVAT"`
	TotalValuePurchasesExVAT     float64    `json:"totalValuePurchasesExVAT"`
	TotalValueGoodsSuppliedExVAT float64    `json:"totalValueGoodsSuppliedExVAT"`
	TotalAcquisitionsExVAT       float64    `json:"totalAcquisitionsExVAT"`
	Finalised                    bool       `json:"finalised"`
	FormBundleNumber             string     `json:"formBundleNumber,omitempty"`
	ProcessingDate               *time.Time `json:"processingDate,omitempty"`
	SubmittedAt                  time.Time  `json:"submittedAt"`
}

// Compute derives box 3 and box 5 from the other boxes, discarding any supplied totals.
func (r *VATReturn) Compute() {
	r.VatDueSales = round2(r.VatDueSales)
	r.VatDueAcquisitions = round2(r.VatDueAcquisitions)
	r.VatReclaimedCurrPeriod = round2(r.VatReclaimedCurrPeriod)
	r.TotalVatDue = round2(r.VatDueSales + r.VatDueAcquisitions)
	r.NetVatDue = round2(r.TotalVatDue - r.VatReclaimedCurrPeriod)
}

func (r *VATReturn) Validate() error {
	key, err := ValidatePeriodKey(r.PeriodKey)
	if err != nil {
		return err
	}
	r.PeriodKey = key
	if !r.Finalised {
		return fmt.Errorf("%w: the return must be finalised before submission", ErrInvalidReturn)
	}
	for name, v := range map[string]float64{
		"vatDueSales":                  r.VatDueSales,
		"vatDueAcquisitions":           r.VatDueAcquisitions,
		"vatReclaimedCurrPeriod":       r.VatReclaimedCurrPeriod,
		"totalValueSalesExVAT":         r.TotalValueSalesExVAT,
		"totalValuePurchasesExVAT":     r.TotalValuePurchasesExVAT,
		"totalValueGoodsSuppliedExVAT": r.TotalValueGoodsSuppliedExVAT,
		"totalAcquisitionsExVAT":       r.TotalAcquisitionsExVAT,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidReturn, name)
		}
		if math.Abs(v) >= 1e13 {
			return fmt.Errorf("%w: %s is out of range", ErrInvalidReturn, name)
		}
	}
	for name, v := range map[string]float64{
		"totalValueSalesExVAT":         r.TotalValueSalesExVAT,
		"totalValuePurchasesExVAT":     r.TotalValuePurchasesExVAT,
		"totalValueGoodsSuppliedExVAT": r.TotalValueGoodsSuppliedExVAT,
		"totalAcquisitionsExVAT":       r.TotalAcquisitionsExVAT,
	} {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: %s must be whole pounds", ErrInvalidReturn, name)
		}
	}
	r.Compute()
	return nil
}

// Receipt is HMRC's acknowledgement of a submitted return.
type Receipt struct {
	ProcessingDate   time.Time `json:"processingDate"`
	FormBundleNumber string    `json:"formBundleNumber"`
	PaymentIndicator string    `json:"paymentIndicator,omitempty"`
	ChargeRefNumber  string    `json:"chargeRefNumber,omitempty"`
}

// DemoObligations returns the four quarterly obligations of the year containing now,
// served when no live HMRC connection is configured. Each is due one month and seven days
// after its quarter ends.
func DemoObligations(now time.Time) []Obligation {
	year := now.Year()
	out := make([]Obligation, 0, 4)
	for q := 0; q < 4; q++ {
		start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		next := start.AddDate(0, 3, 0)
		o := Obligation{
			PeriodKey: fmt.Sprintf("%02dA%d", year%100, q+1),
			Start:     start,
			End:       next.AddDate(0, 0, -1),
			Due:       next.AddDate(0, 1, 6),
		}
		o.Status = o.EffectiveStatus(now)
		out = append(out, o)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
