package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVATReturnCompute(t *testing.T) {
	r := VATReturn{
		PeriodKey:              "26A1",
		VatDueSales:            1000.50,
		VatDueAcquisitions:     200.25,
		VatReclaimedCurrPeriod: 1500,
		TotalVatDue:            1,
		NetVatDue:              1,
		Finalised:              true,
	}
	require.NoError(t, r.Validate())
	assert.Equal(t, 1200.75, r.TotalVatDue)
	assert.Equal(t, -299.25, r.NetVatDue)
	assert.Equal(t, r.TotalVatDue-r.VatReclaimedCurrPeriod, r.NetVatDue)
}

func TestVATReturnValidate(t *testing.T) {
	assert.ErrorIs(t, (&VATReturn{PeriodKey: "26A1"}).Validate(), ErrInvalidReturn, "not finalised")
	assert.ErrorIs(t, (&VATReturn{PeriodKey: "2026-Q1", Finalised: true}).Validate(), ErrInvalidPeriodKey)
	assert.ErrorIs(t, (&VATReturn{PeriodKey: "26A1", Finalised: true, TotalValueSalesExVAT: 10.5}).Validate(), ErrInvalidReturn)
}

func TestEffectiveStatus(t *testing.T) {
	due := time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC)
	o := Obligation{Due: due}

	assert.Equal(t, StatusOutstanding, o.EffectiveStatus(due.Add(-time.Hour)))
	assert.Equal(t, StatusOutstanding, o.EffectiveStatus(due.Add(23*time.Hour)), "due day is still on time")
	assert.Equal(t, StatusOverdue, o.EffectiveStatus(due.AddDate(0, 0, 1)))

	received := due.AddDate(0, 0, 3)
	o.Received = &received
	assert.Equal(t, StatusFulfilled, o.EffectiveStatus(due.AddDate(0, 1, 0)))
}

func TestValidateVRN(t *testing.T) {
	v, err := ValidateVRN("GB 123 456 789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", v)

	_, err = ValidateVRN("12345")
	assert.ErrorIs(t, err, ErrInvalidVRN)
}

func TestDemoObligations(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := DemoObligations(now)
	require.Len(t, obs, 4)

	assert.Equal(t, "26A1", obs[0].PeriodKey)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), obs[0].End)
	assert.Equal(t, time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC), obs[0].Due)
	assert.Equal(t, StatusOverdue, obs[0].Status)
	assert.Equal(t, StatusOutstanding, obs[1].Status)
}

func TestObligationValidate(t *testing.T) {
	o := Obligation{PeriodKey: "26A1", Start: time.Now(), End: time.Now().AddDate(0, 3, 0), Due: time.Now().AddDate(0, 4, 0)}
	require.NoError(t, o.Validate())
	assert.Equal(t, StatusOutstanding, o.Status)

	o.Status = "late"
	assert.ErrorIs(t, o.Validate(), ErrInvalidObligation)
}
