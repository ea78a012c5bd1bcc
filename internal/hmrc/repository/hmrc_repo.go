package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/b2bnest/b2bnest-api/internal/hmrc/domain"
	"github.com/b2bnest/b2bnest-api/internal/storage/postgres"
)

const obligationColumns = `id, user_id, vrn, period_key, start_date, end_date, due_date, status, received_at, created_at, updated_at`

const returnColumns = `
	id, user_id, vrn, period_key, vat_due_sales, vat_due_acquisitions, total_vat_due,
	vat_reclaimed_curr_period, net_vat_due, total_value_sales_ex_vat, total_value_purchases_ex_vat,
	total_value_goods_supplied_ex_vat, total_acquisitions_ex_vat, finalised,
	COALESCE(form_bundle_number, ''), processing_date, submitted_at
`

// HMRCRepository handles PostgreSQL operations for VAT obligations and returns
type HMRCRepository struct {
	db *sql.DB
}

func NewHMRCRepository(db *sql.DB) *HMRCRepository {
	return &HMRCRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObligation(s scanner) (*domain.Obligation, error) {
	var o domain.Obligation
	var received sql.NullTime
	if err := s.Scan(&o.ID, &o.UserID, &o.VRN, &o.PeriodKey, &o.Start, &o.End, &o.Due,
		&o.Status, &received, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if received.Valid {
		o.Received = &received.Time
	}
	return &o, nil
}

func scanReturn(s scanner) (*domain.VATReturn, error) {
	var r domain.VATReturn
	var processed sql.NullTime
	if err := s.Scan(&r.ID, &r.UserID, &r.VRN, &r.PeriodKey, &r.VatDueSales, &r.VatDueAcquisitions,
		&r.TotalVatDue, &r.VatReclaimedCurrPeriod, &r.NetVatDue, &r.TotalValueSalesExVAT,
		&r.TotalValuePurchasesExVAT, &r.TotalValueGoodsSuppliedExVAT, &r.TotalAcquisitionsExVAT,
		&r.Finalised, &r.FormBundleNumber, &processed, &r.SubmittedAt); err != nil {
		return nil, err
	}
	if processed.Valid {
		r.ProcessingDate = &processed.Time
	}
	return &r, nil
}

// UpsertObligation inserts o or refreshes its dates and status. A received date once
// stored is never cleared, so a fulfilled obligation stays fulfilled.
func (r *HMRCRepository) UpsertObligation(ctx context.Context, o *domain.Obligation) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hmrc_obligations (id, user_id, vrn, period_key, start_date, end_date, due_date, status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, vrn, period_key) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			due_date = EXCLUDED.due_date,
			received_at = COALESCE(hmrc_obligations.received_at, EXCLUDED.received_at),
			status = CASE
				WHEN COALESCE(hmrc_obligations.received_at, EXCLUDED.received_at) IS NOT NULL THEN 'fulfilled'
				ELSE EXCLUDED.status
			END,
			updated_at = NOW()
		RETURNING ` + obligationColumns

	row := r.db.QueryRowContext(ctx, query, o.ID, o.UserID, o.VRN, o.PeriodKey, o.Start, o.End, o.Due, o.Status, o.Received)
	stored, err := scanObligation(row)
	if err != nil {
		return fmt.Errorf("failed to upsert obligation: %w", err)
	}
	*o = *stored
	return nil
}

// ListObligations returns the obligations whose period overlaps [from, to].
func (r *HMRCRepository) ListObligations(ctx context.Context, userID, vrn string, from, to time.Time) ([]domain.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM hmrc_obligations
		WHERE user_id = $1 AND vrn = $2 AND end_date >= $3 AND start_date <= $4
		ORDER BY start_date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, vrn, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	out := []domain.Obligation{}
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// SubmitReturn stores ret and marks its obligation fulfilled in one transaction. The
// obligation row stays locked while forward runs, so one period is submitted once.
// forward may be nil.
func (r *HMRCRepository) SubmitReturn(ctx context.Context, ret *domain.VATReturn, now time.Time, forward func(ctx context.Context, ret *domain.VATReturn) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var obligationID, status string
	var received sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, received_at
		FROM hmrc_obligations
		WHERE user_id = $1 AND vrn = $2 AND period_key = $3
		FOR UPDATE
	`, ret.UserID, ret.VRN, ret.PeriodKey).Scan(&obligationID, &status, &received)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNoOpenObligation
	}
	if err != nil {
		return fmt.Errorf("failed to lock obligation: %w", err)
	}
	if status == domain.StatusFulfilled || received.Valid {
		return domain.ErrAlreadySubmitted
	}

	if forward != nil {
		if err := forward(ctx, ret); err != nil {
			return err
		}
	}

	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}
	ret.SubmittedAt = now

	query := `
		INSERT INTO vat_returns (
			id, user_id, vrn, period_key, vat_due_sales, vat_due_acquisitions, total_vat_due,
			vat_reclaimed_curr_period, net_vat_due, total_value_sales_ex_vat, total_value_purchases_ex_vat,
			total_value_goods_supplied_ex_vat, total_acquisitions_ex_vat, finalised,
			form_bundle_number, processing_date, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), $16, $17)
	`
	_, err = tx.ExecContext(ctx, query,
		ret.ID, ret.UserID, ret.VRN, ret.PeriodKey, ret.VatDueSales, ret.VatDueAcquisitions, ret.TotalVatDue,
		ret.VatReclaimedCurrPeriod, ret.NetVatDue, ret.TotalValueSalesExVAT, ret.TotalValuePurchasesExVAT,
		ret.TotalValueGoodsSuppliedExVAT, ret.TotalAcquisitionsExVAT, ret.Finalised,
		ret.FormBundleNumber, ret.ProcessingDate, ret.SubmittedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return domain.ErrAlreadySubmitted
	}
	if err != nil {
		return fmt.Errorf("failed to insert vat return: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE hmrc_obligations
		SET status = $1, received_at = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.StatusFulfilled, now, obligationID); err != nil {
		return fmt.Errorf("failed to fulfil obligation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (r *HMRCRepository) ListReturns(ctx context.Context, userID, vrn string) ([]domain.VATReturn, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM vat_returns
		WHERE user_id = $1 AND vrn = $2
		ORDER BY submitted_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, vrn)
	if err != nil {
		return nil, fmt.Errorf("failed to list vat returns: %w", err)
	}
	defer rows.Close()

	out := []domain.VATReturn{}
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vat return: %w", err)
		}
		out = append(out, *ret)
	}
	return out, rows.Err()
}

func (r *HMRCRepository) GetReturn(ctx context.Context, userID, vrn, periodKey string) (*domain.VATReturn, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM vat_returns
		WHERE user_id = $1 AND vrn = $2 AND period_key = $3
	`
	ret, err := scanReturn(r.db.QueryRowContext(ctx, query, userID, vrn, periodKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReturnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vat return: %w", err)
	}
	return ret, nil
}

// MarkOverdue flips outstanding obligations due before today to overdue and returns how
// many rows changed.
func (r *HMRCRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	query := `
		UPDATE hmrc_obligations
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND received_at IS NULL AND due_date < $3
	`
	res, err := r.db.ExecContext(ctx, query, domain.StatusOverdue, domain.StatusOutstanding, today)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue obligations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
