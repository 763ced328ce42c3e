package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentInput is the input for creating or updating a toll payment.
type PaymentInput struct {
	PaidOn      string // YYYY-MM-DD
	VehicleType VehicleType
	RouteID     *int
	StationID   *int
	Amount      decimal.Decimal
	Currency    string
	ReceiptRef  *string
}

// PaymentFilter narrows ListPayments. Zero values mean "no filter".
type PaymentFilter struct {
	FromDate    string // YYYY-MM-DD, inclusive
	ToDate      string // YYYY-MM-DD, inclusive
	RouteID     *int
	StationID   *int
	VehicleType *VehicleType
	Status      *PaymentStatus
}

// TollPaymentService manages the toll payment ledger and its status
// workflow. Status transitions lock the payment row so two concurrent
// writers cannot double-transition it. Posting assigns a gapless receipt
// number inside the same transaction.
//
// hasPostingAuthority on Update/Delete is the caller-supplied
// authorization fact; the service only enforces that POSTED payments
// demand it.
type TollPaymentService interface {
	CreatePayment(ctx context.Context, in PaymentInput) (*TollPayment, error)
	GetPayment(ctx context.Context, id int) (*TollPayment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]TollPayment, error)
	UpdatePayment(ctx context.Context, id int, in PaymentInput, hasPostingAuthority bool) (*TollPayment, error)
	DeletePayment(ctx context.Context, id int, hasPostingAuthority bool) error

	// SubmitPayment transitions DRAFT -> SUBMITTED.
	SubmitPayment(ctx context.Context, id int) (*TollPayment, error)
	// ApprovePayment transitions SUBMITTED -> APPROVED.
	ApprovePayment(ctx context.Context, id int) (*TollPayment, error)
	// PostPayment transitions APPROVED -> POSTED, or DRAFT -> POSTED on the
	// fast path, and assigns the receipt number.
	PostPayment(ctx context.Context, id int) (*TollPayment, error)
}

type paymentService struct {
	pool *pgxpool.Pool
}

// NewTollPaymentService constructs a TollPaymentService backed by the pool.
func NewTollPaymentService(pool *pgxpool.Pool) TollPaymentService {
	return &paymentService{pool: pool}
}

func (in PaymentInput) validate() error {
	if _, err := time.Parse(dateLayout, in.PaidOn); err != nil {
		return fmt.Errorf("invalid payment date %q: %w", in.PaidOn, ErrInvalidInput)
	}
	if !in.VehicleType.Valid() {
		return fmt.Errorf("unknown vehicle type %q: %w", in.VehicleType, ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be > 0, got %s: %w", in.Amount, ErrInvalidInput)
	}
	if in.Currency == "" {
		return fmt.Errorf("payment currency is required: %w", ErrInvalidInput)
	}
	return nil
}

func (s *paymentService) checkReferences(ctx context.Context, q pgxQuerier, in PaymentInput) error {
	if in.RouteID != nil {
		var ok bool
		if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM routes WHERE id = $1)", *in.RouteID).Scan(&ok); err != nil {
			return fmt.Errorf("failed to check route %d: %w", *in.RouteID, err)
		}
		if !ok {
			return fmt.Errorf("route %d: %w", *in.RouteID, ErrNotFound)
		}
	}
	if in.StationID != nil {
		var ok bool
		if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM toll_stations WHERE id = $1)", *in.StationID).Scan(&ok); err != nil {
			return fmt.Errorf("failed to check toll station %d: %w", *in.StationID, err)
		}
		if !ok {
			return fmt.Errorf("toll station %d: %w", *in.StationID, ErrNotFound)
		}
	}
	return nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling
// shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const paymentColumns = `
	tp.id, tp.paid_on::text, tp.vehicle_type, tp.route_id, tp.station_id,
	COALESCE(ts.name, ''), tp.amount, tp.currency, tp.receipt_ref, tp.receipt_number,
	tp.status, tp.created_at, tp.submitted_at, tp.approved_at, tp.posted_at
`

func scanPayment(row pgx.Row) (*TollPayment, error) {
	var p TollPayment
	err := row.Scan(
		&p.ID, &p.PaidOn, &p.VehicleType, &p.RouteID, &p.StationID,
		&p.StationName, &p.Amount, &p.Currency, &p.ReceiptRef, &p.ReceiptNumber,
		&p.Status, &p.CreatedAt, &p.SubmittedAt, &p.ApprovedAt, &p.PostedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, in PaymentInput) (*TollPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, s.pool, in); err != nil {
		return nil, err
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO toll_payments (paid_on, vehicle_type, route_id, station_id, amount, currency, receipt_ref, status)
		VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, in.PaidOn, string(in.VehicleType), in.RouteID, in.StationID, in.Amount, in.Currency, in.ReceiptRef, string(StatusDraft)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create toll payment: %w", err)
	}
	return s.GetPayment(ctx, id)
}

func (s *paymentService) GetPayment(ctx context.Context, id int) (*TollPayment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM toll_payments tp
		LEFT JOIN toll_stations ts ON ts.id = tp.station_id
		WHERE tp.id = $1
	`, id)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("toll payment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch toll payment %d: %w", id, err)
	}
	return p, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter PaymentFilter) ([]TollPayment, error) {
	q := `
		SELECT ` + paymentColumns + `
		FROM toll_payments tp
		LEFT JOIN toll_stations ts ON ts.id = tp.station_id
		WHERE 1=1
	`
	var args []any
	add := func(clause string, val any) {
		args = append(args, val)
		q += fmt.Sprintf(clause, len(args))
	}

	if filter.FromDate != "" {
		add(" AND tp.paid_on >= $%d::date", filter.FromDate)
	}
	if filter.ToDate != "" {
		add(" AND tp.paid_on <= $%d::date", filter.ToDate)
	}
	if filter.RouteID != nil {
		add(" AND tp.route_id = $%d", *filter.RouteID)
	}
	if filter.StationID != nil {
		add(" AND tp.station_id = $%d", *filter.StationID)
	}
	if filter.VehicleType != nil {
		add(" AND tp.vehicle_type = $%d", string(*filter.VehicleType))
	}
	if filter.Status != nil {
		add(" AND tp.status = $%d", string(*filter.Status))
	}
	q += " ORDER BY tp.paid_on, tp.id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query toll payments: %w", err)
	}
	defer rows.Close()

	var payments []TollPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan toll payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *paymentService) UpdatePayment(ctx context.Context, id int, in PaymentInput, hasPostingAuthority bool) (*TollPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockPaymentStatus(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if status == StatusPosted && !hasPostingAuthority {
		return nil, fmt.Errorf("toll payment %d is posted and can only be changed with posting authority: %w", id, ErrForbidden)
	}

	if err := s.checkReferences(ctx, tx, in); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE toll_payments
		SET paid_on = $2::date, vehicle_type = $3, route_id = $4, station_id = $5,
		    amount = $6, currency = $7, receipt_ref = $8
		WHERE id = $1
	`, id, in.PaidOn, string(in.VehicleType), in.RouteID, in.StationID, in.Amount, in.Currency, in.ReceiptRef)
	if err != nil {
		return nil, fmt.Errorf("failed to update toll payment %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment update: %w", err)
	}
	return s.GetPayment(ctx, id)
}

func (s *paymentService) DeletePayment(ctx context.Context, id int, hasPostingAuthority bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockPaymentStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if status == StatusPosted && !hasPostingAuthority {
		return fmt.Errorf("toll payment %d is posted and can only be deleted with posting authority: %w", id, ErrForbidden)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM toll_payments WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete toll payment %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

// --- Status workflow ---

func (s *paymentService) SubmitPayment(ctx context.Context, id int) (*TollPayment, error) {
	return s.transition(ctx, id, StatusSubmitted, "submitted_at")
}

func (s *paymentService) ApprovePayment(ctx context.Context, id int) (*TollPayment, error) {
	return s.transition(ctx, id, StatusApproved, "approved_at")
}

func (s *paymentService) PostPayment(ctx context.Context, id int) (*TollPayment, error) {
	return s.transition(ctx, id, StatusPosted, "posted_at")
}

// transition moves a payment to the target status under a row lock.
// stampColumn is the timestamp column recording the transition; it is one
// of three fixed names, never user input.
func (s *paymentService) transition(ctx context.Context, id int, to PaymentStatus, stampColumn string) (*TollPayment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	from, err := lockPaymentStatus(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("toll payment %d cannot move %s -> %s: %w", id, from, to, ErrInvalidTransition)
	}

	if to == StatusPosted {
		number, err := nextReceiptNumberTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx,
			"UPDATE toll_payments SET status = $1, receipt_number = $2, posted_at = NOW() WHERE id = $3",
			string(to), number, id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to post toll payment %d: %w", id, err)
		}
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE toll_payments SET status = $1, "+stampColumn+" = NOW() WHERE id = $2",
			string(to), id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to transition toll payment %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment transition: %w", err)
	}
	return s.GetPayment(ctx, id)
}

func lockPaymentStatus(ctx context.Context, tx pgx.Tx, id int) (PaymentStatus, error) {
	var status PaymentStatus
	err := tx.QueryRow(ctx, "SELECT status FROM toll_payments WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("toll payment %d: %w", id, ErrNotFound)
		}
		return "", fmt.Errorf("failed to lock toll payment %d: %w", id, err)
	}
	return status, nil
}

// nextReceiptNumberTx draws the next gapless receipt number for the
// payment's year. The upsert both seeds and advances the per-year
// counter; running it inside the posting transaction makes the number
// assignment atomic with the status change.
func nextReceiptNumberTx(ctx context.Context, tx pgx.Tx, paymentID int) (string, error) {
	var year int
	err := tx.QueryRow(ctx,
		"SELECT EXTRACT(YEAR FROM paid_on)::int FROM toll_payments WHERE id = $1", paymentID,
	).Scan(&year)
	if err != nil {
		return "", fmt.Errorf("failed to read payment year: %w", err)
	}

	var lastNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO payment_sequences (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_number = payment_sequences.last_number + 1
		RETURNING last_number
	`, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate receipt sequence number: %w", err)
	}

	return fmt.Sprintf("TP-%d-%05d", year, lastNumber), nil
}
