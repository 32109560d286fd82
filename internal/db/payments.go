package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

var ErrPaymentNotFound = errors.New("payment not found")

// Store is the payment journal: every invoice the gateway hands out and how
// it settled.
type Store interface {
	RecordPayment(ctx context.Context, rec *model.PaymentRecord) error
	UpdatePaymentStatus(ctx context.Context, userID int64, provider, payload, status string) error
	ListPayments(ctx context.Context, userID int64) ([]model.PaymentRecord, error)
}

type pgStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db, now: time.Now}
}

// RecordPayment inserts rec. A second record for the same provider and
// payload is ignored.
func (s *pgStore) RecordPayment(ctx context.Context, rec *model.PaymentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = model.PaymentPending
	}
	now := s.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO payments (id, user_id, provider, item_id, payload, status, created_at, updated_at)
		VALUES (:id, :user_id, :provider, :item_id, :payload, :status, :created_at, :updated_at)
		ON CONFLICT (provider, payload) DO NOTHING
		`, rec)
	return err
}

// UpdatePaymentStatus changes the status of a payment owned by userID.
// Rows of other users are never touched and report ErrPaymentNotFound.
func (s *pgStore) UpdatePaymentStatus(ctx context.Context, userID int64, provider, payload, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE provider = $3 AND payload = $4 AND user_id = $5
		`, status, s.now().UTC(), provider, payload, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (s *pgStore) ListPayments(ctx context.Context, userID int64) ([]model.PaymentRecord, error) {
	payments := []model.PaymentRecord{}
	err := s.db.SelectContext(ctx, &payments, `
		SELECT id, user_id, provider, item_id, payload, status, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		`, userID)
	return payments, err
}
