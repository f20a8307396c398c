// README: Order store backed by PostgreSQL; claims are conditional UPDATEs.
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scrapmate/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const orderColumns = `
	id, number, customer_id, items, address, lat, lng,
	estimated_weight_kg, estimated_amount, currency, actual_amount,
	images, time_window, status, status_version, assigned_ref,
	notified_vendor_ids, cancellations,
	created_at, accepted_at, pickup_started_at, arrived_at, completed_at`

func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	cancellations, err := json.Marshal(o.Cancellations)
	if err != nil {
		return err
	}
	var lat, lng *float64
	if o.Location != nil {
		lat, lng = &o.Location.Lat, &o.Location.Lng
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (
			id, number, customer_id, items, address, lat, lng,
			estimated_weight_kg, estimated_amount, currency, actual_amount,
			images, time_window, status, status_version, assigned_ref,
			notified_vendor_ids, cancellations, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, NULL,
			$11, $12, $13, $14, $15,
			$16, $17, $18
		)`,
		string(o.ID), o.Number, string(o.CustomerID), items, o.Address, lat, lng,
		o.EstimatedWeightKg, o.EstimatedAmount.Amount, o.EstimatedAmount.Currency,
		o.Images, o.TimeWindow, string(o.Status), o.StatusVersion, refPtr(o.AssignedRef),
		idsToStrings(o.NotifiedVendorIDs), cancellations, o.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *PostgresStore) MaxNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM orders`).Scan(&n)
	return n, err
}

func (s *PostgresStore) Claim(ctx context.Context, w ClaimWrite) (bool, error) {
	items, err := json.Marshal(w.Items)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = 'accepted',
		    assigned_ref = $2,
		    items = $3,
		    estimated_amount = $4,
		    accepted_at = $5,
		    status_version = status_version + 1
		WHERE id = $1
		  AND status = 'scheduled'
		  AND assigned_ref IS NOT DISTINCT FROM $6`,
		string(w.OrderID), string(w.Ref), items, w.EstimatedAmount.Amount, w.At, refPtr(w.ExpectedRef),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, to Status, version int, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    status_version = status_version + 1,
		    pickup_started_at = CASE WHEN $2 = 'pickup_initiated' THEN $3 ELSE pickup_started_at END,
		    arrived_at = CASE WHEN $2 = 'arrived' THEN $3 ELSE arrived_at END
		WHERE id = $1 AND status_version = $4`,
		string(id), string(to), at, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Complete(ctx context.Context, w CompleteWrite) (bool, error) {
	items, err := json.Marshal(w.Items)
	if err != nil {
		return false, err
	}
	var actual *int64
	if w.ActualAmount != nil {
		actual = &w.ActualAmount.Amount
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = 'completed',
		    items = $2,
		    actual_amount = $3,
		    completed_at = $4,
		    status_version = status_version + 1
		WHERE id = $1 AND status_version = $5`,
		string(w.OrderID), items, actual, w.At, w.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) AppendCancellation(ctx context.Context, w CancelWrite) (bool, error) {
	entry, err := json.Marshal(w.Cancellation)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET cancellations = cancellations || $2::jsonb,
		    notified_vendor_ids = $3,
		    status_version = status_version + 1
		WHERE id = $1 AND status_version = $4`,
		string(w.OrderID), entry, idsToStrings(w.Notified), w.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = ANY($1)`,
		statusesToStrings(statuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresStore) ListByAssignee(ctx context.Context, refs []types.ID, statuses ...Status) ([]*Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE assigned_ref = ANY($1) AND status = ANY($2)`,
		idsToStrings(refs), statusesToStrings(statuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var items, cancellations []byte
	var lat, lng sql.NullFloat64
	var actualAmount sql.NullInt64
	var assignedRef sql.NullString
	var notified []string
	var acceptedAt, pickupStartedAt, arrivedAt, completedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &items, &o.Address, &lat, &lng,
		&o.EstimatedWeightKg, &o.EstimatedAmount.Amount, &o.EstimatedAmount.Currency, &actualAmount,
		&o.Images, &o.TimeWindow, &o.Status, &o.StatusVersion, &assignedRef,
		&notified, &cancellations,
		&o.CreatedAt, &acceptedAt, &pickupStartedAt, &arrivedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if len(cancellations) > 0 {
		if err := json.Unmarshal(cancellations, &o.Cancellations); err != nil {
			return nil, err
		}
	}
	if lat.Valid && lng.Valid {
		o.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if actualAmount.Valid {
		m := types.Money{Amount: actualAmount.Int64, Currency: o.EstimatedAmount.Currency}
		o.ActualAmount = &m
	}
	if assignedRef.Valid {
		ref := types.ID(assignedRef.String)
		o.AssignedRef = &ref
	}
	o.NotifiedVendorIDs = make([]types.ID, len(notified))
	for i, v := range notified {
		o.NotifiedVendorIDs[i] = types.ID(v)
	}
	o.AcceptedAt = timePtr(acceptedAt)
	o.PickupStartedAt = timePtr(pickupStartedAt)
	o.ArrivedAt = timePtr(arrivedAt)
	o.CompletedAt = timePtr(completedAt)
	return &o, nil
}

func refPtr(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func idsToStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func statusesToStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
