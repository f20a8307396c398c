// README: Registry store backed by PostgreSQL.
package directory

import (
	"context"
	"database/sql"
	"errors"

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

func (s *PostgresStore) GetUser(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, role, class, push_token, lat, lng, active
		FROM users
		WHERE id = $1`, string(id),
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) ShopsByOwner(ctx context.Context, owner types.ID) ([]Shop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, class, lat, lng, active
		FROM shops
		WHERE owner_id = $1`, string(owner),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShops(rows)
}

func (s *PostgresStore) ShopsByIDs(ctx context.Context, ids []types.ID) ([]Shop, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, class, lat, lng, active
		FROM shops
		WHERE id = ANY($1)`, raw,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShops(rows)
}

func (s *PostgresStore) ActiveVendors(ctx context.Context, class Class) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, role, class, push_token, lat, lng, active
		FROM users
		WHERE role = 'vendor' AND class = $1 AND active`, string(class),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PriceOverrides(ctx context.Context, ref types.ID) ([]PriceOverride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT shop_ref, category_id, subcategory_id, price_per_kg
		FROM price_overrides
		WHERE shop_ref = $1`, string(ref),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceOverride
	for rows.Next() {
		var o PriceOverride
		if err := rows.Scan(&o.ShopRef, &o.CategoryID, &o.SubcategoryID, &o.PricePerKg); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var lat, lng sql.NullFloat64
	var token sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Role, &u.Class, &token, &lat, &lng, &u.Active)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		u.PushToken = token.String
	}
	if lat.Valid && lng.Valid {
		u.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &u, nil
}

func scanShops(rows pgx.Rows) ([]Shop, error) {
	var out []Shop
	for rows.Next() {
		var sh Shop
		if err := rows.Scan(&sh.ID, &sh.OwnerID, &sh.Class, &sh.Location.Lat, &sh.Location.Lng, &sh.Active); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}
