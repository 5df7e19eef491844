// Package db is the Postgres order store. The order document lives in a
// jsonb column with the hot fields broken out for indexing; every write is
// a single statement, so a status change and its audit entries land
// together or not at all.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/order/service"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Connect builds the pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// Create inserts the order, drawing the daily sequence inside the same
// transaction so numbers are unique and strictly increasing in creation
// order even under concurrent creations.
func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	day := domain.DayKey(s.now())
	var daySeq int64
	err = tx.QueryRow(ctx, `
		INSERT INTO order_day_counters (day, last)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last = order_day_counters.last + 1
		RETURNING last
	`, day).Scan(&daySeq)
	if err != nil {
		return fmt.Errorf("failed to advance daily counter: %w", err)
	}

	o.DayKey = day
	o.Number = domain.OrderNumber(day, daySeq)
	o.ShortCode = domain.ShortCode(daySeq)

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, day_key, number, short_code, status, order_type,
			phone, shipper_id, priority_score, created_at, updated_at, data
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING id, seq
	`,
		day, o.Number, o.ShortCode, o.Status, o.Type,
		o.Customer.Phone, nullable(o.Shipper.AssignedTo), o.Priority.Score,
		o.CreatedAt, o.UpdatedAt, data,
	).Scan(&o.ID, &o.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	// Re-encode now that id and seq are known.
	data, err = json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET data = $2 WHERE id = $1`, o.ID, data); err != nil {
		return fmt.Errorf("failed to store order document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get resolves by id, order number or today's shortcode.
func (s *Store) Get(ctx context.Context, key string) (*domain.Order, error) {
	key = strings.TrimSpace(key)
	row := s.pool.QueryRow(ctx, `
		SELECT data FROM orders
		WHERE id::text = $1
		   OR number = upper($1)
		   OR (short_code = upper($1) AND day_key = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, key, domain.DayKey(s.now()))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return decode(data)
}

// Update rewrites the order document and its indexed columns in one
// statement.
func (s *Store) Update(ctx context.Context, o *domain.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET
			status = $2,
			shipper_id = $3,
			priority_score = $4,
			updated_at = $5,
			data = $6
		WHERE id = $1
	`, o.ID, o.Status, nullable(o.Shipper.AssignedTo), o.Priority.Score, o.UpdatedAt, data)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f service.Filter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if len(f.Statuses) > 0 {
		vals := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			vals[i] = string(st)
		}
		add("status = ANY($%d)", vals)
	}
	if f.Type != "" {
		add("order_type = $%d", f.Type)
	}
	if f.ShipperID != "" {
		add("shipper_id = $%d", f.ShipperID)
	}
	if f.Unassigned {
		where = append(where, "shipper_id IS NULL")
	}
	if f.Phone != "" {
		add("phone = $%d", f.Phone)
	}
	if f.ActiveOnly {
		where = append(where, "status NOT IN ('completed', 'cancelled')")
	}

	q := `SELECT data FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY priority_score DESC, created_at ASC, seq ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func decode(data []byte) (*domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to decode order document: %w", err)
	}
	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
