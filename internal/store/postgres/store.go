package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"table-order/internal/aggregate"
	"table-order/internal/models"
	"table-order/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

const sessionColumns = `id, shop_id, table_number, status, total_amount, created_at, updated_at, paid_at`

func scanSession(row pgx.Row) (models.Session, error) {
	var (
		sess   models.Session
		status string
	)
	if err := row.Scan(&sess.ID, &sess.ShopID, &sess.TableNumber, &status,
		&sess.TotalAmount, &sess.CreatedAt, &sess.UpdatedAt, &sess.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	st, err := models.ParseSessionStatus(status)
	if err != nil {
		return models.Session{}, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	sess.Status = st
	return sess, nil
}

func (s *Store) ListMenu(ctx context.Context, shopID string, activeOnly bool) ([]models.MenuItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, shop_id, menu_number, name, price, is_active
		FROM menu_items
		WHERE shop_id = $1 AND (is_active OR NOT $2)
		ORDER BY menu_number`, shopID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer rows.Close()

	items := make([]models.MenuItem, 0)
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.ShopID, &it.MenuNumber, &it.Name, &it.Price, &it.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) PutMenuItem(ctx context.Context, item models.MenuItem) error {
	if item.ShopID == "" || item.MenuNumber <= 0 {
		return fmt.Errorf("%w: menu item needs shopId and a positive menuNumber", models.ErrInvalidInput)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO menu_items (id, shop_id, menu_number, name, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shop_id, menu_number) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			is_active = EXCLUDED.is_active`,
		item.ID, item.ShopID, item.MenuNumber, item.Name, item.Price, item.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert menu item %d: %w", item.MenuNumber, err)
	}
	return nil
}

func (s *Store) StartSession(ctx context.Context, shopID string, tableNumber int, decide store.StartFunc) (models.Session, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// a fresh row means the table was never used
	var fresh bool
	err = tx.QueryRow(ctx, `
		INSERT INTO table_bindings (shop_id, table_number, is_occupied, updated_at)
		VALUES ($1, $2, FALSE, now())
		ON CONFLICT DO NOTHING
		RETURNING TRUE`, shopID, tableNumber).Scan(&fresh)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, false, fmt.Errorf("failed to ensure table binding: %w", err)
	}

	var (
		b         models.TableBinding
		currentID *string
	)
	if err := tx.QueryRow(ctx, `
		SELECT shop_id, table_number, current_session_id, is_occupied, updated_at
		FROM table_bindings
		WHERE shop_id = $1 AND table_number = $2
		FOR UPDATE`, shopID, tableNumber).Scan(&b.ShopID, &b.TableNumber, &currentID, &b.IsOccupied, &b.UpdatedAt); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to lock table binding: %w", err)
	}

	var binding *models.TableBinding
	if !fresh {
		binding = &b
	}
	var current *models.Session
	if currentID != nil && *currentID != "" {
		b.CurrentSessionID = *currentID
		sess, err := scanSession(tx.QueryRow(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, *currentID))
		if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
			return models.Session{}, false, err
		}
		if err == nil {
			current = &sess
		}
	}

	next, err := decide(binding, current)
	if err != nil {
		return models.Session{}, false, err
	}
	if next == nil {
		if current == nil {
			return models.Session{}, false, errors.New("start decision reused a table without a session")
		}
		return *current, false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions (id, shop_id, table_number, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		next.ID, next.ShopID, next.TableNumber, next.Status.String(), next.TotalAmount, next.CreatedAt, next.UpdatedAt); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to insert session: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE table_bindings
		SET current_session_id = $3, is_occupied = TRUE, updated_at = $4
		WHERE shop_id = $1 AND table_number = $2`,
		shopID, tableNumber, next.ID, next.CreatedAt); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to repoint table binding: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return *next, true, nil
}

func (s *Store) GetTable(ctx context.Context, shopID string, tableNumber int) (models.TableBinding, bool, error) {
	var (
		b         models.TableBinding
		currentID *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT shop_id, table_number, current_session_id, is_occupied, updated_at
		FROM table_bindings
		WHERE shop_id = $1 AND table_number = $2`, shopID, tableNumber).
		Scan(&b.ShopID, &b.TableNumber, &currentID, &b.IsOccupied, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TableBinding{}, false, nil
	}
	if err != nil {
		return models.TableBinding{}, false, err
	}
	if currentID != nil {
		b.CurrentSessionID = *currentID
	}
	return b, true, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (models.Session, error) {
	return scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

func (s *Store) AppendOrder(ctx context.Context, order models.Order) (models.Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1 FOR UPDATE`, order.SessionID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to lock session: %w", err)
	}
	if status != models.SessionActive.String() {
		return models.Session{}, models.ErrSessionClosed
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, session_id, shop_id, table_number, items, sub_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.SessionID, order.ShopID, order.TableNumber, toInt32(order.Items), order.SubTotal, order.CreatedAt); err != nil {
		return models.Session{}, fmt.Errorf("failed to insert order: %w", err)
	}

	sess, err := scanSession(tx.QueryRow(ctx, `
		UPDATE sessions
		SET total_amount = total_amount + $2, updated_at = $3
		WHERE id = $1
		RETURNING `+sessionColumns, order.SessionID, order.SubTotal, order.CreatedAt))
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to increment session total: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Session{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sess, nil
}

func (s *Store) ListOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	return listOrders(ctx, s.pool, sessionID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listOrders(ctx context.Context, q querier, sessionID string) ([]models.Order, error) {
	rows, err := q.Query(ctx, `
		SELECT id, session_id, shop_id, table_number, items, sub_total, created_at
		FROM orders
		WHERE session_id = $1
		ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			o     models.Order
			items []int32
		)
		if err := rows.Scan(&o.ID, &o.SessionID, &o.ShopID, &o.TableNumber, &items, &o.SubTotal, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = fromInt32(items)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) SettleSession(ctx context.Context, sessionID string, now time.Time) (models.Session, []models.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sess, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, sessionID))
	if err != nil {
		return models.Session{}, nil, err
	}

	orders, err := listOrders(ctx, tx, sessionID)
	if err != nil {
		return models.Session{}, nil, err
	}
	sess.MarkPaid(aggregate.LedgerTotal(orders), now)

	if _, err := tx.Exec(ctx, `
		UPDATE sessions
		SET status = $2, total_amount = $3, paid_at = $4, updated_at = $5
		WHERE id = $1`,
		sess.ID, sess.Status.String(), sess.TotalAmount, sess.PaidAt, sess.UpdatedAt); err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to mark session paid: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE table_bindings
		SET is_occupied = FALSE, updated_at = $4
		WHERE shop_id = $1 AND table_number = $2 AND current_session_id = $3`,
		sess.ShopID, sess.TableNumber, sess.ID, now); err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to release table: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Session{}, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sess, orders, nil
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
