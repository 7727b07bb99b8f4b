package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-quickcart/internal/orders"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	role     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id    INTEGER PRIMARY KEY,
	name  TEXT    NOT NULL,
	price NUMERIC NOT NULL CHECK (price >= 0),
	stock INTEGER NOT NULL CHECK (stock >= 0)
);
CREATE TABLE IF NOT EXISTS orders (
	id         INTEGER PRIMARY KEY,
	customer   TEXT    NOT NULL,
	product_id INTEGER NOT NULL,
	quantity   INTEGER NOT NULL,
	status     TEXT    NOT NULL,
	rider      TEXT
);`

// Store persists the ledger snapshot in three tables. It keeps the same
// loose references as the file layout (no foreign keys) so orphaned rows are
// handled by orders.Restore like any other malformed record.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (orders.Snapshot, error) {
	snap := orders.NewSnapshot()

	rows, err := s.DB.Query(ctx, `SELECT username, password, role FROM users`)
	if err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}
	for rows.Next() {
		var name string
		var u orders.UserEntry
		if err := rows.Scan(&name, &u.Password, &u.Role); err != nil {
			rows.Close()
			return snap, fmt.Errorf("load users: %w", err)
		}
		snap.Users[name] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}

	rows, err = s.DB.Query(ctx, `SELECT id, name, price::text, stock FROM products`)
	if err != nil {
		return snap, fmt.Errorf("load products: %w", err)
	}
	for rows.Next() {
		var (
			id    int
			price string
			p     orders.ProductEntry
		)
		if err := rows.Scan(&id, &p.Name, &price, &p.Stock); err != nil {
			rows.Close()
			return snap, fmt.Errorf("load products: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return snap, fmt.Errorf("load products: price of %d: %w", id, err)
		}
		snap.Products[strconv.Itoa(id)] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load products: %w", err)
	}

	rows, err = s.DB.Query(ctx, `SELECT id, customer, product_id, quantity, status, rider FROM orders`)
	if err != nil {
		return snap, fmt.Errorf("load orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o orders.OrderEntry
		if err := rows.Scan(&o.ID, &o.Customer, &o.ProductID, &o.Quantity, &o.Status, &o.Rider); err != nil {
			return snap, fmt.Errorf("load orders: %w", err)
		}
		snap.Orders[strconv.Itoa(o.ID)] = o
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load orders: %w", err)
	}
	return snap, nil
}

// Save writes the whole snapshot in one transaction. Entities are never
// deleted, so upserts are enough.
func (s *Store) Save(ctx context.Context, snap orders.Snapshot) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for name, u := range snap.Users {
		batch.Queue(`
			INSERT INTO users(username, password, role) VALUES ($1, $2, $3)
			ON CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, role = EXCLUDED.role`,
			name, u.Password, u.Role)
	}
	for key, p := range snap.Products {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("save products: bad id %q", key)
		}
		batch.Queue(`
			INSERT INTO products(id, name, price, stock) VALUES ($1, $2, $3::numeric, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock`,
			id, p.Name, p.Price.String(), p.Stock)
	}
	for _, o := range snap.Orders {
		batch.Queue(`
			INSERT INTO orders(id, customer, product_id, quantity, status, rider) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, rider = EXCLUDED.rider`,
			o.ID, o.Customer, o.ProductID, o.Quantity, o.Status, o.Rider)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return tx.Commit(ctx)
}
