// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"dispatch-gateway/internal/model"
)

// ErrNotFound distinguishes "no matching row" from a store failure. Callers
// map the former to 401/absence semantics and the latter to 500.
var ErrNotFound = errors.New("storage: not found")

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the metadata tables if they do not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY,
			plan_type TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS customer_tokens (
			token TEXT PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS dispatch_limits (
			script_id TEXT PRIMARY KEY,
			cpu_ms INTEGER,
			memory INTEGER
		);
		CREATE TABLE IF NOT EXISTS outbound_workers (
			script_id TEXT PRIMARY KEY,
			outbound_script_id TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Reset truncates all metadata tables and re-inserts the seed customers.
// Backs the /init endpoint.
func (s *Storage) Reset(ctx context.Context, seed []model.Customer) error {
	_, err := s.DB.ExecContext(ctx, `
		TRUNCATE customer_tokens, dispatch_limits, outbound_workers;
		DELETE FROM customers;
	`)
	if err != nil {
		return fmt.Errorf("failed to reset tables: %w", err)
	}
	for _, c := range seed {
		if err := s.CreateCustomer(ctx, &c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) CreateCustomer(ctx context.Context, c *model.Customer) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO customers (id, plan_type) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET plan_type = EXCLUDED.plan_type
	`, c.ID, c.PlanType)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	if c.Token == "" {
		return nil
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO customer_tokens (token, customer_id) VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, c.Token, c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert customer token: %w", err)
	}
	return nil
}

// CustomerByToken resolves an API token to the owning customer. Returns
// ErrNotFound when the token matches no row; any other error is a store
// failure and must not be reported as "unauthorized".
func (s *Storage) CustomerByToken(ctx context.Context, token string) (*model.Customer, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT c.id, c.plan_type, c.created_at
		FROM customer_tokens t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.token = $1
	`, token)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.PlanType, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	c.Token = token
	return &c, nil
}

func (s *Storage) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, plan_type, created_at FROM customers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.PlanType, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpsertDispatchLimits writes the per-script limit row. One row per script.
func (s *Storage) UpsertDispatchLimits(ctx context.Context, l *model.DispatchLimits) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO dispatch_limits (script_id, cpu_ms, memory)
		VALUES ($1, $2, $3)
		ON CONFLICT (script_id) DO UPDATE SET cpu_ms = EXCLUDED.cpu_ms, memory = EXCLUDED.memory
	`, l.ScriptID, l.CPUMs, l.Memory)
	if err != nil {
		return fmt.Errorf("failed to upsert dispatch limits: %w", err)
	}
	return nil
}

// DispatchLimits returns the limits row for a script, or nil when absent
// (absence means "use platform defaults", not an error).
func (s *Storage) DispatchLimits(ctx context.Context, scriptID string) (*model.DispatchLimits, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT script_id, cpu_ms, memory FROM dispatch_limits WHERE script_id = $1
	`, scriptID)

	var l model.DispatchLimits
	if err := row.Scan(&l.ScriptID, &l.CPUMs, &l.Memory); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("limits lookup failed: %w", err)
	}
	return &l, nil
}

func (s *Storage) ListDispatchLimits(ctx context.Context) ([]model.DispatchLimits, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT script_id, cpu_ms, memory FROM dispatch_limits ORDER BY script_id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var limits []model.DispatchLimits
	for rows.Next() {
		var l model.DispatchLimits
		if err := rows.Scan(&l.ScriptID, &l.CPUMs, &l.Memory); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		limits = append(limits, l)
	}
	return limits, rows.Err()
}

// OutboundWorker returns the outbound-worker association for a script, or nil
// when absent. Nothing writes this table yet; the read path exists so dispatch
// picks the association up once the provisioning side lands.
func (s *Storage) OutboundWorker(ctx context.Context, scriptID string) (*model.OutboundWorker, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT script_id, outbound_script_id FROM outbound_workers WHERE script_id = $1
	`, scriptID)

	var w model.OutboundWorker
	if err := row.Scan(&w.ScriptID, &w.OutboundScriptID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("outbound worker lookup failed: %w", err)
	}
	return &w, nil
}

func (s *Storage) ListOutboundWorkers(ctx context.Context) ([]model.OutboundWorker, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT script_id, outbound_script_id FROM outbound_workers ORDER BY script_id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var workers []model.OutboundWorker
	for rows.Next() {
		var w model.OutboundWorker
		if err := rows.Scan(&w.ScriptID, &w.OutboundScriptID); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}
