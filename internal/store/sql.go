package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// schema works on both postgres and sqlite3.
const schema = `CREATE TABLE IF NOT EXISTS plans (
	id              TEXT PRIMARY KEY,
	department_id   INTEGER NOT NULL UNIQUE,
	department_name TEXT NOT NULL,
	schema_version  INTEGER NOT NULL,
	payload         TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL
)`

// planRow is one row of the plans table. The plan itself is kept as its
// canonical JSON so older payloads keep loading through the legacy decoder.
type planRow struct {
	ID             string    `db:"id"`
	DepartmentID   int       `db:"department_id"`
	DepartmentName string    `db:"department_name"`
	SchemaVersion  int       `db:"schema_version"`
	Payload        string    `db:"payload"`
	CreatedAt      time.Time `db:"created_at"`
}

// SQLStore keeps plans in postgres or sqlite3 through sqlx.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQL connects to the database and creates the plans table if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	// A sqlite3 in-memory database lives per connection.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Migrate creates the plans table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create plans table: %w", err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, p *plan.PlanOfStudy) (*StoredPlan, error) {
	if err := validatePlan(p); err != nil {
		return nil, err
	}

	payload, err := plan.EncodeJSON(p, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	row := planRow{
		ID:             uuid.NewString(),
		DepartmentID:   p.Department.ID,
		DepartmentName: p.Department.Name,
		SchemaVersion:  p.SchemaVersion,
		Payload:        string(payload),
		CreatedAt:      s.now().UTC().Truncate(time.Microsecond),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM plans WHERE department_id = ?`), row.DepartmentID); err != nil {
		return nil, fmt.Errorf("failed to replace plan: %w", err)
	}

	query := tx.Rebind(`INSERT INTO plans (
		id, department_id, department_name, schema_version, payload, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query,
		row.ID, row.DepartmentID, row.DepartmentName, row.SchemaVersion, row.Payload, row.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan: %w", err)
	}

	return row.toStored()
}

func (s *SQLStore) Get(ctx context.Context, departmentID int) (*StoredPlan, error) {
	var row planRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT
		id, department_id, department_name, schema_version, payload, created_at
	FROM plans WHERE department_id = ?`), departmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return row.toStored()
}

func (s *SQLStore) Delete(ctx context.Context, departmentID int) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM plans WHERE department_id = ?`), departmentID)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*StoredPlan, error) {
	var rows []planRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT
		id, department_id, department_name, schema_version, payload, created_at
	FROM plans ORDER BY department_id`); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	plans := make([]*StoredPlan, 0, len(rows))
	for _, row := range rows {
		stored, err := row.toStored()
		if err != nil {
			return nil, err
		}
		plans = append(plans, stored)
	}
	return plans, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (r planRow) toStored() (*StoredPlan, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("plan %d has invalid id %q: %w", r.DepartmentID, r.ID, err)
	}

	p, err := plan.DecodeJSON([]byte(r.Payload))
	if err != nil {
		return nil, fmt.Errorf("plan %d has unreadable payload: %w", r.DepartmentID, err)
	}

	return &StoredPlan{ID: id, CreatedAt: r.CreatedAt.UTC(), Plan: p}, nil
}
