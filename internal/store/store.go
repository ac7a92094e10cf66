// Package store persists assembled plans. One plan is kept per department;
// creating a plan for a department that already has one replaces it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no plan exists for a department.
	ErrNotFound = errors.New("plan not found")

	// ErrInvalidPlan is returned when a plan cannot be stored as given.
	ErrInvalidPlan = errors.New("invalid plan")
)

// StoredPlan is a plan plus its storage metadata.
type StoredPlan struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Plan      *plan.PlanOfStudy `json:"plan"`
}

// PlanStore is the create / delete / list surface consumed by the API.
type PlanStore interface {
	// Create stores p, replacing any plan with the same department id.
	Create(ctx context.Context, p *plan.PlanOfStudy) (*StoredPlan, error)

	// Get returns the plan of a department or ErrNotFound.
	Get(ctx context.Context, departmentID int) (*StoredPlan, error)

	// Delete removes the plan of a department or returns ErrNotFound.
	Delete(ctx context.Context, departmentID int) error

	// List returns every stored plan ordered by department id.
	List(ctx context.Context) ([]*StoredPlan, error)

	Close() error
}

// Open builds the store selected by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (PlanStore, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverPostgres, config.DriverSQLite:
		return OpenSQL(ctx, cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func validatePlan(p *plan.PlanOfStudy) error {
	if p == nil {
		return fmt.Errorf("%w: plan is nil", ErrInvalidPlan)
	}
	if p.Department.Name == "" {
		return fmt.Errorf("%w: no department name", ErrInvalidPlan)
	}
	return nil
}
