package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/database"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
)

// StepRepository defines data access for the per-application step ledger.
type StepRepository interface {
	// Upsert atomically creates or updates the step for
	// (applicationID, stepType) and reports which branch ran. Notes are
	// merged only when non-nil. Safe under concurrent calls for the same
	// pair: the statement rides on the table's unique constraint.
	Upsert(ctx context.Context, applicationID uuid.UUID, upsert models.StepUpsert) (*models.Step, bool, error)

	// Get returns the step for (applicationID, stepType).
	Get(ctx context.Context, applicationID uuid.UUID, stepType models.StepType) (*models.Step, error)

	// GetInChain returns the step only if it belongs to the given application
	// within the given provider's pool. Chain mismatches are ErrNotFound.
	GetInChain(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID) (*models.Step, error)

	// ListByApplication returns all steps for an application. Canonical
	// ordering is applied by the service from the provider policy.
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*models.Step, error)
}

// stepRepository implements StepRepository using PostgreSQL.
type stepRepository struct {
	db *database.DB
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *database.DB) StepRepository {
	return &stepRepository{db: db}
}

// Upsert runs a single INSERT .. ON CONFLICT DO UPDATE. The (xmax = 0)
// projection distinguishes a fresh insert from a conflict-update, which is
// what callers surface as wasCreated.
func (r *stepRepository) Upsert(ctx context.Context, applicationID uuid.UUID, upsert models.StepUpsert) (*models.Step, bool, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO edas_steps (id, application_id, step_type, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, ''), $6, $6)
		ON CONFLICT (application_id, step_type) DO UPDATE
		SET status = EXCLUDED.status,
		    notes = COALESCE($5, edas_steps.notes),
		    updated_at = EXCLUDED.updated_at
		RETURNING id, application_id, step_type, status, notes, created_at, updated_at, (xmax = 0)`

	var step models.Step
	var wasCreated bool
	err := r.db.QueryRow(ctx, query,
		uuid.New(), applicationID, upsert.StepType, upsert.Status, upsert.Notes, now,
	).Scan(
		&step.ID, &step.ApplicationID, &step.StepType, &step.Status, &step.Notes,
		&step.CreatedAt, &step.UpdatedAt, &wasCreated,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert step: %w", err)
	}
	return &step, wasCreated, nil
}

const stepColumns = `id, application_id, step_type, status, notes, created_at, updated_at`

// Get returns the step for (applicationID, stepType).
func (r *stepRepository) Get(ctx context.Context, applicationID uuid.UUID, stepType models.StepType) (*models.Step, error) {
	query := `
		SELECT ` + stepColumns + `
		FROM edas_steps
		WHERE application_id = $1 AND step_type = $2`

	step, err := scanStep(r.db.QueryRow(ctx, query, applicationID, stepType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	return step, nil
}

// GetInChain validates the step's ownership chain through its application up
// to the provider in a single join.
func (r *stepRepository) GetInChain(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID) (*models.Step, error) {
	query := `
		SELECT s.id, s.application_id, s.step_type, s.status, s.notes, s.created_at, s.updated_at
		FROM edas_steps s
		JOIN edas_applications a ON a.id = s.application_id
		WHERE s.id = $1 AND s.application_id = $2 AND a.provider = $3`

	step, err := scanStep(r.db.QueryRow(ctx, query, stepID, applicationID, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get step in chain: %w", err)
	}
	return step, nil
}

// ListByApplication returns all steps recorded for an application.
func (r *stepRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*models.Step, error) {
	query := `
		SELECT ` + stepColumns + `
		FROM edas_steps
		WHERE application_id = $1`

	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	return steps, nil
}

func scanStep(row pgx.Row) (*models.Step, error) {
	var step models.Step
	err := row.Scan(
		&step.ID, &step.ApplicationID, &step.StepType, &step.Status, &step.Notes,
		&step.CreatedAt, &step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// Ensure stepRepository implements StepRepository at compile time.
var _ StepRepository = (*stepRepository)(nil)
