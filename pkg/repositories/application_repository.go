package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/database"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
)

// ApplicationRepository defines data access for interconnection applications.
// Every read and delete is scoped by provider so one provider's pool is
// invisible from another's context.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, provider models.Provider, id uuid.UUID) (*models.Application, error)
	List(ctx context.Context, provider models.Provider, filters models.ApplicationFilters) ([]*models.Application, error)
	Update(ctx context.Context, app *models.Application) error

	// Delete removes the application and, via the schema's cascade, its steps
	// and document records, in one transaction. It returns the stored
	// references of every removed document so the caller can clean up the
	// underlying blobs after commit.
	Delete(ctx context.Context, provider models.Provider, id uuid.UUID) ([]string, error)
}

// applicationRepository implements ApplicationRepository using PostgreSQL.
type applicationRepository struct {
	db *database.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *database.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, provider, reference_number, application_kind, status, current_step,
	site_name, applicant_name, city, district, parcel_block, parcel_lot,
	created_by, created_at, updated_at`

// Create inserts a new application. A unique violation on
// (provider, reference_number) maps to apperrors.ErrDuplicateReference.
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	query := `
		INSERT INTO edas_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		app.ID, app.Provider, app.ReferenceNumber, app.Kind, app.Status, app.CurrentStep,
		app.SiteName, app.ApplicantName, app.City, app.District, app.ParcelBlock, app.ParcelLot,
		app.CreatedBy, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// Get retrieves one application by ID within a provider's pool. Steps and
// documents are assembled by the service layer.
func (r *applicationRepository) Get(ctx context.Context, provider models.Provider, id uuid.UUID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM edas_applications
		WHERE id = $1 AND provider = $2`

	app, err := scanApplication(r.db.QueryRow(ctx, query, id, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// List returns a provider's applications, most recently created first.
func (r *applicationRepository) List(ctx context.Context, provider models.Provider, filters models.ApplicationFilters) ([]*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM edas_applications
		WHERE provider = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR application_kind = $3)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, provider, string(filters.Status), string(filters.Kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// Update writes the mutable fields of an application back. Provider and
// reference number are deliberately absent from the SET list.
func (r *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE edas_applications
		SET application_kind = $3, status = $4, current_step = $5,
		    site_name = $6, applicant_name = $7, city = $8, district = $9,
		    parcel_block = $10, parcel_lot = $11, updated_at = $12
		WHERE id = $1 AND provider = $2`

	result, err := r.db.Exec(ctx, query,
		app.ID, app.Provider, app.Kind, app.Status, app.CurrentStep,
		app.SiteName, app.ApplicantName, app.City, app.District,
		app.ParcelBlock, app.ParcelLot, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes the application row inside a transaction, collecting the
// stored references of its documents first. The FK cascade removes step and
// document rows with it; blob cleanup is the caller's post-commit concern.
func (r *applicationRepository) Delete(ctx context.Context, provider models.Provider, id uuid.UUID) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	refQuery := `
		SELECT d.stored_reference
		FROM edas_documents d
		JOIN edas_steps s ON s.id = d.step_id
		WHERE s.application_id = $1`

	rows, err := tx.Query(ctx, refQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stored references: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stored reference: %w", err)
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stored references: %w", err)
	}

	result, err := tx.Exec(ctx,
		`DELETE FROM edas_applications WHERE id = $1 AND provider = $2`, id, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to delete application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return refs, nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID, &app.Provider, &app.ReferenceNumber, &app.Kind, &app.Status, &app.CurrentStep,
		&app.SiteName, &app.ApplicantName, &app.City, &app.District, &app.ParcelBlock, &app.ParcelLot,
		&app.CreatedBy, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Ensure applicationRepository implements ApplicationRepository at compile time.
var _ ApplicationRepository = (*applicationRepository)(nil)
