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

// DocumentRepository defines data access for step document attachments.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error

	// GetInChain returns the document only if its step belongs to the given
	// application within the given provider's pool. A guessed identifier
	// from another chain is ErrNotFound, indistinguishable from absence.
	GetInChain(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) (*models.Document, error)

	ListByStep(ctx context.Context, stepID uuid.UUID) ([]*models.Document, error)

	// ListByApplication returns all documents under an application, grouped
	// by step ID. Used to assemble the aggregate on application Get.
	ListByApplication(ctx context.Context, applicationID uuid.UUID) (map[uuid.UUID][]*models.Document, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// documentRepository implements DocumentRepository using PostgreSQL.
type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, step_id, stored_reference, original_name, stored_name,
	media_type, size_bytes, category, uploaded_by, uploaded_at`

// Create inserts a document metadata record.
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.UploadedAt = time.Now().UTC()

	query := `
		INSERT INTO edas_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		doc.ID, doc.StepID, doc.StoredReference, doc.OriginalName, doc.StoredName,
		doc.MediaType, doc.SizeBytes, doc.Category, doc.UploadedBy, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetInChain validates the full ownership chain document → step →
// application → provider in one join.
func (r *documentRepository) GetInChain(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) (*models.Document, error) {
	query := `
		SELECT d.id, d.step_id, d.stored_reference, d.original_name, d.stored_name,
		       d.media_type, d.size_bytes, d.category, d.uploaded_by, d.uploaded_at
		FROM edas_documents d
		JOIN edas_steps s ON s.id = d.step_id
		JOIN edas_applications a ON a.id = s.application_id
		WHERE d.id = $1 AND d.step_id = $2 AND s.application_id = $3 AND a.provider = $4`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, documentID, stepID, applicationID, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document in chain: %w", err)
	}
	return doc, nil
}

// ListByStep returns a step's documents, oldest upload first.
func (r *documentRepository) ListByStep(ctx context.Context, stepID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM edas_documents
		WHERE step_id = $1
		ORDER BY uploaded_at`

	rows, err := r.db.Query(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// ListByApplication returns every document under the application, keyed by
// owning step.
func (r *documentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) (map[uuid.UUID][]*models.Document, error) {
	query := `
		SELECT d.id, d.step_id, d.stored_reference, d.original_name, d.stored_name,
		       d.media_type, d.size_bytes, d.category, d.uploaded_by, d.uploaded_at
		FROM edas_documents d
		JOIN edas_steps s ON s.id = d.step_id
		WHERE s.application_id = $1
		ORDER BY d.uploaded_at`

	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list application documents: %w", err)
	}
	defer rows.Close()

	byStep := make(map[uuid.UUID][]*models.Document)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		byStep[doc.StepID] = append(byStep[doc.StepID], doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate application documents: %w", err)
	}
	return byStep, nil
}

// Delete removes a document metadata record.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM edas_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID, &doc.StepID, &doc.StoredReference, &doc.OriginalName, &doc.StoredName,
		&doc.MediaType, &doc.SizeBytes, &doc.Category, &doc.UploadedBy, &doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Ensure documentRepository implements DocumentRepository at compile time.
var _ DocumentRepository = (*documentRepository)(nil)
