package services

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
	"github.com/re-cox/aeys-v2-sub001/pkg/repositories"
	"github.com/re-cox/aeys-v2-sub001/pkg/storage"
)

// AttachInput carries an upload destined for a review step.
type AttachInput struct {
	Reader       io.Reader
	OriginalName string
	MediaType    string
	SizeBytes    int64
	// Category is mandatory under providers whose policy says so.
	Category   *string
	UploadedBy string
}

// DocumentService owns document metadata scoped to a single step and
// coordinates it with the object store so neither side leaks an orphan.
type DocumentService interface {
	// Attach stores the bytes and persists the document record. On any
	// failure after the bytes were stored the just-stored object is removed
	// before the error returns; no path leaves an orphaned blob.
	Attach(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID, input AttachInput) (*models.Document, error)

	// List returns the step's documents, oldest upload first.
	List(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID) ([]*models.Document, error)

	// Delete removes the stored bytes best-effort, then the metadata record.
	// A blob that is already gone is logged and never blocks cleanup of its
	// own record.
	Delete(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) error

	// Retrieve returns a reader over the stored bytes together with the
	// document record, for download with the original name and media type.
	Retrieve(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) (io.ReadCloser, *models.Document, error)
}

type documentService struct {
	stepRepo repositories.StepRepository
	docRepo  repositories.DocumentRepository
	store    storage.ObjectStore
	logger   *zap.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	stepRepo repositories.StepRepository,
	docRepo repositories.DocumentRepository,
	store storage.ObjectStore,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		stepRepo: stepRepo,
		docRepo:  docRepo,
		store:    store,
		logger:   logger.Named("document-service"),
	}
}

func (s *documentService) Attach(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID, input AttachInput) (*models.Document, error) {
	policy, err := providers.Resolve(provider)
	if err != nil {
		return nil, err
	}
	if policy.RequireDocumentCategory && (input.Category == nil || *input.Category == "") {
		return nil, apperrors.ErrCategoryRequired
	}

	// Chain validation happens before a single byte reaches the store, so a
	// failed lookup can never strand an object.
	step, err := s.stepRepo.GetInChain(ctx, provider, applicationID, stepID)
	if err != nil {
		return nil, err
	}

	storedName := storage.CollisionSafeName(input.OriginalName)
	ref, err := s.store.Put(ctx, storedName, input.Reader, input.SizeBytes, input.MediaType)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		StepID:          step.ID,
		StoredReference: ref,
		OriginalName:    input.OriginalName,
		StoredName:      storedName,
		MediaType:       input.MediaType,
		SizeBytes:       input.SizeBytes,
		Category:        input.Category,
		UploadedBy:      input.UploadedBy,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		// Compensate: the bytes are stored but the record is not; remove the
		// object before surfacing the error.
		if delErr := s.store.Delete(ctx, ref); delErr != nil && !errors.Is(delErr, apperrors.ErrNotFound) {
			s.logger.Error("Failed to remove stored bytes after metadata write failure",
				zap.String("stored_reference", ref),
				zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Document attached",
		zap.String("step_id", step.ID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("original_name", doc.OriginalName),
		zap.Int64("size_bytes", doc.SizeBytes))
	return doc, nil
}

func (s *documentService) List(ctx context.Context, provider models.Provider, applicationID, stepID uuid.UUID) ([]*models.Document, error) {
	if _, err := providers.Resolve(provider); err != nil {
		return nil, err
	}
	step, err := s.stepRepo.GetInChain(ctx, provider, applicationID, stepID)
	if err != nil {
		return nil, err
	}
	return s.docRepo.ListByStep(ctx, step.ID)
}

func (s *documentService) Delete(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) error {
	if _, err := providers.Resolve(provider); err != nil {
		return err
	}
	doc, err := s.docRepo.GetInChain(ctx, provider, applicationID, stepID, documentID)
	if err != nil {
		return err
	}

	// Blob first, best-effort: a missing or unreachable blob never blocks
	// removal of its own record.
	if err := s.store.Delete(ctx, doc.StoredReference); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Info("Stored bytes already gone",
				zap.String("document_id", doc.ID.String()),
				zap.String("stored_reference", doc.StoredReference))
		} else {
			s.logger.Warn("Failed to delete stored bytes, removing record anyway",
				zap.String("document_id", doc.ID.String()),
				zap.String("stored_reference", doc.StoredReference),
				zap.Error(err))
		}
	}

	return s.docRepo.Delete(ctx, doc.ID)
}

func (s *documentService) Retrieve(ctx context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) (io.ReadCloser, *models.Document, error) {
	if _, err := providers.Resolve(provider); err != nil {
		return nil, nil, err
	}
	doc, err := s.docRepo.GetInChain(ctx, provider, applicationID, stepID, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, doc.StoredReference)
	if err != nil {
		return nil, nil, err
	}
	return rc, doc, nil
}

// Ensure documentService implements DocumentService at compile time.
var _ DocumentService = (*documentService)(nil)
