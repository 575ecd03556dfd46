package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
	"github.com/re-cox/aeys-v2-sub001/pkg/repositories"
	"github.com/re-cox/aeys-v2-sub001/pkg/retry"
	"github.com/re-cox/aeys-v2-sub001/pkg/storage"
)

// CreateApplicationInput carries everything needed to register a new filing.
type CreateApplicationInput struct {
	Provider        models.Provider
	ReferenceNumber string
	// Kind defaults to the provider policy's default when empty.
	Kind models.ApplicationKind
	// InitialStep overrides the provider's first vocabulary entry when set.
	InitialStep *models.StepType

	SiteName      string
	ApplicantName string
	City          string
	District      string
	ParcelBlock   string
	ParcelLot     string
	CreatedBy     string
}

// ApplicationService is the registry of interconnection filings: the
// aggregate root steps and documents hang off of. It never mutates step or
// document data itself; it only assembles them on Get and removes them on
// cascade Delete.
type ApplicationService interface {
	Create(ctx context.Context, input CreateApplicationInput) (*models.Application, error)

	// Get returns the application with its steps eagerly assembled in the
	// provider's canonical process order, each step carrying its documents.
	Get(ctx context.Context, provider models.Provider, id uuid.UUID) (*models.Application, error)

	// List returns a provider's applications, most recently created first.
	List(ctx context.Context, provider models.Provider, filters models.ApplicationFilters) ([]*models.Application, error)

	// Update merges non-nil fields. Provider and reference number are
	// immutable; an attempt to change the reference number is rejected with
	// apperrors.ErrImmutableField.
	Update(ctx context.Context, provider models.Provider, id uuid.UUID, update models.ApplicationUpdate) (*models.Application, error)

	// Delete removes the application with all of its steps and documents in
	// one metadata transaction, then deletes the underlying blobs
	// best-effort.
	Delete(ctx context.Context, provider models.Provider, id uuid.UUID) error
}

type applicationService struct {
	appRepo  repositories.ApplicationRepository
	stepRepo repositories.StepRepository
	docRepo  repositories.DocumentRepository
	store    storage.ObjectStore
	logger   *zap.Logger
}

// NewApplicationService creates a new application service.
func NewApplicationService(
	appRepo repositories.ApplicationRepository,
	stepRepo repositories.StepRepository,
	docRepo repositories.DocumentRepository,
	store storage.ObjectStore,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		appRepo:  appRepo,
		stepRepo: stepRepo,
		docRepo:  docRepo,
		store:    store,
		logger:   logger.Named("application-service"),
	}
}

func (s *applicationService) Create(ctx context.Context, input CreateApplicationInput) (*models.Application, error) {
	policy, err := providers.Resolve(input.Provider)
	if err != nil {
		return nil, err
	}
	if input.ReferenceNumber == "" {
		return nil, fmt.Errorf("reference number is required")
	}

	kind := input.Kind
	if kind == "" {
		kind = policy.DefaultKind
	} else if !models.IsValidApplicationKind(kind) {
		return nil, apperrors.ErrInvalidKind
	}

	currentStep := policy.FirstStep()
	if input.InitialStep != nil {
		if !policy.IsValidStepType(*input.InitialStep) {
			return nil, apperrors.ErrInvalidStepType
		}
		currentStep = *input.InitialStep
	}

	app := &models.Application{
		Provider:        input.Provider,
		ReferenceNumber: input.ReferenceNumber,
		Kind:            kind,
		Status:          models.ApplicationStatusPending,
		CurrentStep:     currentStep,
		SiteName:        input.SiteName,
		ApplicantName:   input.ApplicantName,
		City:            input.City,
		District:        input.District,
		ParcelBlock:     input.ParcelBlock,
		ParcelLot:       input.ParcelLot,
		CreatedBy:       input.CreatedBy,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("Application registered",
		zap.String("application_id", app.ID.String()),
		zap.String("provider", string(app.Provider)),
		zap.String("reference_number", app.ReferenceNumber))
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, provider models.Provider, id uuid.UUID) (*models.Application, error) {
	policy, err := providers.Resolve(provider)
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.Get(ctx, provider, id)
	if err != nil {
		return nil, err
	}

	steps, err := s.stepRepo.ListByApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	docsByStep, err := s.docRepo.ListByApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		step.Documents = docsByStep[step.ID]
	}

	sortStepsCanonically(steps, policy)
	app.Steps = steps
	return app, nil
}

func (s *applicationService) List(ctx context.Context, provider models.Provider, filters models.ApplicationFilters) ([]*models.Application, error) {
	if _, err := providers.Resolve(provider); err != nil {
		return nil, err
	}
	if filters.Status != "" && !models.IsValidApplicationStatus(filters.Status) {
		return nil, apperrors.ErrInvalidStatus
	}
	if filters.Kind != "" && !models.IsValidApplicationKind(filters.Kind) {
		return nil, apperrors.ErrInvalidKind
	}
	return s.appRepo.List(ctx, provider, filters)
}

func (s *applicationService) Update(ctx context.Context, provider models.Provider, id uuid.UUID, update models.ApplicationUpdate) (*models.Application, error) {
	policy, err := providers.Resolve(provider)
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.Get(ctx, provider, id)
	if err != nil {
		return nil, err
	}

	// A caller echoing the current reference number back is harmless; asking
	// for a different one is a rejected immutability violation.
	if update.ReferenceNumber != nil && *update.ReferenceNumber != app.ReferenceNumber {
		return nil, apperrors.ErrImmutableField
	}

	if update.Kind != nil {
		if !models.IsValidApplicationKind(*update.Kind) {
			return nil, apperrors.ErrInvalidKind
		}
		app.Kind = *update.Kind
	}
	if update.Status != nil {
		if !models.IsValidApplicationStatus(*update.Status) {
			return nil, apperrors.ErrInvalidStatus
		}
		app.Status = *update.Status
	}
	if update.CurrentStep != nil {
		if !policy.IsValidStepType(*update.CurrentStep) {
			return nil, apperrors.ErrInvalidStepType
		}
		app.CurrentStep = *update.CurrentStep
	}
	if update.SiteName != nil {
		app.SiteName = *update.SiteName
	}
	if update.ApplicantName != nil {
		app.ApplicantName = *update.ApplicantName
	}
	if update.City != nil {
		app.City = *update.City
	}
	if update.District != nil {
		app.District = *update.District
	}
	if update.ParcelBlock != nil {
		app.ParcelBlock = *update.ParcelBlock
	}
	if update.ParcelLot != nil {
		app.ParcelLot = *update.ParcelLot
	}

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) Delete(ctx context.Context, provider models.Provider, id uuid.UUID) error {
	if _, err := providers.Resolve(provider); err != nil {
		return err
	}

	refs, err := s.appRepo.Delete(ctx, provider, id)
	if err != nil {
		return err
	}

	// Metadata is gone at this point; blob removal is the independently
	// retryable second phase. A missing blob is benign, anything else is
	// logged with the reference so it can be swept later.
	for _, ref := range refs {
		s.cleanupBlob(ctx, ref)
	}

	s.logger.Info("Application deleted",
		zap.String("application_id", id.String()),
		zap.String("provider", string(provider)),
		zap.Int("documents_cleaned", len(refs)))
	return nil
}

func (s *applicationService) cleanupBlob(ctx context.Context, ref string) {
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		err := s.store.Delete(ctx, ref)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.Warn("Failed to delete stored document bytes after cascade",
			zap.String("stored_reference", ref),
			zap.Error(err))
	}
}

// sortStepsCanonically orders steps by the provider's process order rather
// than the order they were first touched. Step types outside the vocabulary
// should not exist; if one does it sorts last so it stays visible.
func sortStepsCanonically(steps []*models.Step, policy *providers.Policy) {
	sort.SliceStable(steps, func(i, j int) bool {
		oi, oki := policy.StepOrdinal(steps[i].StepType)
		oj, okj := policy.StepOrdinal(steps[j].StepType)
		if oki != okj {
			return oki
		}
		if !oki {
			return steps[i].StepType < steps[j].StepType
		}
		return oi < oj
	})
}

// Ensure applicationService implements ApplicationService at compile time.
var _ ApplicationService = (*applicationService)(nil)
