package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
	"github.com/re-cox/aeys-v2-sub001/pkg/repositories"
)

// StepService is the ledger of review steps for an application and the
// single idempotent entry point for step progression. Callers never need to
// know whether a step record already exists.
type StepService interface {
	// UpsertStep creates or updates the step for (application, step type)
	// and reports which branch ran via wasCreated. The parent application's
	// aggregate status and current-step pointer are left untouched; advancing
	// them is the caller's decision.
	UpsertStep(ctx context.Context, provider models.Provider, applicationID uuid.UUID, upsert models.StepUpsert) (step *models.Step, wasCreated bool, err error)

	// ListSteps returns the application's steps in the provider's canonical
	// process order.
	ListSteps(ctx context.Context, provider models.Provider, applicationID uuid.UUID) ([]*models.Step, error)
}

type stepService struct {
	appRepo  repositories.ApplicationRepository
	stepRepo repositories.StepRepository
	logger   *zap.Logger
}

// NewStepService creates a new step service.
func NewStepService(
	appRepo repositories.ApplicationRepository,
	stepRepo repositories.StepRepository,
	logger *zap.Logger,
) StepService {
	return &stepService{
		appRepo:  appRepo,
		stepRepo: stepRepo,
		logger:   logger.Named("step-service"),
	}
}

func (s *stepService) UpsertStep(ctx context.Context, provider models.Provider, applicationID uuid.UUID, upsert models.StepUpsert) (*models.Step, bool, error) {
	policy, err := providers.Resolve(provider)
	if err != nil {
		return nil, false, err
	}
	if !policy.IsValidStepType(upsert.StepType) {
		return nil, false, apperrors.ErrInvalidStepType
	}
	if !models.IsValidStepStatus(upsert.Status) {
		return nil, false, apperrors.ErrInvalidStatus
	}

	// The owning application must exist in this provider's pool before a
	// ledger row is written for it.
	if _, err := s.appRepo.Get(ctx, provider, applicationID); err != nil {
		return nil, false, err
	}

	step, wasCreated, err := s.stepRepo.Upsert(ctx, applicationID, upsert)
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("Step upserted",
		zap.String("application_id", applicationID.String()),
		zap.String("step_type", string(step.StepType)),
		zap.String("status", string(step.Status)),
		zap.Bool("was_created", wasCreated))
	return step, wasCreated, nil
}

func (s *stepService) ListSteps(ctx context.Context, provider models.Provider, applicationID uuid.UUID) ([]*models.Step, error) {
	policy, err := providers.Resolve(provider)
	if err != nil {
		return nil, err
	}
	if _, err := s.appRepo.Get(ctx, provider, applicationID); err != nil {
		return nil, err
	}

	steps, err := s.stepRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	sortStepsCanonically(steps, policy)
	return steps, nil
}

// Ensure stepService implements StepService at compile time.
var _ StepService = (*stepService)(nil)
