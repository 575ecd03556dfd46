package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
	"github.com/re-cox/aeys-v2-sub001/pkg/storage"
)

func newApplicationService(appRepo *mockApplicationRepo, stepRepo *mockStepRepo, docRepo *mockDocumentRepo, store storage.ObjectStore) ApplicationService {
	return NewApplicationService(appRepo, stepRepo, docRepo, store, zap.NewNop())
}

func TestApplicationService_Create_Defaults(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0001",
		SiteName:        "Kavakli TM",
		ApplicantName:   "Yildiz Enerji A.S.",
		City:            "Istanbul",
		CreatedBy:       "o.demir",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, models.KindNewConnection, app.Kind)
	assert.Equal(t, providers.BedasSiteSurvey, app.CurrentStep)
	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.Equal(t, "o.demir", app.CreatedBy)
}

func TestApplicationService_Create_InitialStepOverride(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	step := providers.BedasInternalWiringProject
	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0002",
		InitialStep:     &step,
	})
	require.NoError(t, err)
	assert.Equal(t, step, app.CurrentStep)
}

func TestApplicationService_Create_Validation(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateApplicationInput{
			Provider:        models.Provider("UEDAS"),
			ReferenceNumber: "X-1",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidProvider)
	})

	t.Run("missing reference number", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateApplicationInput{
			Provider: models.ProviderBedas,
		})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "reference number"))
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateApplicationInput{
			Provider:        models.ProviderBedas,
			ReferenceNumber: "BD-2025-0003",
			Kind:            models.ApplicationKind("SOLAR"),
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidKind)
	})

	t.Run("initial step outside vocabulary", func(t *testing.T) {
		step := providers.AyedasCommissioning
		_, err := svc.Create(context.Background(), CreateApplicationInput{
			Provider:        models.ProviderBedas,
			ReferenceNumber: "BD-2025-0004",
			InitialStep:     &step,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidStepType)
	})
}

func TestApplicationService_Create_DuplicateReference(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	input := CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0005",
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)

	// The same reference under the other provider's pool is fine.
	input.Provider = models.ProviderAyedas
	_, err = svc.Create(context.Background(), input)
	assert.NoError(t, err)
}

func TestApplicationService_Get_AssemblesStepsInCanonicalOrder(t *testing.T) {
	appRepo := newMockApplicationRepo()
	stepRepo := newMockStepRepo()
	docRepo := newMockDocumentRepo()
	svc := newApplicationService(appRepo, stepRepo, docRepo, storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0006",
	})
	require.NoError(t, err)

	// Steps recorded out of process order.
	meter := &models.Step{ApplicationID: app.ID, StepType: providers.BedasMeterInstallation, Status: models.StepStatusNotStarted}
	survey := &models.Step{ApplicationID: app.ID, StepType: providers.BedasSiteSurvey, Status: models.StepStatusCompleted}
	stepRepo.seed(models.ProviderBedas, meter)
	stepRepo.seed(models.ProviderBedas, survey)

	doc := &models.Document{StepID: survey.ID, StoredReference: "ref-1", OriginalName: "rapor.pdf", StoredName: "rapor-x.pdf"}
	require.NoError(t, docRepo.Create(context.Background(), doc))
	docRepo.bind(doc.ID, models.ProviderBedas, app.ID)

	got, err := svc.Get(context.Background(), models.ProviderBedas, app.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, providers.BedasSiteSurvey, got.Steps[0].StepType)
	assert.Equal(t, providers.BedasMeterInstallation, got.Steps[1].StepType)
	require.Len(t, got.Steps[0].Documents, 1)
	assert.Equal(t, "rapor.pdf", got.Steps[0].Documents[0].OriginalName)
	assert.Empty(t, got.Steps[1].Documents)
}

func TestApplicationService_Get_CrossProviderIsNotFound(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0007",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), models.ProviderAyedas, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplicationService_Update(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0008",
		SiteName:        "Eski Saha",
	})
	require.NoError(t, err)

	status := models.ApplicationStatusInReview
	site := "Yeni Saha"
	step := providers.BedasProjectApproval
	updated, err := svc.Update(context.Background(), models.ProviderBedas, app.ID, models.ApplicationUpdate{
		Status:      &status,
		SiteName:    &site,
		CurrentStep: &step,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusInReview, updated.Status)
	assert.Equal(t, "Yeni Saha", updated.SiteName)
	assert.Equal(t, providers.BedasProjectApproval, updated.CurrentStep)
	// Untouched fields survive the merge.
	assert.Equal(t, "BD-2025-0008", updated.ReferenceNumber)
}

func TestApplicationService_Update_ImmutableReference(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0009",
	})
	require.NoError(t, err)

	other := "BD-2025-9999"
	_, err = svc.Update(context.Background(), models.ProviderBedas, app.ID, models.ApplicationUpdate{
		ReferenceNumber: &other,
	})
	assert.ErrorIs(t, err, apperrors.ErrImmutableField)

	// Echoing the current value back is not a change.
	same := "BD-2025-0009"
	_, err = svc.Update(context.Background(), models.ProviderBedas, app.ID, models.ApplicationUpdate{
		ReferenceNumber: &same,
	})
	assert.NoError(t, err)
}

func TestApplicationService_Update_Validation(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0010",
	})
	require.NoError(t, err)

	badStatus := models.ApplicationStatus("ARCHIVED")
	_, err = svc.Update(context.Background(), models.ProviderBedas, app.ID, models.ApplicationUpdate{Status: &badStatus})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	badStep := providers.AyedasTechnicalReview
	_, err = svc.Update(context.Background(), models.ProviderBedas, app.ID, models.ApplicationUpdate{CurrentStep: &badStep})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStepType)
}

func TestApplicationService_Delete_CleansBlobs(t *testing.T) {
	appRepo := newMockApplicationRepo()
	store := storage.NewMemoryStore()
	svc := newApplicationService(appRepo, newMockStepRepo(), newMockDocumentRepo(), store)

	app, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0011",
	})
	require.NoError(t, err)

	// Two stored blobs belonging to the application's documents, one of which
	// is already gone.
	ref1, err := store.Put(context.Background(), "a-1.pdf", strings.NewReader("a"), 1, "application/pdf")
	require.NoError(t, err)
	appRepo.deleteRefs = []string{ref1, "already-gone.pdf"}

	require.NoError(t, svc.Delete(context.Background(), models.ProviderBedas, app.ID))
	assert.Equal(t, 0, store.Len())

	_, err = svc.Get(context.Background(), models.ProviderBedas, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplicationService_Delete_UnknownApplication(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())
	err := svc.Delete(context.Background(), models.ProviderBedas, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplicationService_List_FiltersAndOrder(t *testing.T) {
	svc := newApplicationService(newMockApplicationRepo(), newMockStepRepo(), newMockDocumentRepo(), storage.NewMemoryStore())

	first, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0012",
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderBedas,
		ReferenceNumber: "BD-2025-0013",
		Kind:            models.KindCapacityIncrease,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateApplicationInput{
		Provider:        models.ProviderAyedas,
		ReferenceNumber: "AY-2025-0001",
	})
	require.NoError(t, err)

	apps, err := svc.List(context.Background(), models.ProviderBedas, models.ApplicationFilters{})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	// Most recently created first.
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)

	apps, err = svc.List(context.Background(), models.ProviderBedas, models.ApplicationFilters{Kind: models.KindCapacityIncrease})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, second.ID, apps[0].ID)

	_, err = svc.List(context.Background(), models.ProviderBedas, models.ApplicationFilters{Status: models.ApplicationStatus("NOPE")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}
