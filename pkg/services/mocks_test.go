package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
)

// mockApplicationRepo implements repositories.ApplicationRepository in memory.
type mockApplicationRepo struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*models.Application

	createErr error
	updateErr error
	// deleteRefs is what Delete reports as the cascade's stored references.
	deleteRefs []string
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[uuid.UUID]*models.Application)}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *models.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.Provider == app.Provider && existing.ReferenceNumber == app.ReferenceNumber {
			return apperrors.ErrDuplicateReference
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *mockApplicationRepo) Get(_ context.Context, provider models.Provider, id uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok || app.Provider != provider {
		return nil, apperrors.ErrNotFound
	}
	result := *app
	return &result, nil
}

func (m *mockApplicationRepo) List(_ context.Context, provider models.Provider, filters models.ApplicationFilters) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, app := range m.apps {
		if app.Provider != provider {
			continue
		}
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		if filters.Kind != "" && app.Kind != filters.Kind {
			continue
		}
		copied := *app
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockApplicationRepo) Update(_ context.Context, app *models.Application) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.apps[app.ID]
	if !ok || existing.Provider != app.Provider {
		return apperrors.ErrNotFound
	}
	app.UpdatedAt = time.Now().UTC()
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *mockApplicationRepo) Delete(_ context.Context, provider models.Provider, id uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok || app.Provider != provider {
		return nil, apperrors.ErrNotFound
	}
	delete(m.apps, id)
	return m.deleteRefs, nil
}

// mockStepRepo implements repositories.StepRepository in memory, tracking the
// provider chain each step belongs to.
type mockStepRepo struct {
	mu        sync.Mutex
	steps     map[uuid.UUID]*models.Step     // by step ID
	providers map[uuid.UUID]models.Provider  // step ID → provider of owning application
	upsertErr error
}

func newMockStepRepo() *mockStepRepo {
	return &mockStepRepo{
		steps:     make(map[uuid.UUID]*models.Step),
		providers: make(map[uuid.UUID]models.Provider),
	}
}

// seed registers an existing step under a provider chain.
func (m *mockStepRepo) seed(provider models.Provider, step *models.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	m.steps[step.ID] = step
	m.providers[step.ID] = provider
}

func (m *mockStepRepo) Upsert(_ context.Context, applicationID uuid.UUID, upsert models.StepUpsert) (*models.Step, bool, error) {
	if m.upsertErr != nil {
		return nil, false, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, step := range m.steps {
		if step.ApplicationID == applicationID && step.StepType == upsert.StepType {
			step.Status = upsert.Status
			if upsert.Notes != nil {
				step.Notes = *upsert.Notes
			}
			step.UpdatedAt = now
			copied := *step
			return &copied, false, nil
		}
	}
	step := &models.Step{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		StepType:      upsert.StepType,
		Status:        upsert.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if upsert.Notes != nil {
		step.Notes = *upsert.Notes
	}
	m.steps[step.ID] = step
	copied := *step
	return &copied, true, nil
}

func (m *mockStepRepo) Get(_ context.Context, applicationID uuid.UUID, stepType models.StepType) (*models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, step := range m.steps {
		if step.ApplicationID == applicationID && step.StepType == stepType {
			copied := *step
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockStepRepo) GetInChain(_ context.Context, provider models.Provider, applicationID, stepID uuid.UUID) (*models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	step, ok := m.steps[stepID]
	if !ok || step.ApplicationID != applicationID || m.providers[stepID] != provider {
		return nil, apperrors.ErrNotFound
	}
	copied := *step
	return &copied, nil
}

func (m *mockStepRepo) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]*models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Step
	for _, step := range m.steps {
		if step.ApplicationID == applicationID {
			copied := *step
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// mockDocumentRepo implements repositories.DocumentRepository in memory.
type mockDocumentRepo struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*models.Document
	providers map[uuid.UUID]models.Provider // doc ID → provider of owning chain
	appIDs    map[uuid.UUID]uuid.UUID       // doc ID → owning application
	createErr error
	deleteErr error
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{
		docs:      make(map[uuid.UUID]*models.Document),
		providers: make(map[uuid.UUID]models.Provider),
		appIDs:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.UploadedAt = time.Now().UTC()
	stored := *doc
	m.docs[doc.ID] = &stored
	return nil
}

// bind records the ownership chain for a created document. Mock-side stand-in
// for the joins the real repository resolves.
func (m *mockDocumentRepo) bind(docID uuid.UUID, provider models.Provider, applicationID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[docID] = provider
	m.appIDs[docID] = applicationID
}

func (m *mockDocumentRepo) GetInChain(_ context.Context, provider models.Provider, applicationID, stepID, documentID uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[documentID]
	if !ok || doc.StepID != stepID || m.providers[documentID] != provider || m.appIDs[documentID] != applicationID {
		return nil, apperrors.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocumentRepo) ListByStep(_ context.Context, stepID uuid.UUID) ([]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Document
	for _, doc := range m.docs {
		if doc.StepID == stepID {
			copied := *doc
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.Before(result[j].UploadedAt)
	})
	return result, nil
}

func (m *mockDocumentRepo) ListByApplication(_ context.Context, applicationID uuid.UUID) (map[uuid.UUID][]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStep := make(map[uuid.UUID][]*models.Document)
	for id, doc := range m.docs {
		if m.appIDs[id] == applicationID {
			copied := *doc
			byStep[doc.StepID] = append(byStep[doc.StepID], &copied)
		}
	}
	return byStep, nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}
