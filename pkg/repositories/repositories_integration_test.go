//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
)

// newTestApplication inserts a fresh application with a unique reference
// number and returns it. Tests share one database, so fixtures never reuse
// references.
func newTestApplication(t *testing.T, repo ApplicationRepository, provider models.Provider) *models.Application {
	t.Helper()

	policy, err := providers.Resolve(provider)
	require.NoError(t, err)

	app := &models.Application{
		Provider:        provider,
		ReferenceNumber: fmt.Sprintf("REF-%s", uuid.New().String()),
		Kind:            policy.DefaultKind,
		Status:          models.ApplicationStatusPending,
		CurrentStep:     policy.FirstStep(),
		SiteName:        "Test Sahasi",
		ApplicantName:   "Test Basvuru Sahibi",
		City:            "Istanbul",
		CreatedBy:       "integration-test",
	}
	require.NoError(t, repo.Create(context.Background(), app))
	return app
}

func strPtr(s string) *string { return &s }
