package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
)

// ProviderInfo describes a registered provider policy for UI discovery.
type ProviderInfo struct {
	Provider         models.Provider        `json:"provider"`
	StepOrder        []models.StepType      `json:"step_order"`
	DefaultKind      models.ApplicationKind `json:"default_kind"`
	RequiresCategory bool                   `json:"requires_document_category"`
}

// ProvidersHandler tells consumers which providers are registered and what
// their step vocabularies look like.
type ProvidersHandler struct {
	logger *zap.Logger
}

// NewProvidersHandler creates a new ProvidersHandler.
func NewProvidersHandler(logger *zap.Logger) *ProvidersHandler {
	return &ProvidersHandler{logger: logger}
}

// RegisterRoutes registers the provider discovery route on the given mux.
func (h *ProvidersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/providers", h.List)
}

// List handles GET /providers requests.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	var infos []ProviderInfo
	for _, p := range providers.Registered() {
		policy, err := providers.Resolve(p)
		if err != nil {
			continue
		}
		infos = append(infos, ProviderInfo{
			Provider:         policy.Provider,
			StepOrder:        policy.StepOrder,
			DefaultKind:      policy.DefaultKind,
			RequiresCategory: policy.RequireDocumentCategory,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		h.logger.Warn("Failed to encode providers response", zap.Error(err))
	}
}
