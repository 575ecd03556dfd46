// Package providers holds the per-utility policy layer. Everything the engine
// does is scoped by a resolved Policy, never by a raw provider string, so
// onboarding a third utility means registering one more policy here.
package providers

import (
	"sync"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
)

// Policy describes one utility's interconnection process: the ordered step
// vocabulary, defaults applied at application creation, and whether document
// attachments must carry a category tag.
type Policy struct {
	Provider models.Provider
	// StepOrder is the canonical process order. Application Get and step
	// listings sort by position in this slice regardless of the order the
	// steps were first touched.
	StepOrder []models.StepType
	// DefaultKind is used when an application is created without an explicit
	// kind.
	DefaultKind models.ApplicationKind
	// RequireDocumentCategory rejects attachments without a category tag.
	RequireDocumentCategory bool

	ordinals map[models.StepType]int
}

// FirstStep returns the first entry of the provider's step vocabulary.
func (p *Policy) FirstStep() models.StepType {
	return p.StepOrder[0]
}

// StepOrdinal returns the position of t in the canonical process order.
// The second return is false when t is not in the vocabulary.
func (p *Policy) StepOrdinal(t models.StepType) (int, bool) {
	ord, ok := p.ordinals[t]
	return ord, ok
}

// IsValidStepType reports whether t belongs to the provider's vocabulary.
func (p *Policy) IsValidStepType(t models.StepType) bool {
	_, ok := p.ordinals[t]
	return ok
}

var (
	registryMu sync.RWMutex
	registry   = make(map[models.Provider]*Policy)
)

// Register is called by each provider file's init function.
// Thread-safe for concurrent init calls.
func Register(p Policy) {
	p.ordinals = make(map[models.StepType]int, len(p.StepOrder))
	for i, t := range p.StepOrder {
		p.ordinals[t] = i
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Provider] = &p
}

// Resolve returns the policy for a provider, or apperrors.ErrInvalidProvider
// when the provider is not in the closed set.
func Resolve(provider models.Provider) (*Policy, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[provider]
	if !ok {
		return nil, apperrors.ErrInvalidProvider
	}
	return p, nil
}

// Registered returns the providers currently in the closed set.
func Registered() []models.Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]models.Provider, 0, len(registry))
	for p := range registry {
		result = append(result, p)
	}
	return result
}
