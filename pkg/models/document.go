package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an evidentiary file attached to a single review step. The bytes
// themselves live in the object store; StoredReference is the opaque locator
// the store handed back. OriginalName is preserved verbatim for display and
// download; StoredName is the collision-safe name used in the store's
// namespace.
type Document struct {
	ID              uuid.UUID `json:"id"`
	StepID          uuid.UUID `json:"step_id"`
	StoredReference string    `json:"stored_reference"`
	OriginalName    string    `json:"original_name"`
	StoredName      string    `json:"stored_name"`
	MediaType       string    `json:"media_type"`
	SizeBytes       int64     `json:"size_bytes"`
	// Category is the provider-specific classification tag. AYEDAS requires
	// one per document; BEDAS does not use it.
	Category   *string   `json:"category,omitempty"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}
