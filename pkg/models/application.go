package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the utility company whose interconnection process an
// application follows. Each provider has its own step vocabulary and its own
// pool of reference numbers; the closed set lives in pkg/providers.
type Provider string

const (
	ProviderBedas  Provider = "BEDAS"
	ProviderAyedas Provider = "AYEDAS"
)

// ApplicationStatus is the aggregate lifecycle status of a filing.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusInReview  ApplicationStatus = "IN_REVIEW"
	ApplicationStatusCompleted ApplicationStatus = "COMPLETED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
)

// ValidApplicationStatuses contains all valid application status values.
var ValidApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusInReview,
	ApplicationStatusCompleted,
	ApplicationStatusRejected,
}

// IsValidApplicationStatus checks if the given status is valid.
func IsValidApplicationStatus(s ApplicationStatus) bool {
	for _, v := range ValidApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ApplicationKind is the categorical type of filing.
type ApplicationKind string

const (
	KindNewConnection     ApplicationKind = "NEW_CONNECTION"
	KindCapacityIncrease  ApplicationKind = "CAPACITY_INCREASE"
	KindTemporarySupply   ApplicationKind = "TEMPORARY_SUPPLY"
	KindGenerationConnect ApplicationKind = "GENERATION_INTERCONNECTION"
)

// ValidApplicationKinds contains all valid application kind values.
var ValidApplicationKinds = []ApplicationKind{
	KindNewConnection,
	KindCapacityIncrease,
	KindTemporarySupply,
	KindGenerationConnect,
}

// IsValidApplicationKind checks if the given kind is valid.
func IsValidApplicationKind(k ApplicationKind) bool {
	for _, v := range ValidApplicationKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Application is one regulatory interconnection filing, the aggregate root
// that steps and their documents hang off of.
type Application struct {
	ID              uuid.UUID         `json:"id"`
	Provider        Provider          `json:"provider"`
	ReferenceNumber string            `json:"reference_number"`
	Kind            ApplicationKind   `json:"kind"`
	Status          ApplicationStatus `json:"status"`
	// CurrentStep is where the filing nominally stands in the provider's
	// process. It is set at creation and advanced by callers, never derived
	// from step statuses.
	CurrentStep StepType `json:"current_step"`

	SiteName      string `json:"site_name"`
	ApplicantName string `json:"applicant_name"`
	City          string `json:"city"`
	District      string `json:"district"`
	ParcelBlock   string `json:"parcel_block"`
	ParcelLot     string `json:"parcel_lot"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Steps is populated on Get, ordered by the provider's canonical
	// step order.
	Steps []*Step `json:"steps,omitempty"`
}

// ApplicationUpdate carries a partial update; nil fields are left untouched.
// ReferenceNumber is present only so an attempt to change it can be rejected
// explicitly rather than silently dropped.
type ApplicationUpdate struct {
	ReferenceNumber *string            `json:"reference_number,omitempty"`
	Kind            *ApplicationKind   `json:"kind,omitempty"`
	Status          *ApplicationStatus `json:"status,omitempty"`
	CurrentStep     *StepType          `json:"current_step,omitempty"`
	SiteName        *string            `json:"site_name,omitempty"`
	ApplicantName   *string            `json:"applicant_name,omitempty"`
	City            *string            `json:"city,omitempty"`
	District        *string            `json:"district,omitempty"`
	ParcelBlock     *string            `json:"parcel_block,omitempty"`
	ParcelLot       *string            `json:"parcel_lot,omitempty"`
}

// ApplicationFilters narrows List results. Zero values mean "no filter".
type ApplicationFilters struct {
	Status ApplicationStatus
	Kind   ApplicationKind
}
