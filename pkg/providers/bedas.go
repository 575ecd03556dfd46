package providers

import "github.com/re-cox/aeys-v2-sub001/pkg/models"

// BEDAS review process, in filing order.
const (
	BedasSiteSurvey            models.StepType = "SITE_SURVEY"
	BedasConnectionAgreement   models.StepType = "CONNECTION_AGREEMENT"
	BedasInternalWiringProject models.StepType = "INTERNAL_WIRING_PROJECT"
	BedasProjectApproval       models.StepType = "PROJECT_APPROVAL"
	BedasInspection            models.StepType = "INSPECTION"
	BedasMeterInstallation     models.StepType = "METER_INSTALLATION"
	BedasAcceptance            models.StepType = "ACCEPTANCE"
)

func init() {
	Register(Policy{
		Provider: models.ProviderBedas,
		StepOrder: []models.StepType{
			BedasSiteSurvey,
			BedasConnectionAgreement,
			BedasInternalWiringProject,
			BedasProjectApproval,
			BedasInspection,
			BedasMeterInstallation,
			BedasAcceptance,
		},
		DefaultKind:             models.KindNewConnection,
		RequireDocumentCategory: false,
	})
}
