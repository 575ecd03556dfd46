package providers

import "github.com/re-cox/aeys-v2-sub001/pkg/models"

// AYEDAS review process, in filing order. AYEDAS asks for a category tag on
// every submitted document; BEDAS does not.
const (
	AyedasSiteSurvey            models.StepType = "SITE_SURVEY"
	AyedasInternalWiringProject models.StepType = "INTERNAL_WIRING_PROJECT"
	AyedasTechnicalReview       models.StepType = "TECHNICAL_REVIEW"
	AyedasFieldInspection       models.StepType = "FIELD_INSPECTION"
	AyedasMeterInstallation     models.StepType = "METER_INSTALLATION"
	AyedasCommissioning         models.StepType = "COMMISSIONING"
)

func init() {
	Register(Policy{
		Provider: models.ProviderAyedas,
		StepOrder: []models.StepType{
			AyedasSiteSurvey,
			AyedasInternalWiringProject,
			AyedasTechnicalReview,
			AyedasFieldInspection,
			AyedasMeterInstallation,
			AyedasCommissioning,
		},
		DefaultKind:             models.KindNewConnection,
		RequireDocumentCategory: true,
	})
}
