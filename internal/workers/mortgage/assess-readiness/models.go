// internal/workers/mortgage/assess-readiness/models.go
package assessreadiness

import "mortgage-readiness/internal/models"

type Input struct {
	ApplicationID string           `json:"applicationId"`
	Applicant     models.Applicant `json:"applicant"`
}

type Output struct {
	Assessment        *models.Assessment `json:"assessment"`
	ReadinessCategory string             `json:"readinessCategory"`
	MortgageReady     bool               `json:"mortgageReady"`
}
