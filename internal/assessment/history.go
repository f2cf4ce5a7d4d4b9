// internal/assessment/history.go
package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/models"
)

const insertAssessmentQuery = `
INSERT INTO mortgage_assessments (
	id, application_id, model_id, category, confidence,
	dti, max_credit, recommendations, applicant, assessed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresHistory appends assessments to the mortgage_assessments table.
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func (h *PostgresHistory) Record(ctx context.Context, applicant models.Applicant, a *models.Assessment) error {
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	app, err := json.Marshal(applicant)
	if err != nil {
		return fmt.Errorf("encode applicant: %w", err)
	}

	// an unbounded ratio is stored as NULL
	dti := sql.NullFloat64{Float64: float64(a.DTI), Valid: !a.DTI.IsInf()}
	applicationID := sql.NullString{String: a.ApplicationID, Valid: a.ApplicationID != ""}

	_, err = h.db.ExecContext(ctx, insertAssessmentQuery,
		a.ID, applicationID, a.ModelID, string(a.Category), a.Confidence,
		dti, a.MaxCredit, string(recs), string(app), a.AssessedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}
