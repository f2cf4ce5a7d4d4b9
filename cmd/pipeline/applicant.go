// cmd/pipeline/applicant.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mortgage-readiness/internal/classifier"
	"mortgage-readiness/internal/common/config"
	"mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/validation"
	"mortgage-readiness/internal/models"
)

// Flags shared by predict and assess.
var (
	scoreApplicant string
	scoreModel     string
	scoreStub      bool
	scoreJSON      bool
)

func addScoringFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&scoreApplicant, "applicant", "a", "-", "applicant JSON file, - for stdin")
	cmd.Flags().StringVarP(&scoreModel, "model", "m", "", "artifact path (default: classifier.model_path)")
	cmd.Flags().BoolVar(&scoreStub, "stub", false, "score with the fixed stub classifier instead of a model")
	cmd.Flags().BoolVar(&scoreJSON, "json", false, "output as JSON")
}

func loadClassifier() (classifier.RiskClassifier, error) {
	ccfg := cfg.Classifier
	if scoreModel != "" {
		ccfg.Mode = config.ClassifierModeModel
		ccfg.ModelPath = scoreModel
	}
	if scoreStub {
		ccfg.Mode = config.ClassifierModeStub
	}
	return classifier.New(ccfg)
}

// readApplicant decodes and schema-checks one applicant document.
func readApplicant(cmd *cobra.Command) (models.Applicant, error) {
	var r io.Reader
	if scoreApplicant == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(scoreApplicant)
		if err != nil {
			return models.Applicant{}, fmt.Errorf("open applicant: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return models.Applicant{}, fmt.Errorf("read applicant: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Applicant{}, errors.NewApplicantValidationFailedError([]string{"(root): " + err.Error()})
	}
	if result := validation.ValidateDocument(doc); !result.Valid {
		return models.Applicant{}, errors.NewApplicantValidationFailedError(result.GetErrorMessages())
	}

	a, err := models.DecodeApplicant(data)
	if err != nil {
		return models.Applicant{}, errors.NewApplicantValidationFailedError([]string{err.Error()})
	}
	return a, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
