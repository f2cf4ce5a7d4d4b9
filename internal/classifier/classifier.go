// internal/classifier/classifier.go
package classifier

import (
	"fmt"
	"time"

	"mortgage-readiness/internal/artifact"
	"mortgage-readiness/internal/common/config"
	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/metrics"
	"mortgage-readiness/internal/models"
)

// Probability breakpoints between readiness categories. Both are inclusive
// lower bounds.
const (
	ReadyThreshold       = 0.8
	AlmostReadyThreshold = 0.5
)

// RiskClassifier scores an applicant's mortgage readiness.
type RiskClassifier interface {
	PredictProba(a models.Applicant) (float64, error)
	Predict(a models.Applicant) (models.Category, error)
	ModelID() string
}

// CategoryFor maps a class-1 probability onto a readiness category.
func CategoryFor(p float64) models.Category {
	switch {
	case p >= ReadyThreshold:
		return models.CategoryReady
	case p >= AlmostReadyThreshold:
		return models.CategoryAlmostReady
	default:
		return models.CategoryNotReady
	}
}

// ModelClassifier serves predictions from a loaded artifact. The artifact is
// read-only after load, so one instance is shared across goroutines.
type ModelClassifier struct {
	artifact *artifact.Artifact
}

// NewModelClassifier loads the artifact at path.
func NewModelClassifier(path string) (*ModelClassifier, error) {
	a, err := artifact.Load(path)
	if err != nil {
		return nil, err
	}
	return &ModelClassifier{artifact: a}, nil
}

// NewFromArtifact wraps an already loaded artifact.
func NewFromArtifact(a *artifact.Artifact) (*ModelClassifier, error) {
	if err := a.Validate(); err != nil {
		return nil, apperrors.NewArtifactInvalidError("<memory>", err.Error(), err)
	}
	return &ModelClassifier{artifact: a}, nil
}

func (c *ModelClassifier) PredictProba(a models.Applicant) (float64, error) {
	start := time.Now()
	p, err := c.artifact.PredictProba(a)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, apperrors.NewPredictionFailedError(err)
	}
	return p, nil
}

func (c *ModelClassifier) Predict(a models.Applicant) (models.Category, error) {
	p, err := c.PredictProba(a)
	if err != nil {
		return "", err
	}
	return CategoryFor(p), nil
}

func (c *ModelClassifier) ModelID() string { return c.artifact.ID }

// Artifact exposes the loaded artifact's metadata.
func (c *ModelClassifier) Artifact() *artifact.Artifact { return c.artifact }

// StubProbability is the fixed score returned by StubClassifier.
const StubProbability = 0.85

// StubModelID identifies assessments produced without a trained model.
const StubModelID = "stub"

// StubClassifier returns a fixed score. It is selected explicitly by
// configuration for local development.
type StubClassifier struct{}

func (StubClassifier) PredictProba(models.Applicant) (float64, error) { return StubProbability, nil }

func (StubClassifier) Predict(models.Applicant) (models.Category, error) {
	return CategoryFor(StubProbability), nil
}

func (StubClassifier) ModelID() string { return StubModelID }

// New builds the classifier selected by cfg.Mode.
func New(cfg config.ClassifierConfig) (RiskClassifier, error) {
	switch cfg.Mode {
	case config.ClassifierModeModel, "":
		return NewModelClassifier(cfg.ModelPath)
	case config.ClassifierModeStub:
		return StubClassifier{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Mode)
	}
}
