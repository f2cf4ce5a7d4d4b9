// internal/artifact/artifact.go
package artifact

import (
	"fmt"
	"time"

	"mortgage-readiness/internal/ml/forest"
	"mortgage-readiness/internal/ml/preprocess"
	"mortgage-readiness/internal/models"

	"github.com/google/uuid"
)

// FormatVersion is the on-disk layout generation written by Save.
const FormatVersion = 1

// Artifact is a fitted feature transform plus classifier. It is never
// mutated after creation; retraining produces a new artifact with a new ID.
type Artifact struct {
	FormatVersion int                          `json:"formatVersion"`
	SchemaVersion string                       `json:"schemaVersion"`
	ID            string                       `json:"id"`
	CreatedAt     time.Time                    `json:"createdAt"`
	FeatureNames  []string                     `json:"featureNames"`
	Transform     *preprocess.FeatureTransform `json:"transform"`
	Forest        *forest.Forest               `json:"forest"`
	Training      TrainingInfo                 `json:"training"`
}

// TrainingInfo records how the artifact was produced.
type TrainingInfo struct {
	SourcePath   string   `json:"sourcePath,omitempty"`
	TrainRows    int      `json:"trainRows"`
	TestRows     int      `json:"testRows"`
	PositiveRate float64  `json:"positiveRate"`
	Trees        int      `json:"trees"`
	MaxDepth     int      `json:"maxDepth"`
	MaxFeatures  int      `json:"maxFeatures"`
	Seed         uint64   `json:"seed"`
	Metrics      *Metrics `json:"metrics,omitempty"`
}

// Metrics are hold-out evaluation scores at the 0.5 decision threshold.
// ROCAUC is nil when the hold-out set contains a single class.
type Metrics struct {
	Accuracy  float64  `json:"accuracy"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	ROCAUC    *float64 `json:"rocAuc,omitempty"`
}

// New wraps a fitted transform and forest into a fresh artifact.
func New(transform *preprocess.FeatureTransform, f *forest.Forest, info TrainingInfo) *Artifact {
	return &Artifact{
		FormatVersion: FormatVersion,
		SchemaVersion: models.SchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		FeatureNames:  transform.FeatureNames(),
		Transform:     transform,
		Forest:        f,
		Training:      info,
	}
}

// Validate checks version compatibility and the internal consistency of the
// transform and forest.
func (a *Artifact) Validate() error {
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("format version %d, expected %d", a.FormatVersion, FormatVersion)
	}
	if a.SchemaVersion != models.SchemaVersion {
		return fmt.Errorf("schema version %q, expected %q", a.SchemaVersion, models.SchemaVersion)
	}
	if a.Transform == nil || a.Forest == nil {
		return fmt.Errorf("transform and forest are required")
	}
	if err := a.Transform.Validate(); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	if err := a.Forest.Validate(); err != nil {
		return fmt.Errorf("forest: %w", err)
	}
	if w := a.Transform.Width(); w != a.Forest.NumFeatures {
		return fmt.Errorf("transform width %d does not match forest width %d", w, a.Forest.NumFeatures)
	}
	return nil
}

// PredictProba returns the class-1 probability for an applicant. It only
// reads the artifact and is safe for concurrent use.
func (a *Artifact) PredictProba(app models.Applicant) (float64, error) {
	row, err := preprocess.RowFromApplicant(app)
	if err != nil {
		return 0, err
	}
	return a.PredictRow(row)
}

// PredictRow returns the class-1 probability for an untransformed row.
func (a *Artifact) PredictRow(row preprocess.Row) (float64, error) {
	x, err := a.Transform.Transform(row)
	if err != nil {
		return 0, err
	}
	p, err := a.Forest.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return min(max(p, 0), 1), nil
}
