// internal/models/assessment.go
package models

import (
	"encoding/json"
	"math"
	"time"
)

// Category is the readiness bucket derived from the class-1 probability.
type Category string

const (
	CategoryReady       Category = "ready"
	CategoryAlmostReady Category = "almost ready"
	CategoryNotReady    Category = "not ready"
)

// Ratio is a float that may be +Inf. JSON has no infinity, so +Inf is
// encoded as null and null decodes back to +Inf.
type Ratio float64

func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(r), 0) || math.IsNaN(float64(r)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// Assessment is the merged output of the decision layer and the classifier.
type Assessment struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"applicationId,omitempty"`
	DTI             Ratio     `json:"dti"`
	MaxCredit       float64   `json:"maxCredit"`
	Category        Category  `json:"category"`
	Confidence      float64   `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	ModelID         string    `json:"modelId"`
	AssessedAt      time.Time `json:"assessedAt"`
}
