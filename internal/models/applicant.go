// internal/models/applicant.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// SchemaVersion identifies the generation of the canonical feature schema.
// Artifacts trained against a different generation are rejected at load time.
const SchemaVersion = "1"

type EmploymentType string

const (
	EmploymentPermanent EmploymentType = "permanent"
	EmploymentFreelance EmploymentType = "freelance"
	EmploymentBusiness  EmploymentType = "business"
)

// EmploymentTypes lists the accepted employment_type values.
var EmploymentTypes = []EmploymentType{
	EmploymentPermanent,
	EmploymentFreelance,
	EmploymentBusiness,
}

func (e EmploymentType) Valid() bool {
	for _, v := range EmploymentTypes {
		if e == v {
			return true
		}
	}
	return false
}

// Canonical column names, in file order.
const (
	ColAge             = "age"
	ColEmploymentType  = "employment_type"
	ColMonthlyIncome   = "monthly_income"
	ColMonthlyExpenses = "monthly_expenses"
	ColExistingLoans   = "existing_loans"
	ColOwnContribution = "own_contribution"
	ColPropertyValue   = "property_value"
	ColDependents      = "dependents"
	ColTarget          = "target"
)

// FeatureColumns is the ordered feature contract shared by training and inference.
var FeatureColumns = []string{
	ColAge,
	ColEmploymentType,
	ColMonthlyIncome,
	ColMonthlyExpenses,
	ColExistingLoans,
	ColOwnContribution,
	ColPropertyValue,
	ColDependents,
}

// CategoricalColumns are the features encoded by one-hot at training time.
var CategoricalColumns = []string{ColEmploymentType}

// CleanedColumns is the header of the cleaned-data file.
func CleanedColumns() []string {
	cols := make([]string, 0, len(FeatureColumns)+1)
	cols = append(cols, FeatureColumns...)
	return append(cols, ColTarget)
}

// IsCategorical reports whether col is one of CategoricalColumns.
func IsCategorical(col string) bool {
	for _, c := range CategoricalColumns {
		if c == col {
			return true
		}
	}
	return false
}

// NumericColumns returns the feature columns that are not categorical, in order.
func NumericColumns() []string {
	out := make([]string, 0, len(FeatureColumns))
	for _, c := range FeatureColumns {
		if !IsCategorical(c) {
			out = append(out, c)
		}
	}
	return out
}

// Applicant is a CleanedRecord without the target: the input of inference
// and of the decision layer.
type Applicant struct {
	Age             int            `json:"age"`
	EmploymentType  EmploymentType `json:"employment_type"`
	MonthlyIncome   float64        `json:"monthly_income"`
	MonthlyExpenses float64        `json:"monthly_expenses"`
	ExistingLoans   float64        `json:"existing_loans"`
	OwnContribution float64        `json:"own_contribution"`
	PropertyValue   float64        `json:"property_value"`
	Dependents      int            `json:"dependents"`
}

// Numeric returns the value of a numeric feature column.
func (a Applicant) Numeric(col string) (float64, error) {
	switch col {
	case ColAge:
		return float64(a.Age), nil
	case ColMonthlyIncome:
		return a.MonthlyIncome, nil
	case ColMonthlyExpenses:
		return a.MonthlyExpenses, nil
	case ColExistingLoans:
		return a.ExistingLoans, nil
	case ColOwnContribution:
		return a.OwnContribution, nil
	case ColPropertyValue:
		return a.PropertyValue, nil
	case ColDependents:
		return float64(a.Dependents), nil
	}
	return 0, fmt.Errorf("unknown numeric column %q", col)
}

// Categorical returns the value of a categorical feature column.
func (a Applicant) Categorical(col string) (string, error) {
	if col == ColEmploymentType {
		return string(a.EmploymentType), nil
	}
	return "", fmt.Errorf("unknown categorical column %q", col)
}

// ToMap renders the applicant with canonical column names, as used by validation.
func (a Applicant) ToMap() map[string]interface{} {
	return map[string]interface{}{
		ColAge:             a.Age,
		ColEmploymentType:  string(a.EmploymentType),
		ColMonthlyIncome:   a.MonthlyIncome,
		ColMonthlyExpenses: a.MonthlyExpenses,
		ColExistingLoans:   a.ExistingLoans,
		ColOwnContribution: a.OwnContribution,
		ColPropertyValue:   a.PropertyValue,
		ColDependents:      a.Dependents,
	}
}

// DecodeApplicant decodes an applicant document. Integer fields accept any
// integral JSON number, e.g. 30.0 or 1e2, as JSON Schema "integer" does.
func DecodeApplicant(data []byte) (Applicant, error) {
	var a Applicant
	aux := struct {
		*Applicant
		Age        json.Number `json:"age"`
		Dependents json.Number `json:"dependents"`
	}{Applicant: &a}
	if err := json.Unmarshal(data, &aux); err != nil {
		return Applicant{}, err
	}

	var err error
	if a.Age, err = integral(ColAge, aux.Age); err != nil {
		return Applicant{}, err
	}
	if a.Dependents, err = integral(ColDependents, aux.Dependents); err != nil {
		return Applicant{}, err
	}
	return a, nil
}

// maxExactInt is the largest integer a float64 represents exactly.
const maxExactInt = 1 << 53

func integral(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, fmt.Errorf("%s: must be an integer, got %s", field, n)
	}
	return int(f), nil
}

// CleanedRecord is one row of the cleaned training table.
type CleanedRecord struct {
	Applicant
	Target int `json:"target"`
}
