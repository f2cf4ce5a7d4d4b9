package preprocess

import (
	"encoding/json"
	"math"
	"testing"

	"mortgage-readiness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// numeric order: age, monthly_income, monthly_expenses, existing_loans,
// own_contribution, property_value, dependents
func row(cat string, nums ...float64) Row {
	return Row{Numeric: nums, Categorical: []string{cat}}
}

func TestFit_ImputesMeansAndModes(t *testing.T) {
	rows := []Row{
		row("permanent", 30, 5000, 1500, 0, 20000, 300000, 0),
		row("freelance", 40, nan, 1000, 200, 10000, 200000, 2),
		row("permanent", nan, 7000, 2000, 400, nan, 400000, 1),
		row("", 50, 6000, nan, nan, 30000, nan, nan),
	}

	ft, err := Fit(rows)
	require.NoError(t, err)

	assert.Equal(t, models.NumericColumns(), ft.NumericColumns)
	assert.InDeltaSlice(t, []float64{40, 6000, 1500, 200, 20000, 300000, 1}, ft.Means, 1e-9)
	assert.Equal(t, []string{"permanent"}, ft.Modes)
	assert.Equal(t, [][]string{{"freelance", "permanent"}}, ft.Categories)
	assert.Equal(t, 9, ft.Width())
	assert.Equal(t, "employment_type_freelance", ft.FeatureNames()[7])

	x, err := ft.Transform(rows[3])
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 6000, 1500, 200, 30000, 300000, 1, 0, 1}, x)
}

func TestTransform_UnknownCategoryEncodesZeros(t *testing.T) {
	ft, err := Fit([]Row{
		row("permanent", 30, 1, 1, 1, 1, 1, 0),
		row("business", 30, 1, 1, 1, 1, 1, 0),
	})
	require.NoError(t, err)

	x, err := ft.Transform(row("freelance", 30, 1, 1, 1, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x[7:])

	x, err = ft.Transform(row("permanent", 30, 1, 1, 1, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, x[7:])
}

func TestMostFrequent_TieBreaksLexically(t *testing.T) {
	assert.Equal(t, "business", mostFrequent(map[string]int{"permanent": 2, "business": 2, "freelance": 1}))
	assert.Equal(t, "", mostFrequent(map[string]int{}))
}

func TestFit_AllMissingColumnImputesZero(t *testing.T) {
	ft, err := Fit([]Row{row("permanent", nan, 1, 1, 1, 1, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ft.Means[0])
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(nil)
	assert.Error(t, err)

	_, err = Fit([]Row{{Numeric: []float64{1}, Categorical: []string{"permanent"}}})
	assert.Error(t, err)
}

func TestRowFromApplicant(t *testing.T) {
	r, err := RowFromApplicant(models.Applicant{
		Age: 30, EmploymentType: models.EmploymentBusiness, MonthlyIncome: 5000, MonthlyExpenses: 1500,
		ExistingLoans: 500, OwnContribution: 20000, PropertyValue: 300000, Dependents: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 5000, 1500, 500, 20000, 300000, 1}, r.Numeric)
	assert.Equal(t, []string{"business"}, r.Categorical)
}

func TestValidate_DecodedTransform(t *testing.T) {
	ft, err := Fit([]Row{row("permanent", 30, 1, 1, 1, 1, 1, 0)})
	require.NoError(t, err)

	raw, err := json.Marshal(ft)
	require.NoError(t, err)
	var decoded FeatureTransform
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NoError(t, decoded.Validate())

	decoded.NumericColumns = decoded.NumericColumns[1:]
	assert.Error(t, decoded.Validate())
}
