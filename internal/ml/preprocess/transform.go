// internal/ml/preprocess/transform.go
package preprocess

import (
	"fmt"
	"math"
	"sort"

	"mortgage-readiness/internal/models"
)

// Row is one untransformed record. Numeric holds values for
// models.NumericColumns() with NaN marking a missing value; Categorical holds
// values for models.CategoricalColumns with "" marking a missing value.
type Row struct {
	Numeric     []float64
	Categorical []string
}

// RowFromApplicant lays out an applicant in the canonical column order.
func RowFromApplicant(a models.Applicant) (Row, error) {
	numCols := models.NumericColumns()
	row := Row{
		Numeric:     make([]float64, len(numCols)),
		Categorical: make([]string, len(models.CategoricalColumns)),
	}
	for i, col := range numCols {
		v, err := a.Numeric(col)
		if err != nil {
			return Row{}, err
		}
		row.Numeric[i] = v
	}
	for i, col := range models.CategoricalColumns {
		v, err := a.Categorical(col)
		if err != nil {
			return Row{}, err
		}
		row.Categorical[i] = v
	}
	return row, nil
}

// FeatureTransform is the fitted column transform: mean imputation for
// numeric columns, most-frequent imputation followed by one-hot encoding for
// categorical columns. Categories unseen at fit time encode as all zeros.
//
// The encoded vector lists the numeric columns first, then one indicator per
// category per categorical column.
type FeatureTransform struct {
	NumericColumns     []string   `json:"numericColumns"`
	Means              []float64  `json:"means"`
	CategoricalColumns []string   `json:"categoricalColumns"`
	Modes              []string   `json:"modes"`
	Categories         [][]string `json:"categories"`
}

// Fit learns imputation values and category sets from rows.
func Fit(rows []Row) (*FeatureTransform, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to fit")
	}

	numCols := models.NumericColumns()
	catCols := append([]string(nil), models.CategoricalColumns...)
	ft := &FeatureTransform{
		NumericColumns:     numCols,
		Means:              make([]float64, len(numCols)),
		CategoricalColumns: catCols,
		Modes:              make([]string, len(catCols)),
		Categories:         make([][]string, len(catCols)),
	}

	for j := range numCols {
		var sum float64
		var n int
		for i, r := range rows {
			if len(r.Numeric) != len(numCols) {
				return nil, fmt.Errorf("row %d: expected %d numeric values, got %d", i, len(numCols), len(r.Numeric))
			}
			if v := r.Numeric[j]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		// An all-missing column imputes to zero.
		if n > 0 {
			ft.Means[j] = sum / float64(n)
		}
	}

	for j := range catCols {
		counts := make(map[string]int)
		for i, r := range rows {
			if len(r.Categorical) != len(catCols) {
				return nil, fmt.Errorf("row %d: expected %d categorical values, got %d", i, len(catCols), len(r.Categorical))
			}
			if v := r.Categorical[j]; v != "" {
				counts[v]++
			}
		}
		ft.Modes[j] = mostFrequent(counts)

		cats := make([]string, 0, len(counts))
		for v := range counts {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		ft.Categories[j] = cats
	}

	return ft, nil
}

// mostFrequent returns the highest-count value, the smallest on ties.
func mostFrequent(counts map[string]int) string {
	var best string
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// Width is the length of an encoded vector.
func (ft *FeatureTransform) Width() int {
	w := len(ft.NumericColumns)
	for _, cats := range ft.Categories {
		w += len(cats)
	}
	return w
}

// FeatureNames names each position of the encoded vector.
func (ft *FeatureTransform) FeatureNames() []string {
	names := make([]string, 0, ft.Width())
	names = append(names, ft.NumericColumns...)
	for j, col := range ft.CategoricalColumns {
		for _, cat := range ft.Categories[j] {
			names = append(names, col+"_"+cat)
		}
	}
	return names
}

// Transform encodes one row. The result is a fresh slice.
func (ft *FeatureTransform) Transform(r Row) ([]float64, error) {
	if len(r.Numeric) != len(ft.NumericColumns) || len(r.Categorical) != len(ft.CategoricalColumns) {
		return nil, fmt.Errorf("row shape %d/%d does not match transform %d/%d",
			len(r.Numeric), len(r.Categorical), len(ft.NumericColumns), len(ft.CategoricalColumns))
	}

	out := make([]float64, ft.Width())
	for j, v := range r.Numeric {
		if math.IsNaN(v) {
			v = ft.Means[j]
		}
		out[j] = v
	}

	offset := len(ft.NumericColumns)
	for j, v := range r.Categorical {
		if v == "" {
			v = ft.Modes[j]
		}
		cats := ft.Categories[j]
		if k := sort.SearchStrings(cats, v); k < len(cats) && cats[k] == v {
			out[offset+k] = 1
		}
		offset += len(cats)
	}
	return out, nil
}

// TransformAll encodes every row.
func (ft *FeatureTransform) TransformAll(rows []Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		x, err := ft.Transform(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

// Validate checks that a decoded transform matches the canonical schema.
func (ft *FeatureTransform) Validate() error {
	if !equalStrings(ft.NumericColumns, models.NumericColumns()) {
		return fmt.Errorf("numeric columns %v do not match schema", ft.NumericColumns)
	}
	if !equalStrings(ft.CategoricalColumns, models.CategoricalColumns) {
		return fmt.Errorf("categorical columns %v do not match schema", ft.CategoricalColumns)
	}
	if len(ft.Means) != len(ft.NumericColumns) {
		return fmt.Errorf("expected %d means, got %d", len(ft.NumericColumns), len(ft.Means))
	}
	if len(ft.Modes) != len(ft.CategoricalColumns) || len(ft.Categories) != len(ft.CategoricalColumns) {
		return fmt.Errorf("categorical imputation does not match %d columns", len(ft.CategoricalColumns))
	}
	for j, cats := range ft.Categories {
		if !sort.StringsAreSorted(cats) {
			return fmt.Errorf("categories of %s are not sorted", ft.CategoricalColumns[j])
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
