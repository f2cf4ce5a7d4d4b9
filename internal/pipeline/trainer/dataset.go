// internal/pipeline/trainer/dataset.go
package trainer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/ml/preprocess"
	"mortgage-readiness/internal/models"
)

// Dataset is the cleaned table split into untransformed rows and labels.
type Dataset struct {
	Rows   []preprocess.Row
	Labels []int
}

// ClassCounts returns the number of rows labelled 0 and 1.
func (d *Dataset) ClassCounts() (negatives, positives int) {
	for _, y := range d.Labels {
		positives += y
	}
	return len(d.Labels) - positives, positives
}

// LoadDataset reads a cleaned CSV. Empty or non-numeric numeric cells become
// NaN and empty categorical cells become "", both imputed at fit time. The
// target column must hold 0 or 1.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewTrainingDataNotFoundError(path)
		}
		return nil, apperrors.NewTrainingFailedError("open training data", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperrors.NewTrainingFailedError("training data is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewTrainingFailedError("read header", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range models.CleanedColumns() {
		if _, ok := index[col]; !ok {
			return nil, apperrors.NewTrainingFailedError(fmt.Sprintf("missing column %q", col), nil)
		}
	}

	numCols := models.NumericColumns()
	catCols := models.CategoricalColumns
	ds := &Dataset{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewTrainingFailedError("read training data", err)
		}

		label, err := strconv.Atoi(strings.TrimSpace(rec[index[models.ColTarget]]))
		if err != nil || (label != 0 && label != 1) {
			return nil, apperrors.NewTrainingFailedError(
				fmt.Sprintf("line %d: target %q is not 0 or 1", line, rec[index[models.ColTarget]]), err)
		}

		row := preprocess.Row{
			Numeric:     make([]float64, len(numCols)),
			Categorical: make([]string, len(catCols)),
		}
		for j, col := range numCols {
			row.Numeric[j] = parseCell(rec[index[col]])
		}
		for j, col := range catCols {
			row.Categorical[j] = strings.TrimSpace(rec[index[col]])
		}

		ds.Rows = append(ds.Rows, row)
		ds.Labels = append(ds.Labels, label)
	}

	if len(ds.Rows) == 0 {
		return nil, apperrors.NewTrainingFailedError("training data has no rows", nil)
	}
	return ds, nil
}

func parseCell(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
