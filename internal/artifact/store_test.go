package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/ml/forest"
	"mortgage-readiness/internal/ml/preprocess"
	"mortgage-readiness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicant(income, contribution float64, emp models.EmploymentType) models.Applicant {
	return models.Applicant{
		Age:             35,
		EmploymentType:  emp,
		MonthlyIncome:   income,
		MonthlyExpenses: income * 0.3,
		OwnContribution: contribution,
		PropertyValue:   300000,
	}
}

func fitArtifact(t *testing.T) *Artifact {
	t.Helper()
	var rows []preprocess.Row
	var y []int
	for i := 0; i < 60; i++ {
		emp := models.EmploymentPermanent
		if i%3 == 0 {
			emp = models.EmploymentFreelance
		}
		a := applicant(float64(2000+i*100), float64(i*1000), emp)
		r, err := preprocess.RowFromApplicant(a)
		require.NoError(t, err)
		rows = append(rows, r)
		if i >= 30 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	ft, err := preprocess.Fit(rows)
	require.NoError(t, err)
	x, err := ft.TransformAll(rows)
	require.NoError(t, err)
	f, err := forest.Fit(context.Background(), x, y, forest.Params{Trees: 5, Seed: 42})
	require.NoError(t, err)

	return New(ft, f, TrainingInfo{TrainRows: len(rows), Trees: 5, Seed: 42})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	a := fitArtifact(t)
	path := filepath.Join(t.TempDir(), "models", "nested", "model.json")

	require.NoError(t, Save(path, a))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, a.ID, loaded.ID)
	assert.Equal(t, models.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, a.FeatureNames, loaded.FeatureNames)
	assert.True(t, a.CreatedAt.Equal(loaded.CreatedAt))

	for _, app := range []models.Applicant{
		applicant(2500, 1000, models.EmploymentPermanent),
		applicant(7000, 50000, models.EmploymentFreelance),
		applicant(4000, 0, models.EmploymentBusiness),
	} {
		want, err := a.PredictProba(app)
		require.NoError(t, err)
		got, err := loaded.PredictProba(app)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestNew_AssignsFreshIDs(t *testing.T) {
	a := fitArtifact(t)
	b := New(a.Transform, a.Forest, a.Training)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, FormatVersion, b.FormatVersion)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArtifactNotFound))
}

func TestLoad_Invalid(t *testing.T) {
	a := fitArtifact(t)

	tests := []struct {
		name  string
		write func(t *testing.T, path string)
	}{
		{"garbage", func(t *testing.T, path string) {
			require.NoError(t, os.WriteFile(path, []byte("\x80\x03pickle"), 0o644))
		}},
		{"schema mismatch", func(t *testing.T, path string) {
			b := *a
			b.SchemaVersion = "0"
			writeJSON(t, path, &b)
		}},
		{"format mismatch", func(t *testing.T, path string) {
			b := *a
			b.FormatVersion = 99
			writeJSON(t, path, &b)
		}},
		{"missing forest", func(t *testing.T, path string) {
			b := *a
			b.Forest = nil
			writeJSON(t, path, &b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.json")
			tt.write(t, path)

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArtifactInvalid), "got %v", err)
		})
	}
}

func TestSave_RejectsInvalidArtifact(t *testing.T) {
	a := fitArtifact(t)
	a.SchemaVersion = "legacy"

	path := filepath.Join(t.TempDir(), "model.json")
	err := Save(path, a)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArtifactSaveFailed))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}
