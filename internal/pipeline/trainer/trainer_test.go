package trainer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mortgage-readiness/internal/artifact"
	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/logger"
	"mortgage-readiness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCleaned writes n rows whose target is 1 iff monthly income is at least
// 5000. Every seventh row has blank cells to exercise imputation.
func writeCleaned(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	var b strings.Builder
	b.WriteString(strings.Join(models.CleanedColumns(), ",") + "\n")
	for i := 0; i < n; i++ {
		income := 2000 + float64(i%60)*100
		target := 0
		if income >= 5000 {
			target = 1
		}
		age := fmt.Sprint(20 + rng.IntN(50))
		emp := "permanent"
		if i%7 == 0 {
			age, emp = "", ""
		}
		fmt.Fprintf(&b, "%s,%s,%g,%g,0,%d,%d,0,%d\n",
			age, emp, income, income*0.3, 1000*rng.IntN(50), 100000+1000*rng.IntN(300), target)
	}
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func trainOptions(t *testing.T, cleaned string) Options {
	return Options{
		CleanedPath: cleaned,
		ModelPath:   filepath.Join(t.TempDir(), "models", "model.json"),
		Trees:       10,
		Seed:        42,
		Logger:      logger.NewTestLogger(t),
	}
}

func TestTrain_PersistsEvaluatedArtifact(t *testing.T) {
	opts := trainOptions(t, writeCleaned(t, 240))

	res, err := Train(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 240, res.TrainRows+res.TestRows)
	assert.Equal(t, 48, res.TestRows)
	require.NotNil(t, res.Metrics)
	assert.Greater(t, res.Metrics.Accuracy, 0.75)
	require.NotNil(t, res.Metrics.ROCAUC)
	assert.Greater(t, *res.Metrics.ROCAUC, 0.75)

	assert.Equal(t, 10, res.Artifact.Training.Trees)
	assert.Equal(t, 2, res.Artifact.Training.MaxFeatures)
	assert.Equal(t, []string{"employment_type_permanent"}, res.Artifact.FeatureNames[7:])

	_, err = os.Stat(opts.ModelPath)
	assert.NoError(t, err)
}

func TestTrain_RoundTripHasNoSerializationDrift(t *testing.T) {
	cleaned := writeCleaned(t, 150)
	opts := trainOptions(t, cleaned)

	res, err := Train(context.Background(), opts)
	require.NoError(t, err)
	loaded, err := artifact.Load(opts.ModelPath)
	require.NoError(t, err)

	ds, err := LoadDataset(cleaned)
	require.NoError(t, err)
	for i, row := range ds.Rows {
		want, err := res.Artifact.PredictRow(row)
		require.NoError(t, err)
		got, err := loaded.PredictRow(row)
		require.NoError(t, err)
		require.Equal(t, want, got, "row %d", i)
	}
}

func TestTrain_IsReproducible(t *testing.T) {
	cleaned := writeCleaned(t, 120)

	a, err := Train(context.Background(), trainOptions(t, cleaned))
	require.NoError(t, err)
	b, err := Train(context.Background(), trainOptions(t, cleaned))
	require.NoError(t, err)

	assert.Equal(t, a.Artifact.Forest, b.Artifact.Forest)
	assert.Equal(t, a.Metrics, b.Metrics)
	assert.NotEqual(t, a.Artifact.ID, b.Artifact.ID)
}

func TestTrain_DegenerateLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	content := strings.Join(models.CleanedColumns(), ",") + "\n" +
		"30,permanent,5000,1500,0,20000,300000,0,1\n" +
		"40,permanent,6000,1800,0,30000,300000,0,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	opts := trainOptions(t, path)

	_, err := Train(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDegenerateLabels))

	_, statErr := os.Stat(opts.ModelPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTrain_InputErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	header := strings.Join(models.CleanedColumns(), ",") + "\n"

	tests := []struct {
		name string
		path string
		code apperrors.ErrorCode
	}{
		{"missing file", filepath.Join(dir, "absent.csv"), apperrors.ErrCodeTrainingDataNotFound},
		{"empty file", write("empty.csv", ""), apperrors.ErrCodeTrainingFailed},
		{"header only", write("header.csv", header), apperrors.ErrCodeTrainingFailed},
		{"missing column", write("cols.csv", "age,target\n30,1\n"), apperrors.ErrCodeTrainingFailed},
		{"bad target", write("target.csv", header+"30,permanent,5000,1500,0,20000,300000,0,yes\n"), apperrors.ErrCodeTrainingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Train(context.Background(), trainOptions(t, tt.path))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadDataset_MissingCellsAreNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	content := strings.Join(models.CleanedColumns(), ",") + "\n" +
		",,5000,1500,0,n/a,300000,0,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)

	r := ds.Rows[0]
	assert.True(t, r.Numeric[0] != r.Numeric[0], "age should be NaN")
	assert.True(t, r.Numeric[4] != r.Numeric[4], "own_contribution should be NaN")
	assert.Equal(t, 5000.0, r.Numeric[1])
	assert.Equal(t, "", r.Categorical[0])
	assert.Equal(t, []int{1}, ds.Labels)
}

func TestStratifiedSplit(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1}

	train, test := stratifiedSplit(labels, 0.2, 42)
	assert.Len(t, test, 3)
	assert.Len(t, train, 12)

	seen := map[int]bool{}
	testPositives := 0
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	for _, i := range test {
		testPositives += labels[i]
	}
	assert.Len(t, seen, len(labels))
	assert.Equal(t, 1, testPositives)
	assert.IsIncreasing(t, train)

	again, _ := stratifiedSplit(labels, 0.2, 42)
	assert.Equal(t, train, again)
}

func TestStratifiedSplit_KeepsSingletonClassInTrain(t *testing.T) {
	train, test := stratifiedSplit([]int{0, 0, 0, 0, 0, 1}, 0.5, 1)
	assert.Contains(t, train, 5)
	assert.NotContains(t, test, 5)
}

func TestEvaluate(t *testing.T) {
	m := evaluate([]float64{0.9, 0.8, 0.3, 0.6, 0.1, 0.5}, []int{1, 1, 1, 0, 0, 0})

	// tp=2 fp=1 fn=1 tn=2
	assert.InDelta(t, 4.0/6, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, m.F1, 1e-12)
	require.NotNil(t, m.ROCAUC)
	assert.InDelta(t, 7.0/9, *m.ROCAUC, 1e-12)
}

func TestROCAUC(t *testing.T) {
	auc, ok := rocAUC([]float64{0.1, 0.2, 0.8, 0.9}, []int{0, 0, 1, 1})
	assert.True(t, ok)
	assert.Equal(t, 1.0, auc)

	auc, _ = rocAUC([]float64{0.9, 0.8, 0.2, 0.1}, []int{0, 0, 1, 1})
	assert.Equal(t, 0.0, auc)

	auc, _ = rocAUC([]float64{0.5, 0.5, 0.5, 0.5}, []int{0, 1, 0, 1})
	assert.Equal(t, 0.5, auc)

	_, ok = rocAUC([]float64{0.5, 0.7}, []int{1, 1})
	assert.False(t, ok)
}
