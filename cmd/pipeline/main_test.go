// cmd/pipeline/main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-readiness/internal/classifier"
	"mortgage-readiness/internal/models"
)

const applicantJSON = `{
  "age": 40,
  "employment_type": "permanent",
  "monthly_income": 5000,
  "monthly_expenses": 1500,
  "existing_loans": 500,
  "own_contribution": 20000,
  "property_value": 300000,
  "dependents": 2
}`

// execute runs the root command with flags reset to their defaults.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

type workspace struct {
	dir       string
	config    string
	raw       string
	applicant string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	w := workspace{
		dir:       dir,
		config:    filepath.Join(dir, "config.yaml"),
		raw:       filepath.Join(dir, "raw.csv"),
		applicant: filepath.Join(dir, "applicant.json"),
	}

	cfg := fmt.Sprintf(`logging:
  level: error
  format: json
  output: stderr
pipeline:
  raw_data_path: %s
  cleaned_data_path: %s
  model_path: %s
  trees: 10
  seed: 3
`, w.raw, filepath.Join(dir, "cleaned.csv"), filepath.Join(dir, "model.json"))
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(w.applicant, []byte(applicantJSON), 0o644))

	var b strings.Builder
	b.WriteString("loan_amount,property_value,income,applicant_age,action_taken\n")
	for i := 0; i < 200; i++ {
		income, action := 70+i%40, 1
		if i%2 == 1 {
			income, action = 8+i%20, 3
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d\n", 200000+i*100, 250000+i*150, income, 25+i%30, action)
	}
	require.NoError(t, os.WriteFile(w.raw, []byte(b.String()), 0o644))
	return w
}

func TestCommandsRegistered(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"clean", "train", "predict", "assess"})
}

func TestCleanTrainPredictAssess(t *testing.T) {
	w := newWorkspace(t)

	out, err := execute(t, "", "clean", "--config", w.config, "--chunk-size", "64")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned 200 of 200 rows in 4 chunks")

	out, err = execute(t, "", "train", "--config", w.config, "--trees", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "40 test rows")
	assert.Contains(t, out, "roc auc")

	out, err = execute(t, "", "predict", "--config", w.config, "--applicant", w.applicant, "--json")
	require.NoError(t, err)
	var p prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.GreaterOrEqual(t, p.Probability, 0.0)
	assert.LessOrEqual(t, p.Probability, 1.0)
	assert.Equal(t, string(classifier.CategoryFor(p.Probability)), p.Category)
	assert.NotEqual(t, classifier.StubModelID, p.ModelID)

	out, err = execute(t, "", "assess", "--config", w.config, "--applicant", w.applicant,
		"--application-id", "app-17", "--json")
	require.NoError(t, err)
	var a models.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "app-17", a.ApplicationID)
	assert.Equal(t, p.ModelID, a.ModelID)
	assert.InDelta(t, p.Probability, a.Confidence, 1e-12)
	assert.InDelta(t, 0.4, float64(a.DTI), 1e-9)
	assert.InDelta(t, 350000, a.MaxCredit, 1e-6)
	assert.Contains(t, a.Recommendations, "Try to increase your own contribution")
}

func TestAssess_StubFromStdin(t *testing.T) {
	w := newWorkspace(t)

	out, err := execute(t, applicantJSON, "assess", "--config", w.config, "--stub")
	require.NoError(t, err)
	assert.Contains(t, out, "category:    ready (confidence 0.8500)")
	assert.Contains(t, out, "dti:         0.4000")
	assert.Contains(t, out, "max credit:  350000.00")
	assert.Contains(t, out, "  - Consider repaying existing loans to improve your score")
}

func TestPredict_InvalidApplicant(t *testing.T) {
	w := newWorkspace(t)

	_, err := execute(t, `{"age": 10, "employment_type": "permanent"}`, "predict", "--config", w.config, "--stub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICANT_VALIDATION_FAILED")
	assert.Contains(t, err.Error(), "monthly_income")

	_, err = execute(t, `not json`, "predict", "--config", w.config, "--stub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICANT_VALIDATION_FAILED")
}

func TestPredict_MissingModel(t *testing.T) {
	w := newWorkspace(t)

	_, err := execute(t, applicantJSON, "predict", "--config", w.config, "--model", filepath.Join(w.dir, "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_NOT_FOUND")
}

func TestClean_MissingInput(t *testing.T) {
	w := newWorkspace(t)

	_, err := execute(t, "", "clean", "--config", w.config, "--input", filepath.Join(w.dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAW_DATA_NOT_FOUND")
	_, statErr := os.Stat(filepath.Join(w.dir, "cleaned.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRoot_BadConfig(t *testing.T) {
	_, err := execute(t, "", "clean", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestAssess_IntegralFloatFields(t *testing.T) {
	w := newWorkspace(t)
	doc := strings.Replace(strings.Replace(applicantJSON, `"age": 40`, `"age": 40.0`, 1), `"dependents": 2`, `"dependents": 2e0`, 1)

	out, err := execute(t, doc, "assess", "--config", w.config, "--stub", "--json")
	require.NoError(t, err)
	var a models.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.InDelta(t, 0.4, float64(a.DTI), 1e-9)

	_, err = execute(t, strings.Replace(applicantJSON, `"age": 40`, `"age": 40.5`, 1), "predict", "--config", w.config, "--stub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")
}
