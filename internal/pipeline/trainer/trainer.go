// internal/pipeline/trainer/trainer.go
package trainer

import (
	"context"
	"time"

	"mortgage-readiness/internal/artifact"
	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/logger"
	"mortgage-readiness/internal/ml/forest"
	"mortgage-readiness/internal/ml/preprocess"
)

const DefaultTestFraction = 0.2

// Options configures one training run.
type Options struct {
	CleanedPath  string
	ModelPath    string
	Trees        int
	MaxDepth     int
	Seed         uint64
	TestFraction float64
	Workers      int
	Logger       logger.Logger
}

func (o *Options) applyDefaults() {
	if o.Trees <= 0 {
		o.Trees = forest.DefaultTrees
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		o.TestFraction = DefaultTestFraction
	}
	if o.Logger == nil {
		o.Logger = logger.NewNoOpLogger()
	}
}

// Result describes a persisted artifact.
type Result struct {
	Artifact  *artifact.Artifact
	ModelPath string
	TrainRows int
	TestRows  int
	Metrics   *artifact.Metrics
	Duration  time.Duration
}

// Train fits the feature transform and forest on a stratified split of the
// cleaned table, evaluates the hold-out rows and saves the artifact.
func Train(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()
	start := time.Now()
	log := opts.Logger.With(map[string]interface{}{
		"input": opts.CleanedPath,
		"model": opts.ModelPath,
	})

	ds, err := LoadDataset(opts.CleanedPath)
	if err != nil {
		return nil, err
	}

	negatives, positives := ds.ClassCounts()
	log.Info("loaded training data", map[string]interface{}{
		"rows":         len(ds.Rows),
		"positives":    positives,
		"negatives":    negatives,
		"positiveRate": float64(positives) / float64(len(ds.Rows)),
	})
	switch {
	case positives == 0:
		return nil, apperrors.NewDegenerateLabelsError(0, len(ds.Rows))
	case negatives == 0:
		return nil, apperrors.NewDegenerateLabelsError(1, len(ds.Rows))
	}

	trainIdx, testIdx := stratifiedSplit(ds.Labels, opts.TestFraction, opts.Seed)
	trainRows, trainLabels := subset(ds, trainIdx)

	transform, err := preprocess.Fit(trainRows)
	if err != nil {
		return nil, apperrors.NewTrainingFailedError("fit feature transform", err)
	}
	x, err := transform.TransformAll(trainRows)
	if err != nil {
		return nil, apperrors.NewTrainingFailedError("transform training rows", err)
	}

	params := forest.Params{
		Trees:    opts.Trees,
		MaxDepth: opts.MaxDepth,
		Seed:     opts.Seed,
		Workers:  opts.Workers,
	}
	fitted, err := forest.Fit(ctx, x, trainLabels, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.NewTrainingFailedError("fit forest", err)
	}

	info := artifact.TrainingInfo{
		SourcePath:   opts.CleanedPath,
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
		PositiveRate: float64(positives) / float64(len(ds.Rows)),
		Trees:        len(fitted.Trees),
		MaxDepth:     opts.MaxDepth,
		MaxFeatures:  params.EffectiveMaxFeatures(transform.Width()),
		Seed:         opts.Seed,
	}
	a := artifact.New(transform, fitted, info)

	if len(testIdx) > 0 {
		testRows, testLabels := subset(ds, testIdx)
		probs := make([]float64, len(testRows))
		for i, r := range testRows {
			if probs[i], err = a.PredictRow(r); err != nil {
				return nil, apperrors.NewTrainingFailedError("score hold-out rows", err)
			}
		}
		a.Training.Metrics = evaluate(probs, testLabels)
		logMetrics(log, a.Training.Metrics)
	}

	if err := artifact.Save(opts.ModelPath, a); err != nil {
		return nil, err
	}

	res := &Result{
		Artifact:  a,
		ModelPath: opts.ModelPath,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Metrics:   a.Training.Metrics,
		Duration:  time.Since(start),
	}
	log.Info("model trained and saved", map[string]interface{}{
		"artifactId":  a.ID,
		"trainRows":   res.TrainRows,
		"testRows":    res.TestRows,
		"trees":       len(fitted.Trees),
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res, nil
}

func subset(ds *Dataset, idx []int) ([]preprocess.Row, []int) {
	rows := make([]preprocess.Row, len(idx))
	labels := make([]int, len(idx))
	for i, j := range idx {
		rows[i] = ds.Rows[j]
		labels[i] = ds.Labels[j]
	}
	return rows, labels
}

func logMetrics(log logger.Logger, m *artifact.Metrics) {
	fields := map[string]interface{}{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
	}
	if m.ROCAUC != nil {
		fields["rocAuc"] = *m.ROCAUC
	}
	log.Info("hold-out evaluation", fields)
}
