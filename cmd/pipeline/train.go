// cmd/pipeline/train.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mortgage-readiness/internal/pipeline/trainer"
)

var (
	trainData     string
	trainModel    string
	trainTrees    int
	trainMaxDepth int
	trainSeed     uint64
	trainWorkers  int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the readiness classifier on the cleaned table",
	Long: `Fits the feature transform and the random forest on a stratified split
of the cleaned table, reports hold-out metrics and saves the model artifact.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainData, "data", "d", "", "cleaned CSV path (default: pipeline.cleaned_data_path)")
	trainCmd.Flags().StringVarP(&trainModel, "model", "m", "", "artifact output path (default: pipeline.model_path)")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (default: pipeline.trees)")
	trainCmd.Flags().IntVar(&trainMaxDepth, "max-depth", -1, "maximum tree depth, 0 for unlimited (default: pipeline.max_depth)")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "random seed (default: pipeline.seed)")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 0, "trees fitted in parallel (default: GOMAXPROCS)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	opts := trainer.Options{
		CleanedPath:  firstNonEmpty(trainData, cfg.Pipeline.CleanedDataPath),
		ModelPath:    firstNonEmpty(trainModel, cfg.Pipeline.ModelPath),
		Trees:        cfg.Pipeline.Trees,
		MaxDepth:     cfg.Pipeline.MaxDepth,
		Seed:         cfg.Pipeline.Seed,
		TestFraction: cfg.Pipeline.TestFraction,
		Workers:      trainWorkers,
		Logger:       log,
	}
	if trainTrees > 0 {
		opts.Trees = trainTrees
	}
	if trainMaxDepth >= 0 {
		opts.MaxDepth = trainMaxDepth
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = trainSeed
	}

	res, err := trainer.Train(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("train failed: %w", err)
	}

	cmd.Printf("Model %s saved to %s (%d train rows, %d test rows)\n",
		res.Artifact.ID, res.ModelPath, res.TrainRows, res.TestRows)
	if m := res.Metrics; m != nil {
		cmd.Printf("  accuracy  %.4f\n", m.Accuracy)
		cmd.Printf("  precision %.4f\n", m.Precision)
		cmd.Printf("  recall    %.4f\n", m.Recall)
		cmd.Printf("  f1        %.4f\n", m.F1)
		if m.ROCAUC != nil {
			cmd.Printf("  roc auc   %.4f\n", *m.ROCAUC)
		}
	}
	return nil
}
