// cmd/pipeline/clean.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mortgage-readiness/internal/pipeline/cleaner"
)

var (
	cleanInput     string
	cleanOutput    string
	cleanChunkSize int
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw lending records into the training table",
	Long: `Reads the raw public lending CSV in chunks, drops rows with missing or
implausible values and writes the cleaned table in the canonical column order.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "raw CSV path (default: pipeline.raw_data_path)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "cleaned CSV path (default: pipeline.cleaned_data_path)")
	cleanCmd.Flags().IntVar(&cleanChunkSize, "chunk-size", 0, "rows per chunk (default: pipeline.chunk_size)")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	opts := cleaner.Options{
		InputPath:        firstNonEmpty(cleanInput, cfg.Pipeline.RawDataPath),
		OutputPath:       firstNonEmpty(cleanOutput, cfg.Pipeline.CleanedDataPath),
		ChunkSize:        cfg.Pipeline.ChunkSize,
		IncomeUnitFactor: cfg.Pipeline.IncomeUnitFactor,
		ExpenseRatio:     cfg.Pipeline.ExpenseRatio,
		Logger:           log,
	}
	if cleanChunkSize > 0 {
		opts.ChunkSize = cleanChunkSize
	}

	report, err := cleaner.Clean(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}

	cmd.Printf("Cleaned %d of %d rows in %d chunks -> %s\n",
		report.RowsRetained, report.RowsRead, report.Chunks, report.OutputPath)
	for _, reason := range cleaner.DropReasons {
		if n := report.Dropped[reason]; n > 0 {
			cmd.Printf("  dropped %-22s %d\n", reason, n)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
