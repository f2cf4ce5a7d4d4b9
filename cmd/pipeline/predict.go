// cmd/pipeline/predict.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mortgage-readiness/internal/classifier"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one applicant with the classifier",
	Long: `Prints the probability that the applicant is mortgage ready and the
readiness category derived from it.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	addScoringFlags(predictCmd)
	rootCmd.AddCommand(predictCmd)
}

type prediction struct {
	ModelID     string  `json:"modelId"`
	Probability float64 `json:"probability"`
	Category    string  `json:"category"`
}

func runPredict(cmd *cobra.Command, _ []string) error {
	a, err := readApplicant(cmd)
	if err != nil {
		return err
	}
	clf, err := loadClassifier()
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	p, err := clf.PredictProba(a)
	if err != nil {
		return fmt.Errorf("predict failed: %w", err)
	}
	out := prediction{
		ModelID:     clf.ModelID(),
		Probability: p,
		Category:    string(classifier.CategoryFor(p)),
	}

	if scoreJSON {
		return printJSON(cmd, out)
	}
	cmd.Printf("model:       %s\n", out.ModelID)
	cmd.Printf("probability: %.4f\n", out.Probability)
	cmd.Printf("category:    %s\n", out.Category)
	return nil
}
