// cmd/pipeline/assess.go
package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"mortgage-readiness/internal/assessment"
)

var assessApplicationID string

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run a full readiness assessment for one applicant",
	Long: `Combines the classifier score with the debt-to-income ratio, the maximum
affordable credit and the recommendations for one applicant.`,
	Args: cobra.NoArgs,
	RunE: runAssess,
}

func init() {
	addScoringFlags(assessCmd)
	assessCmd.Flags().StringVar(&assessApplicationID, "application-id", "", "application id recorded on the assessment")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	a, err := readApplicant(cmd)
	if err != nil {
		return err
	}
	clf, err := loadClassifier()
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	svc := assessment.NewService(clf, assessment.Options{Logger: log})
	res, err := svc.AssessApplication(cmd.Context(), assessApplicationID, a)
	if err != nil {
		return fmt.Errorf("assess failed: %w", err)
	}

	if scoreJSON {
		return printJSON(cmd, res)
	}
	cmd.Printf("assessment:  %s\n", res.ID)
	cmd.Printf("category:    %s (confidence %.4f)\n", res.Category, res.Confidence)
	if math.IsInf(float64(res.DTI), 1) {
		cmd.Println("dti:         undefined (no income)")
	} else {
		cmd.Printf("dti:         %.4f\n", float64(res.DTI))
	}
	cmd.Printf("max credit:  %.2f\n", res.MaxCredit)
	cmd.Println("recommendations:")
	for _, r := range res.Recommendations {
		cmd.Printf("  - %s\n", r)
	}
	return nil
}
