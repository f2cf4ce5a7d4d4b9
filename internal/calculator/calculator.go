// internal/calculator/calculator.go
package calculator

import (
	"math"

	"mortgage-readiness/internal/models"
)

// CreditMultiplier scales monthly disposable income into a credit ceiling.
const CreditMultiplier = 100

const (
	MinContributionShare = 0.1
	MaxExpenseShare      = 0.5
)

const (
	RecIncreaseContribution = "Try to increase your own contribution"
	RecReduceExpenses       = "Try to reduce your monthly expenses"
	RecRepayLoans           = "Consider repaying existing loans to improve your score"
	RecOnTrack              = "You're on the right track!"
)

// DebtToIncome returns (expenses + loans) / income, or +Inf for zero income.
func DebtToIncome(a models.Applicant) float64 {
	if a.MonthlyIncome == 0 {
		return math.Inf(1)
	}
	return (a.MonthlyExpenses + a.ExistingLoans) / a.MonthlyIncome
}

// MaxAffordableCredit assumes all disposable monthly income goes to repayment.
func MaxAffordableCredit(a models.Applicant) float64 {
	return (a.MonthlyIncome - a.MonthlyExpenses) * CreditMultiplier
}

// Recommendations lists advice in a fixed order. It is never empty.
func Recommendations(a models.Applicant) []string {
	var recs []string
	if a.OwnContribution < MinContributionShare*a.PropertyValue {
		recs = append(recs, RecIncreaseContribution)
	}
	if a.MonthlyExpenses > MaxExpenseShare*a.MonthlyIncome {
		recs = append(recs, RecReduceExpenses)
	}
	if a.ExistingLoans > 0 {
		recs = append(recs, RecRepayLoans)
	}
	if len(recs) == 0 {
		recs = append(recs, RecOnTrack)
	}
	return recs
}
