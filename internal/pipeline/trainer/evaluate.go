// internal/pipeline/trainer/evaluate.go
package trainer

import (
	"sort"

	"mortgage-readiness/internal/artifact"
)

// evaluate scores probabilities against labels. A probability above 0.5
// predicts class 1. Undefined ratios are reported as zero.
func evaluate(probs []float64, labels []int) *artifact.Metrics {
	var tp, fp, tn, fn int
	for i, p := range probs {
		predicted := p > 0.5
		switch {
		case predicted && labels[i] == 1:
			tp++
		case predicted:
			fp++
		case labels[i] == 1:
			fn++
		default:
			tn++
		}
	}

	m := &artifact.Metrics{
		Accuracy:  ratio(tp+tn, len(probs)),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if auc, ok := rocAUC(probs, labels); ok {
		m.ROCAUC = &auc
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rocAUC computes the area under the ROC curve from the rank-sum statistic,
// giving tied scores their average rank.
func rocAUC(probs []float64, labels []int) (float64, bool) {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	var positives int
	var rankSum float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && probs[order[j+1]] == probs[order[i]] {
			j++
		}
		// ranks are 1-based
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if labels[order[k]] == 1 {
				positives++
				rankSum += avg
			}
		}
		i = j + 1
	}

	negatives := n - positives
	if positives == 0 || negatives == 0 {
		return 0, false
	}
	u := rankSum - float64(positives)*float64(positives+1)/2
	return u / (float64(positives) * float64(negatives)), true
}
