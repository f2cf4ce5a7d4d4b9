// internal/pipeline/trainer/split.go
package trainer

import (
	"math"
	"math/rand/v2"
	"sort"
)

// stratifiedSplit partitions indices 0..len(labels)-1 into train and test so
// that each class contributes round(testFraction * classSize) rows to test,
// always leaving at least one row of every class in train. Both partitions are
// returned in ascending index order.
func stratifiedSplit(labels []int, testFraction float64, seed uint64) (train, test []int) {
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}

	rng := rand.New(rand.NewPCG(seed, 0))
	for _, class := range []int{0, 1} {
		idx := byClass[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest > len(idx)-1 {
			nTest = max(len(idx)-1, 0)
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}
