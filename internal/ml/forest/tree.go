// internal/ml/forest/tree.go
package forest

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Leaf marks a node without a split in Tree.Feature.
const Leaf = -1

// Tree is a binary CART classifier stored as parallel node arrays. Node 0 is
// the root. For split nodes, samples with x[Feature] <= Threshold go Left.
// Value is the fraction of class-1 samples that reached the node.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// Predict returns the class-1 fraction of the leaf x falls into.
func (t *Tree) Predict(x []float64) float64 {
	n := 0
	for t.Feature[n] != Leaf {
		if x[t.Feature[n]] <= t.Threshold[n] {
			n = t.Left[n]
		} else {
			n = t.Right[n]
		}
	}
	return t.Value[n]
}

// Nodes returns the number of nodes.
func (t *Tree) Nodes() int { return len(t.Feature) }

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(n int) int
	walk = func(n int) int {
		if t.Feature[n] == Leaf {
			return 0
		}
		return 1 + max(walk(t.Left[n]), walk(t.Right[n]))
	}
	return walk(0)
}

func (t *Tree) addNode(value float64) int {
	t.Feature = append(t.Feature, Leaf)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, Leaf)
	t.Right = append(t.Right, Leaf)
	t.Value = append(t.Value, value)
	return len(t.Feature) - 1
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
	tree        *Tree
}

type split struct {
	feature   int
	threshold float64
	pos       int // samples[:pos] go left after sorting by feature
	score     float64
}

// grow builds the subtree for samples and returns its node index. samples is
// reordered in place.
func (b *treeBuilder) grow(samples []int, depth int) int {
	pos := 0
	for _, s := range samples {
		pos += b.y[s]
	}
	node := b.tree.addNode(float64(pos) / float64(len(samples)))

	if pos == 0 || pos == len(samples) ||
		len(samples) < b.minSplit ||
		len(samples) < 2*b.minLeaf ||
		(b.maxDepth > 0 && depth >= b.maxDepth) {
		return node
	}

	best, ok := b.bestSplit(samples, pos)
	if !ok {
		return node
	}

	b.sortBy(samples, best.feature)
	left := b.grow(samples[:best.pos], depth+1)
	right := b.grow(samples[best.pos:], depth+1)

	b.tree.Feature[node] = best.feature
	b.tree.Threshold[node] = best.threshold
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

// bestSplit draws features in random order until maxFeatures non-constant
// features have been evaluated, and returns the split with the lowest
// weighted gini impurity.
func (b *treeBuilder) bestSplit(samples []int, positives int) (split, bool) {
	nFeatures := len(b.x[samples[0]])
	order := b.rng.Perm(nFeatures)

	var best split
	found := false
	visited := 0
	for _, f := range order {
		if visited >= b.maxFeatures {
			break
		}
		b.sortBy(samples, f)
		if b.x[samples[0]][f] == b.x[samples[len(samples)-1]][f] {
			continue
		}
		visited++

		if s, ok := b.scanFeature(samples, f, positives); ok && (!found || s.score < best.score) {
			best, found = s, true
		}
	}
	return best, found
}

// scanFeature evaluates every threshold between distinct consecutive values
// of feature f. samples must be sorted by f.
func (b *treeBuilder) scanFeature(samples []int, f int, positives int) (split, bool) {
	n := len(samples)
	var best split
	found := false
	leftPos := 0
	for i := 0; i < n-1; i++ {
		leftPos += b.y[samples[i]]
		nLeft := i + 1
		nRight := n - nLeft
		if nLeft < b.minLeaf || nRight < b.minLeaf {
			continue
		}
		lo, hi := b.x[samples[i]][f], b.x[samples[i+1]][f]
		if lo == hi {
			continue
		}

		score := weightedGini(nLeft, leftPos) + weightedGini(nRight, positives-leftPos)
		if !found || score < best.score {
			threshold := lo/2 + hi/2
			if threshold >= hi {
				threshold = lo
			}
			best = split{feature: f, threshold: threshold, pos: nLeft, score: score}
			found = true
		}
	}
	return best, found
}

// weightedGini is n times the gini impurity of a node with n samples of
// which pos are class 1.
func weightedGini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return float64(n) * 2 * p * (1 - p)
}

func (b *treeBuilder) sortBy(samples []int, f int) {
	slices.SortStableFunc(samples, func(i, j int) int {
		return cmp.Compare(b.x[i][f], b.x[j][f])
	})
}
