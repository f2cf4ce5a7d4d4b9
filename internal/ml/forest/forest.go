// internal/ml/forest/forest.go
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTrees = 100
	DefaultSeed  = 42
)

// Params configures a random forest fit.
type Params struct {
	Trees           int
	MaxDepth        int // 0 grows until leaves are pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 uses sqrt(features)
	Seed            uint64
	Workers         int // 0 uses runtime.NumCPU()
}

func (p Params) withDefaults(nFeatures int) Params {
	if p.Trees <= 0 {
		p.Trees = DefaultTrees
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > nFeatures {
		p.MaxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	return p
}

// EffectiveMaxFeatures is the number of features drawn per split for a
// vector of the given width.
func (p Params) EffectiveMaxFeatures(width int) int {
	return p.withDefaults(width).MaxFeatures
}

// Forest is a bagged ensemble of gini trees over a fixed-width feature vector.
type Forest struct {
	NumFeatures int    `json:"numFeatures"`
	Trees       []Tree `json:"trees"`
}

// Fit grows p.Trees trees on bootstrap samples of (x, y). y holds 0/1 labels.
// Each tree draws from its own generator seeded by (p.Seed, tree index), so the
// result does not depend on scheduling.
func Fit(ctx context.Context, x [][]float64, y []int, p Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d samples but %d labels", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("samples have no features")
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("sample %d has label %d, expected 0 or 1", i, label)
		}
	}

	p = p.withDefaults(width)
	f := &Forest{NumFeatures: width, Trees: make([]Tree, p.Trees)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := range f.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f.Trees[i] = growTree(x, y, p, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

func growTree(x [][]float64, y []int, p Params, index int) Tree {
	rng := rand.New(rand.NewPCG(p.Seed, uint64(index)))

	samples := make([]int, len(x))
	for i := range samples {
		samples[i] = rng.IntN(len(x))
	}

	b := &treeBuilder{
		x:           x,
		y:           y,
		maxDepth:    p.MaxDepth,
		minSplit:    p.MinSamplesSplit,
		minLeaf:     p.MinSamplesLeaf,
		maxFeatures: p.MaxFeatures,
		rng:         rng,
		tree:        &Tree{},
	}
	b.grow(samples, 0)
	return *b.tree
}

// PredictProba returns the mean class-1 probability over all trees.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("got %d features, expected %d", len(x), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Validate checks the structural integrity of a decoded forest, so that
// Predict cannot index out of range.
func (f *Forest) Validate() error {
	if f.NumFeatures <= 0 {
		return fmt.Errorf("numFeatures must be positive")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for ti := range f.Trees {
		t := &f.Trees[ti]
		n := len(t.Feature)
		if n == 0 || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: inconsistent node arrays", ti)
		}
		for i := 0; i < n; i++ {
			if v := t.Value[i]; math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("tree %d node %d: value %v outside [0,1]", ti, i, v)
			}
			if t.Feature[i] == Leaf {
				continue
			}
			if t.Feature[i] < 0 || t.Feature[i] >= f.NumFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, i, t.Feature[i])
			}
			// children are always appended after their parent
			if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
				return fmt.Errorf("tree %d node %d: invalid children", ti, i)
			}
		}
	}
	return nil
}
