package forest

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns n samples whose label is 1 iff feature 0 >= 50. Feature 1
// is noise.
func separable(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(7, 7))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		v := float64(rng.IntN(100))
		x[i] = []float64{v, rng.Float64()}
		if v >= 50 {
			y[i] = 1
		}
	}
	return x, y
}

func TestTree_Predict(t *testing.T) {
	tree := Tree{
		Feature:   []int{0, Leaf, 1, Leaf, Leaf},
		Threshold: []float64{5, 0, 0.5, 0, 0},
		Left:      []int{1, Leaf, 3, Leaf, Leaf},
		Right:     []int{2, Leaf, 4, Leaf, Leaf},
		Value:     []float64{0.5, 0.1, 0.7, 0.6, 0.9},
	}

	assert.Equal(t, 0.1, tree.Predict([]float64{5, 0}))
	assert.Equal(t, 0.6, tree.Predict([]float64{6, 0.5}))
	assert.Equal(t, 0.9, tree.Predict([]float64{6, 0.51}))
	assert.Equal(t, 2, tree.Depth())
	assert.Equal(t, 5, tree.Nodes())
	assert.NoError(t, (&Forest{NumFeatures: 2, Trees: []Tree{tree}}).Validate())
}

func TestFit_LearnsSeparableData(t *testing.T) {
	x, y := separable(400)

	f, err := Fit(context.Background(), x, y, Params{Trees: 25, MaxFeatures: 2, Seed: DefaultSeed})
	require.NoError(t, err)
	require.Len(t, f.Trees, 25)
	require.NoError(t, f.Validate())

	low, err := f.PredictProba([]float64{10, 0.5})
	require.NoError(t, err)
	high, err := f.PredictProba([]float64{90, 0.5})
	require.NoError(t, err)

	assert.Less(t, low, 0.2)
	assert.Greater(t, high, 0.8)

	correct := 0
	for i := range x {
		p, err := f.PredictProba(x[i])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 380)
}

func TestFit_IsDeterministic(t *testing.T) {
	x, y := separable(200)

	a, err := Fit(context.Background(), x, y, Params{Trees: 10, Seed: 42, Workers: 1})
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, Params{Trees: 10, Seed: 42, Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFit_MaxDepth(t *testing.T) {
	x, y := separable(200)

	f, err := Fit(context.Background(), x, y, Params{Trees: 5, MaxDepth: 1, Seed: 1})
	require.NoError(t, err)
	for i := range f.Trees {
		assert.LessOrEqual(t, f.Trees[i].Depth(), 1)
	}
}

func TestFit_PureLabelsGiveSingleLeaf(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	f, err := Fit(context.Background(), x, []int{1, 1, 1}, Params{Trees: 3})
	require.NoError(t, err)

	for i := range f.Trees {
		assert.Equal(t, 1, f.Trees[i].Nodes())
	}
	p, err := f.PredictProba([]float64{10})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestFit_InvalidInput(t *testing.T) {
	ctx := context.Background()

	_, err := Fit(ctx, nil, nil, Params{})
	assert.Error(t, err)

	_, err = Fit(ctx, [][]float64{{1}}, []int{1, 0}, Params{})
	assert.Error(t, err)

	_, err = Fit(ctx, [][]float64{{1}, {1, 2}}, []int{1, 0}, Params{})
	assert.Error(t, err)

	_, err = Fit(ctx, [][]float64{{1}, {2}}, []int{1, 2}, Params{})
	assert.Error(t, err)
}

func TestFit_CancelledContext(t *testing.T) {
	x, y := separable(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, x, y, Params{Trees: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForest_JSONRoundTripPredictsIdentically(t *testing.T) {
	x, y := separable(150)
	f, err := Fit(context.Background(), x, y, Params{Trees: 8, Seed: 3})
	require.NoError(t, err)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	var decoded Forest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, decoded.Validate())

	for i := range x {
		want, _ := f.PredictProba(x[i])
		got, err := decoded.PredictProba(x[i])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestForest_PredictProbaRejectsWrongWidth(t *testing.T) {
	f := &Forest{NumFeatures: 2, Trees: []Tree{{Feature: []int{Leaf}, Threshold: []float64{0}, Left: []int{Leaf}, Right: []int{Leaf}, Value: []float64{0.5}}}}
	_, err := f.PredictProba([]float64{1})
	assert.Error(t, err)
}

func TestForest_ValidateRejectsCorruptTrees(t *testing.T) {
	good := func() Tree {
		return Tree{
			Feature:   []int{0, Leaf, Leaf},
			Threshold: []float64{1, 0, 0},
			Left:      []int{1, Leaf, Leaf},
			Right:     []int{2, Leaf, Leaf},
			Value:     []float64{0.5, 0, 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Tree)
	}{
		{"feature out of range", func(tr *Tree) { tr.Feature[0] = 3 }},
		{"child cycle", func(tr *Tree) { tr.Left[0] = 0 }},
		{"child out of range", func(tr *Tree) { tr.Right[0] = 9 }},
		{"value above one", func(tr *Tree) { tr.Value[1] = 1.5 }},
		{"short arrays", func(tr *Tree) { tr.Value = tr.Value[:2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := good()
			tt.mutate(&tr)
			assert.Error(t, (&Forest{NumFeatures: 2, Trees: []Tree{tr}}).Validate())
		})
	}
}
