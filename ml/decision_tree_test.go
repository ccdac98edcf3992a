package ml

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stumpNodes splits on koi_score at 0.5: low scores are false positives (0),
// high scores are candidates (1).
func stumpNodes(withValues bool) []TreeNode {
	nodes := []TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
	}
	if withValues {
		nodes[1].Value = []float64{9, 1}
		nodes[2].Value = []float64{2, 6}
	}
	return nodes
}

func TestDecisionTreePredict(t *testing.T) {
	tree, err := NewDecisionTree(stumpNodes(true), []int{0, 1}, 20)
	require.NoError(t, err)

	low := make(Vector, 20)
	low[0] = 0.1
	label, err := tree.Predict(low)
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	high := make(Vector, 20)
	high[0] = 0.9
	label, err = tree.Predict(high)
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	proba, err := tree.PredictProba(high)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, proba, 1e-12)
}

func TestDecisionTreeCapabilityFollowsLeafValues(t *testing.T) {
	withValues, err := json.Marshal(treeParams{Classes: []int{0, 1}, Nodes: stumpNodes(true)})
	require.NoError(t, err)
	model, err := decodeDecisionTree(withValues, 20)
	require.NoError(t, err)
	_, ok := model.(ProbabilityEstimator)
	assert.True(t, ok)

	without, err := json.Marshal(treeParams{Nodes: stumpNodes(false)})
	require.NoError(t, err)
	model, err = decodeDecisionTree(without, 20)
	require.NoError(t, err)
	_, ok = model.(ProbabilityEstimator)
	assert.False(t, ok)
	assert.Equal(t, "decision_tree", model.Kind())
}

func TestDecisionTreeRejectsBrokenNodes(t *testing.T) {
	_, err := NewDecisionTree(nil, nil, 20)
	assert.ErrorIs(t, err, ErrInvalidModel)

	nodes := stumpNodes(false)
	nodes[0].RightChild = 7
	_, err = NewDecisionTree(nodes, nil, 20)
	assert.ErrorIs(t, err, ErrInvalidModel)

	nodes = stumpNodes(false)
	nodes[0].FeatureIdx = 25
	_, err = NewDecisionTree(nodes, nil, 20)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestDecisionTreeShortInput(t *testing.T) {
	nodes := stumpNodes(false)
	nodes[0].FeatureIdx = 5
	tree, err := NewDecisionTree(nodes, nil, 0)
	require.NoError(t, err)

	_, err = tree.Predict(Vector{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecisionTreeCycleIsAnError(t *testing.T) {
	tree := &DecisionTree{nodes: []TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 1},
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 0, RightChild: 0},
	}}
	_, err := tree.Predict(Vector{0})
	require.Error(t, err)
}

func TestRandomForest(t *testing.T) {
	second := stumpNodes(true)
	second[0].Threshold = 0.95
	params, err := json.Marshal(forestParams{
		Classes: []int{0, 1},
		Trees:   []treeParams{{Nodes: stumpNodes(true)}, {Nodes: second}},
	})
	require.NoError(t, err)

	model, err := decodeRandomForest(params, 20)
	require.NoError(t, err)
	forest, ok := model.(ProbabilityEstimator)
	require.True(t, ok)

	x := make(Vector, 20)
	x[0] = 0.9
	proba, err := forest.PredictProba(x)
	require.NoError(t, err)
	// first tree says [0.25, 0.75], second [0.9, 0.1]
	assert.InDeltaSlice(t, []float64{0.575, 0.425}, proba, 1e-12)

	label, err := forest.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestRandomForestVotesWithoutDistributions(t *testing.T) {
	params, err := json.Marshal(forestParams{
		Trees: []treeParams{{Nodes: stumpNodes(false)}, {Nodes: stumpNodes(false)}, {Nodes: stumpNodes(false)}},
	})
	require.NoError(t, err)

	model, err := decodeRandomForest(params, 20)
	require.NoError(t, err)
	_, ok := model.(ProbabilityEstimator)
	assert.False(t, ok)

	x := make(Vector, 20)
	x[0] = 0.9
	label, err := model.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestRandomForestRejectsInconsistentClasses(t *testing.T) {
	wide := stumpNodes(true)
	wide[1].Value = []float64{1, 1, 5}
	wide[2].Value = []float64{1, 1, 5}

	cases := map[string]forestParams{
		"tree classes differ": {
			Classes: []int{0, 1},
			Trees:   []treeParams{{Classes: []int{0, 1, 2}, Nodes: wide}, {Nodes: stumpNodes(false)}},
		},
		"leaf wider than forest": {
			Classes: []int{0, 1},
			Trees:   []treeParams{{Nodes: wide}, {Nodes: stumpNodes(false)}},
		},
	}
	for name, fp := range cases {
		t.Run(name, func(t *testing.T) {
			params, err := json.Marshal(fp)
			require.NoError(t, err)
			_, err = decodeRandomForest(params, 20)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestRandomForestMixedTreesVote(t *testing.T) {
	params, err := json.Marshal(forestParams{
		Classes: []int{0, 1},
		Trees: []treeParams{
			{Classes: []int{0, 1}, Nodes: stumpNodes(true)},
			{Nodes: stumpNodes(false)},
			{Nodes: stumpNodes(false)},
		},
	})
	require.NoError(t, err)

	model, err := decodeRandomForest(params, 20)
	require.NoError(t, err)
	_, ok := model.(ProbabilityEstimator)
	assert.False(t, ok)

	x := make(Vector, 20)
	x[0] = 0.9
	var label int
	require.NotPanics(t, func() { label, err = model.Predict(x) })
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	forest := model.(labelOnly).Classifier.(*RandomForest)
	_, err = forest.PredictProba(x)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestMajorityLabelTieBreak(t *testing.T) {
	assert.Equal(t, 1, majorityLabel([]int{2, 1, 2, 1}))
	assert.Equal(t, 2, majorityLabel([]int{2, 2, 1}))
}
