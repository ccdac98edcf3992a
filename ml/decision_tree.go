package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes   []TreeNode
	classes []int
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel int       `json:"class_label"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

type treeParams struct {
	Classes []int      `json:"classes"`
	Nodes   []TreeNode `json:"nodes"`
}

func NewDecisionTree(nodes []TreeNode, classes []int, nFeatures int) (*DecisionTree, error) {
	dt := &DecisionTree{nodes: nodes, classes: classes}
	if err := dt.validate(nFeatures); err != nil {
		return nil, err
	}
	return dt, nil
}

func decodeDecisionTree(params json.RawMessage, nFeatures int) (Classifier, error) {
	var p treeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: decision_tree params: %v", ErrInvalidModel, err)
	}
	dt, err := NewDecisionTree(p.Nodes, p.Classes, nFeatures)
	if err != nil {
		return nil, err
	}
	if !dt.hasDistributions() {
		return labelOnly{dt}, nil
	}
	return dt, nil
}

func (dt *DecisionTree) Kind() string {
	return "decision_tree"
}

func (dt *DecisionTree) Predict(x Vector) (int, error) {
	leaf, err := dt.leaf(x)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

func (dt *DecisionTree) PredictProba(x Vector) ([]float64, error) {
	leaf, err := dt.leaf(x)
	if err != nil {
		return nil, err
	}
	return normalize(leaf.Value), nil
}

func (dt *DecisionTree) leaf(x Vector) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	// a well formed tree reaches a leaf in fewer steps than it has nodes
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(x) {
			return TreeNode{}, fmt.Errorf("%w: tree splits on feature %d, input has %d features", ErrShapeMismatch, node.FeatureIdx, len(x))
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
	return TreeNode{}, errors.New("invalid tree state: cycle detected")
}

func (dt *DecisionTree) validate(nFeatures int) error {
	if len(dt.nodes) == 0 {
		return fmt.Errorf("%w: decision tree has no nodes", ErrInvalidModel)
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if len(node.Value) > 0 && len(dt.classes) > 0 && len(node.Value) != len(dt.classes) {
				return fmt.Errorf("%w: leaf %d has %d class weights, want %d", ErrInvalidModel, i, len(node.Value), len(dt.classes))
			}
			continue
		}
		if node.LeftChild <= 0 || node.LeftChild >= len(dt.nodes) || node.RightChild <= 0 || node.RightChild >= len(dt.nodes) {
			return fmt.Errorf("%w: node %d has child out of range", ErrInvalidModel, i)
		}
		if node.FeatureIdx < 0 || (nFeatures > 0 && node.FeatureIdx >= nFeatures) {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidModel, i, node.FeatureIdx)
		}
	}
	return nil
}

// hasDistributions reports whether every leaf carries class weights, which
// is what probability estimates are built from.
func (dt *DecisionTree) hasDistributions() bool {
	width := -1
	for _, node := range dt.nodes {
		if !node.IsLeaf {
			continue
		}
		if len(node.Value) == 0 {
			return false
		}
		if width >= 0 && len(node.Value) != width {
			return false
		}
		width = len(node.Value)
	}
	return width > 0
}

func normalize(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	proba := make([]float64, len(weights))
	if total <= 0 {
		return proba
	}
	for i, w := range weights {
		proba[i] = w / total
	}
	return proba
}
