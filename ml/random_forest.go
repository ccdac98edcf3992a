package ml

import (
	"encoding/json"
	"fmt"
	"slices"
)

// RandomForest averages its trees' leaf distributions, or falls back to a
// majority vote when any tree lacks them. The mode is fixed at decode time.
type RandomForest struct {
	trees   []*DecisionTree
	classes []int
	vote    bool
}

type forestParams struct {
	Classes []int        `json:"classes"`
	Trees   []treeParams `json:"trees"`
}

func decodeRandomForest(params json.RawMessage, nFeatures int) (Classifier, error) {
	var p forestParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: random_forest params: %v", ErrInvalidModel, err)
	}
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("%w: random forest has no trees", ErrInvalidModel)
	}
	rf := &RandomForest{classes: p.Classes, vote: len(p.Classes) == 0}
	for i, tp := range p.Trees {
		if len(tp.Classes) > 0 && len(p.Classes) > 0 && !slices.Equal(tp.Classes, p.Classes) {
			return nil, fmt.Errorf("%w: tree %d classes %v differ from forest classes %v", ErrInvalidModel, i, tp.Classes, p.Classes)
		}
		tree, err := NewDecisionTree(tp.Nodes, p.Classes, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if !tree.hasDistributions() {
			rf.vote = true
		}
		rf.trees = append(rf.trees, tree)
	}
	if rf.vote {
		return labelOnly{rf}, nil
	}
	return rf, nil
}

func (rf *RandomForest) Kind() string {
	return "random_forest"
}

// Predict takes the class with the highest averaged probability, or the
// majority vote of the trees in vote mode.
func (rf *RandomForest) Predict(x Vector) (int, error) {
	if !rf.vote {
		proba, err := rf.PredictProba(x)
		if err != nil {
			return 0, err
		}
		return rf.classes[argmax(proba)], nil
	}
	labels := make([]int, 0, len(rf.trees))
	for _, tree := range rf.trees {
		label, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		labels = append(labels, label)
	}
	return majorityLabel(labels), nil
}

func (rf *RandomForest) PredictProba(x Vector) ([]float64, error) {
	if rf.vote {
		return nil, fmt.Errorf("%w: random forest has no leaf distributions", ErrInvalidModel)
	}
	sum := make([]float64, len(rf.classes))
	for i, tree := range rf.trees {
		proba, err := tree.PredictProba(x)
		if err != nil {
			return nil, err
		}
		if len(proba) != len(sum) {
			return nil, fmt.Errorf("%w: tree %d returned %d class weights, want %d", ErrInvalidModel, i, len(proba), len(sum))
		}
		for j, p := range proba {
			sum[j] += p
		}
	}
	for i := range sum {
		sum[i] /= float64(len(rf.trees))
	}
	return sum, nil
}

// majorityLabel breaks ties toward the smaller label so votes are stable.
func majorityLabel(labels []int) int {
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	bestLabel := 0
	bestCount := -1
	for label, count := range counts {
		if count > bestCount || (count == bestCount && label < bestLabel) {
			bestCount = count
			bestLabel = label
		}
	}
	return bestLabel
}
