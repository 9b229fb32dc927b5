package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the class probabilities of its trees.
type RandomForest struct {
	classes []int
	trees   []*DecisionTree
}

func NewRandomForest(classes []int, trees []*DecisionTree) (*RandomForest, error) {
	if len(classes) != 2 {
		return nil, fmt.Errorf("expected 2 classes, got %d", len(classes))
	}
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	return &RandomForest{classes: classes, trees: trees}, nil
}

func (rf *RandomForest) Classes() []int {
	return append([]int(nil), rf.classes...)
}

func (rf *RandomForest) NumFeatures() int {
	return FeatureCount
}

func (rf *RandomForest) Predict(x FeatureVector) (int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return rf.classes[argmax(proba)], nil
}

func (rf *RandomForest) PredictProba(x FeatureVector) ([]float64, error) {
	sum := make([]float64, len(rf.classes))
	for i, tree := range rf.trees {
		proba, err := tree.PredictProba(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		for j := range sum {
			sum[j] += proba[j]
		}
	}
	for j := range sum {
		sum[j] /= float64(len(rf.trees))
	}
	return sum, nil
}
