package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model. Classes[1] is the
// class whose probability the sigmoid yields.
type LogisticRegression struct {
	classes   []int
	coef      []float64
	intercept float64
}

func NewLogisticRegression(classes []int, coef []float64, intercept float64) (*LogisticRegression, error) {
	if len(classes) != 2 {
		return nil, fmt.Errorf("expected 2 classes, got %d", len(classes))
	}
	if err := checkColumns("coef", coef); err != nil {
		return nil, err
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	return &LogisticRegression{classes: classes, coef: coef, intercept: intercept}, nil
}

func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.coef)
}

func (lr *LogisticRegression) decision(x FeatureVector) float64 {
	z := lr.intercept
	for i, w := range lr.coef {
		z += w * x[i]
	}
	return z
}

func (lr *LogisticRegression) Predict(x FeatureVector) (int, error) {
	if lr.decision(x) > 0 {
		return lr.classes[1], nil
	}
	return lr.classes[0], nil
}

func (lr *LogisticRegression) PredictProba(x FeatureVector) ([]float64, error) {
	p := sigmoid(lr.decision(x))
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
