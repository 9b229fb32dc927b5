package ml

import (
	"errors"
	"math"
	"testing"
)

func TestParseClassifierLogistic(t *testing.T) {
	model, err := ParseClassifier([]byte(logisticJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lr, ok := model.(*LogisticRegression)
	if !ok {
		t.Fatalf("expected *LogisticRegression, got %T", model)
	}

	x := FeatureVector{}
	x[2] = 2
	proba, err := lr.PredictProba(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(proba[1]-want) > 1e-12 || math.Abs(proba[0]+proba[1]-1) > 1e-12 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
	label, err := lr.Predict(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestLogisticZeroDecisionIsNegative(t *testing.T) {
	model, err := ParseClassifier([]byte(logisticJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := model.Predict(FeatureVector{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0 at decision boundary, got %d", label)
	}
}

func TestSigmoidExtremes(t *testing.T) {
	if p := sigmoid(-1000); p != 0 || math.IsNaN(p) {
		t.Fatalf("expected 0, got %v", p)
	}
	if p := sigmoid(1000); p != 1 {
		t.Fatalf("expected 1, got %v", p)
	}
}

func TestParseClassifierRandomForest(t *testing.T) {
	payload := `{
	  "type": "random_forest",
	  "classes": [0, 1],
	  "estimators": [
	    {"nodes": [{"feature_idx": 0, "threshold": 0, "left_child": 1, "right_child": 2},
	               {"feature_idx": -1, "value": [1, 0], "is_leaf": true},
	               {"feature_idx": -1, "value": [0, 1], "is_leaf": true}]},
	    {"nodes": [{"feature_idx": -1, "value": [1, 1], "is_leaf": true}]}
	  ]
	}`
	model, err := ParseClassifier([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba(FeatureVector{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.75 {
		t.Fatalf("expected 0.75, got %v", proba[1])
	}
}

func TestParseClassifierErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type":  `{"type":"svm","classes":[0,1]}`,
		"three classes": `{"type":"logistic_regression","classes":[0,1,2],"coef":[0,0,0,0,0,0,0,0,0,0,0,0,0]}`,
		"short coef":    `{"type":"logistic_regression","classes":[0,1],"coef":[1,2,3]}`,
		"bad forest":    `{"type":"random_forest","classes":[0,1],"estimators":[{"nodes":[]}]}`,
		"empty forest":  `{"type":"random_forest","classes":[0,1]}`,
		"garbage":       `{`,
	}
	for name, payload := range cases {
		if _, err := ParseClassifier([]byte(payload)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := ParseClassifier([]byte(`{"type":"svm"}`)); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
