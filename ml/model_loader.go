package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	TypeLogisticRegression = "logistic_regression"
	TypeDecisionTree       = "decision_tree"
	TypeRandomForest       = "random_forest"
)

var ErrUnknownType = errors.New("unsupported artifact type")

type classifierArtifact struct {
	Type         string     `json:"type"`
	Classes      []int      `json:"classes"`
	FeatureNames []string   `json:"feature_names,omitempty"`
	Coef         []float64  `json:"coef,omitempty"`
	Intercept    float64    `json:"intercept,omitempty"`
	Nodes        []TreeNode `json:"nodes,omitempty"`
	Estimators   []struct {
		Nodes []TreeNode `json:"nodes"`
	} `json:"estimators,omitempty"`
}

func LoadClassifier(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseClassifier(payload)
}

func ParseClassifier(payload []byte) (Classifier, error) {
	var artifact classifierArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return nil, err
	}

	var (
		classifier Classifier
		err        error
	)
	switch artifact.Type {
	case TypeLogisticRegression:
		classifier, err = NewLogisticRegression(artifact.Classes, artifact.Coef, artifact.Intercept)
	case TypeDecisionTree:
		classifier, err = NewDecisionTree(artifact.Classes, artifact.Nodes)
	case TypeRandomForest:
		classifier, err = parseForest(artifact)
	default:
		return nil, fmt.Errorf("%w: classifier %q", ErrUnknownType, artifact.Type)
	}
	if err != nil {
		return nil, err
	}
	return classifier, nil
}

func parseForest(artifact classifierArtifact) (*RandomForest, error) {
	trees := make([]*DecisionTree, 0, len(artifact.Estimators))
	for i, estimator := range artifact.Estimators {
		tree, err := NewDecisionTree(artifact.Classes, estimator.Nodes)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		trees = append(trees, tree)
	}
	return NewRandomForest(artifact.Classes, trees)
}
