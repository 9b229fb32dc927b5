package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted CART tree stored as a flat node array. Leaf nodes
// carry per-class sample counts in Value.
type DecisionTree struct {
	classes []int
	nodes   []TreeNode
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	Value      []float64 `json:"value"`
	IsLeaf     bool      `json:"is_leaf"`
}

func NewDecisionTree(classes []int, nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{classes: classes, nodes: nodes}
	if err := dt.validate(); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Classes() []int {
	return append([]int(nil), dt.classes...)
}

func (dt *DecisionTree) NumFeatures() int {
	return FeatureCount
}

func (dt *DecisionTree) Predict(x FeatureVector) (int, error) {
	proba, err := dt.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return dt.classes[argmax(proba)], nil
}

func (dt *DecisionTree) PredictProba(x FeatureVector) ([]float64, error) {
	leaf, err := dt.leaf(x)
	if err != nil {
		return nil, err
	}
	return normalize(leaf.Value), nil
}

func (dt *DecisionTree) leaf(x FeatureVector) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	// A well-formed tree reaches a leaf in fewer steps than it has nodes.
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return TreeNode{}, errors.New("invalid tree state: cycle detected")
}

func (dt *DecisionTree) validate() error {
	if len(dt.classes) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(dt.classes))
	}
	if len(dt.nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if len(node.Value) != len(dt.classes) {
				return fmt.Errorf("node %d: value has %d entries, want %d", i, len(node.Value), len(dt.classes))
			}
			if err := checkFinite(fmt.Sprintf("node %d value", i), node.Value); err != nil {
				return err
			}
			total := 0.0
			for _, v := range node.Value {
				if v < 0 {
					return fmt.Errorf("node %d: negative class weight", i)
				}
				total += v
			}
			if total == 0 {
				return fmt.Errorf("node %d: empty leaf", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= 0 || node.LeftChild >= len(dt.nodes) ||
			node.RightChild <= 0 || node.RightChild >= len(dt.nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func normalize(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / total
	}
	return out
}

// argmax returns the first index holding the maximum value.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
