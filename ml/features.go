package ml

import (
	"errors"
	"fmt"
	"math"
)

// FeatureCount is the width of every vector the artifacts accept.
const FeatureCount = 13

var ErrFeatureCount = errors.New("feature count mismatch")

// FeatureVector is the ordered numeric encoding of the clinical inputs.
type FeatureVector [FeatureCount]float64

var featureNames = [FeatureCount]string{
	"age",
	"sex",
	"cp",
	"trestbps",
	"chol",
	"fbs",
	"restecg",
	"thalach",
	"exang",
	"oldpeak",
	"slope",
	"ca",
	"thal",
}

func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range featureNames {
		out[name] = v[i]
	}
	return out
}

func VectorFromSlice(values []float64) (FeatureVector, error) {
	var v FeatureVector
	if len(values) != FeatureCount {
		return v, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(values), FeatureCount)
	}
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return v, fmt.Errorf("feature %s is not finite", featureNames[i])
		}
		v[i] = value
	}
	return v, nil
}

func checkFinite(name string, values []float64) error {
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s[%d] is not finite", name, i)
		}
	}
	return nil
}
