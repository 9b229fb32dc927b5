package ml

import "context"

// Classifier is a trained binary predictor. Classes returns the labels in the
// column order used by PredictProba.
type Classifier interface {
	Predict(x FeatureVector) (int, error)
	PredictProba(x FeatureVector) ([]float64, error)
	Classes() []int
	NumFeatures() int
}

type Scaler interface {
	Transform(x FeatureVector) (FeatureVector, error)
	NumFeatures() int
}

// ModelProvider serves predictions. Classes lists the labels the provider can
// predict; it does not change for the provider's lifetime.
type ModelProvider interface {
	Predict(ctx context.Context, x FeatureVector) (Prediction, error)
	Classes() []int
}

// Prediction is the raw output of a single inference call.
type Prediction struct {
	Class         int
	Classes       []int
	Probabilities []float64
}

// Probability returns the probability assigned to class, or 0 when the
// classifier does not know it.
func (p Prediction) Probability(class int) float64 {
	for i, c := range p.Classes {
		if c == class && i < len(p.Probabilities) {
			return p.Probabilities[i]
		}
	}
	return 0
}
