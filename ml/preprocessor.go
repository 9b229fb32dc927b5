package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	TypeStandardScaler = "standard_scaler"
	TypeMinMaxScaler   = "minmax_scaler"
)

type scalerArtifact struct {
	Type         string    `json:"type"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean,omitempty"`
	Scale        []float64 `json:"scale"`
	Min          []float64 `json:"min,omitempty"`
}

// StandardScaler centres each feature on its fitted mean and divides by the
// fitted scale. A zero scale leaves the centred value untouched.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Transform(x FeatureVector) (FeatureVector, error) {
	var out FeatureVector
	if len(s.Mean) != FeatureCount || len(s.Scale) != FeatureCount {
		return out, errors.New("scaler not fitted")
	}
	for i := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x[i] - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) NumFeatures() int {
	return len(s.Mean)
}

// MinMaxScaler applies x*scale + min per feature.
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
}

func (s *MinMaxScaler) Transform(x FeatureVector) (FeatureVector, error) {
	var out FeatureVector
	if len(s.Min) != FeatureCount || len(s.Scale) != FeatureCount {
		return out, errors.New("scaler not fitted")
	}
	for i := range x {
		out[i] = x[i]*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

func (s *MinMaxScaler) NumFeatures() int {
	return len(s.Min)
}

func LoadScaler(path string) (Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScaler(payload)
}

func ParseScaler(payload []byte) (Scaler, error) {
	var artifact scalerArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return nil, err
	}

	switch artifact.Type {
	case TypeStandardScaler:
		if err := checkColumns("mean", artifact.Mean); err != nil {
			return nil, err
		}
		if err := checkColumns("scale", artifact.Scale); err != nil {
			return nil, err
		}
		return &StandardScaler{Mean: artifact.Mean, Scale: artifact.Scale}, nil
	case TypeMinMaxScaler:
		if err := checkColumns("min", artifact.Min); err != nil {
			return nil, err
		}
		if err := checkColumns("scale", artifact.Scale); err != nil {
			return nil, err
		}
		return &MinMaxScaler{Min: artifact.Min, Scale: artifact.Scale}, nil
	default:
		return nil, fmt.Errorf("%w: scaler %q", ErrUnknownType, artifact.Type)
	}
}

func checkColumns(name string, values []float64) error {
	if len(values) != FeatureCount {
		return fmt.Errorf("%w: %s has %d columns, want %d", ErrFeatureCount, name, len(values), FeatureCount)
	}
	return checkFinite(name, values)
}

// checkFeatureNames accepts artifacts without names; when present they must
// match the form order exactly.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != FeatureCount {
		return fmt.Errorf("%w: %d feature names", ErrFeatureCount, len(names))
	}
	for i, name := range names {
		if name != featureNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, featureNames[i])
		}
	}
	return nil
}
