package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type FieldKind string

const (
	KindInteger FieldKind = "integer"
	KindDecimal FieldKind = "decimal"
	KindSelect  FieldKind = "select"
)

// Option is one choice of a select field and its numeric encoding.
type Option struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Field describes one input of the form. Index is the column the value
// occupies in the feature vector.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Min     float64   `json:"min,omitempty"`
	Max     float64   `json:"max,omitempty"`
	Step    float64   `json:"step,omitempty"`
	Default string    `json:"default"`
	Options []Option  `json:"options,omitempty"`
	Index   int       `json:"-"`
}

func numericOptions(values ...int) []Option {
	options := make([]Option, len(values))
	for i, v := range values {
		options[i] = Option{Label: strconv.Itoa(v), Value: float64(v)}
	}
	return options
}

var yesNo = []Option{{Label: "Yes", Value: 1}, {Label: "No", Value: 0}}

var fields = []Field{
	{Name: "age", Label: "Age", Kind: KindInteger, Min: 20, Max: 100, Step: 1, Default: "45"},
	{Name: "sex", Label: "Sex", Kind: KindSelect, Default: "Male",
		Options: []Option{{Label: "Male", Value: 1}, {Label: "Female", Value: 0}}},
	{Name: "cp", Label: "Chest Pain Type (0-3)", Kind: KindSelect, Default: "0", Options: numericOptions(0, 1, 2, 3)},
	{Name: "trestbps", Label: "Resting Blood Pressure", Kind: KindInteger, Min: 80, Max: 200, Step: 1, Default: "120"},
	{Name: "chol", Label: "Cholesterol", Kind: KindInteger, Min: 100, Max: 400, Step: 1, Default: "200"},
	{Name: "fbs", Label: "Fasting Blood Sugar > 120 mg/dl", Kind: KindSelect, Default: "Yes", Options: yesNo},
	{Name: "restecg", Label: "Resting ECG Result (0-2)", Kind: KindSelect, Default: "0", Options: numericOptions(0, 1, 2)},
	{Name: "thalach", Label: "Max Heart Rate Achieved", Kind: KindInteger, Min: 70, Max: 210, Step: 1, Default: "150"},
	{Name: "exang", Label: "Exercise Induced Angina", Kind: KindSelect, Default: "Yes", Options: yesNo},
	{Name: "oldpeak", Label: "ST Depression (Oldpeak)", Kind: KindDecimal, Min: 0, Max: 6, Step: 0.01, Default: "1.0"},
	{Name: "slope", Label: "Slope of Peak ST Segment (0-2)", Kind: KindSelect, Default: "0", Options: numericOptions(0, 1, 2)},
	{Name: "ca", Label: "Major Vessels Colored (0-3)", Kind: KindSelect, Default: "0", Options: numericOptions(0, 1, 2, 3)},
	{Name: "thal", Label: "Thalassemia (0=Normal, 1=Fixed Defect, 2=Reversible Defect)", Kind: KindSelect, Default: "0",
		Options: numericOptions(0, 1, 2)},
}

func init() {
	for i := range fields {
		fields[i].Index = i
	}
}

// Fields returns the form catalogue in feature-vector order.
func Fields() []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Options = append([]Option(nil), f.Options...)
		out[i] = f
	}
	return out
}

func FieldByName(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Parse converts a raw form value into its numeric encoding, enforcing the
// widget bounds.
func (f Field) Parse(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("is required")
	}

	switch f.Kind {
	case KindSelect:
		for _, option := range f.Options {
			if strings.EqualFold(option.Label, raw) {
				return option.Value, nil
			}
		}
		return 0, fmt.Errorf("must be one of %s", strings.Join(f.OptionLabels(), ", "))
	case KindInteger, KindDecimal:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, fmt.Errorf("must be a number")
		}
		if f.Kind == KindInteger && value != math.Trunc(value) {
			return 0, fmt.Errorf("must be a whole number")
		}
		if value < f.Min || value > f.Max {
			return 0, fmt.Errorf("must be between %s and %s", f.formatBound(f.Min), f.formatBound(f.Max))
		}
		return value, nil
	default:
		return 0, fmt.Errorf("unsupported field kind %q", f.Kind)
	}
}

// Format renders an encoded value the way the form displays it.
func (f Field) Format(value float64) string {
	switch f.Kind {
	case KindSelect:
		for _, option := range f.Options {
			if option.Value == value {
				return option.Label
			}
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case KindDecimal:
		return strconv.FormatFloat(value, 'f', 1, 64)
	default:
		return strconv.FormatFloat(value, 'f', 0, 64)
	}
}

func (f Field) OptionLabels() []string {
	labels := make([]string, len(f.Options))
	for i, option := range f.Options {
		labels[i] = option.Label
	}
	return labels
}

func (f Field) formatBound(v float64) string {
	if f.Kind == KindDecimal {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}
