package risk

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"heartrisk/ml"
)

// Input holds the thirteen clinical inputs in their user-facing shape.
type Input struct {
	Age               int     `json:"age"`
	Sex               string  `json:"sex"`
	ChestPain         int     `json:"cp"`
	RestingBP         int     `json:"trestbps"`
	Cholesterol       int     `json:"chol"`
	FastingBloodSugar string  `json:"fbs"`
	RestingECG        int     `json:"restecg"`
	MaxHeartRate      int     `json:"thalach"`
	ExerciseAngina    string  `json:"exang"`
	STDepression      float64 `json:"oldpeak"`
	STSlope           int     `json:"slope"`
	Vessels           int     `json:"ca"`
	Thalassemia       int     `json:"thal"`
}

// DefaultInput returns the values the form shows before any interaction.
func DefaultInput() Input {
	in, err := ParseValues(nil)
	if err != nil {
		panic("risk: default form values are invalid: " + err.Error())
	}
	return in
}

// ValidationError maps field names to human-readable problems.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(name, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[name] = msg
}

// ParseValues builds an Input from submitted form values. Absent fields take
// their widget default.
func ParseValues(values url.Values) (Input, error) {
	v, err := parseVector(func(name string) (string, bool) {
		raw := values.Get(name)
		return raw, strings.TrimSpace(raw) != ""
	})
	if err != nil {
		return Input{}, err
	}
	return inputFromVector(v), nil
}

// Vector validates the input against the widget bounds and applies the fixed
// categorical encoding: Male→1, Female→0, Yes→1, No→0.
func (in Input) Vector() (ml.FeatureVector, error) {
	raw := in.rawValues()
	return parseVector(func(name string) (string, bool) {
		return raw[name], true
	})
}

// Values renders the input as form values, the inverse of ParseValues.
func (in Input) Values() url.Values {
	values := make(url.Values, len(fields))
	for name, raw := range in.rawValues() {
		values.Set(name, raw)
	}
	return values
}

func (in Input) rawValues() map[string]string {
	return map[string]string{
		"age":      strconv.Itoa(in.Age),
		"sex":      in.Sex,
		"cp":       strconv.Itoa(in.ChestPain),
		"trestbps": strconv.Itoa(in.RestingBP),
		"chol":     strconv.Itoa(in.Cholesterol),
		"fbs":      in.FastingBloodSugar,
		"restecg":  strconv.Itoa(in.RestingECG),
		"thalach":  strconv.Itoa(in.MaxHeartRate),
		"exang":    in.ExerciseAngina,
		"oldpeak":  strconv.FormatFloat(in.STDepression, 'f', -1, 64),
		"slope":    strconv.Itoa(in.STSlope),
		"ca":       strconv.Itoa(in.Vessels),
		"thal":     strconv.Itoa(in.Thalassemia),
	}
}

func parseVector(lookup func(name string) (string, bool)) (ml.FeatureVector, error) {
	var (
		v    ml.FeatureVector
		verr ValidationError
	)
	for _, f := range fields {
		raw, ok := lookup(f.Name)
		if !ok {
			raw = f.Default
		}
		value, err := f.Parse(raw)
		if err != nil {
			verr.add(f.Name, err.Error())
			continue
		}
		v[f.Index] = value
	}
	if len(verr.Fields) > 0 {
		return v, &verr
	}
	return v, nil
}

func inputFromVector(v ml.FeatureVector) Input {
	label := func(name string) string {
		f, _ := FieldByName(name)
		return f.Format(v[f.Index])
	}
	return Input{
		Age:               int(v[0]),
		Sex:               label("sex"),
		ChestPain:         int(v[2]),
		RestingBP:         int(v[3]),
		Cholesterol:       int(v[4]),
		FastingBloodSugar: label("fbs"),
		RestingECG:        int(v[6]),
		MaxHeartRate:      int(v[7]),
		ExerciseAngina:    label("exang"),
		STDepression:      v[9],
		STSlope:           int(v[10]),
		Vessels:           int(v[11]),
		Thalassemia:       int(v[12]),
	}
}

// FormState is what the page needs to redisplay a submission: the raw values
// as typed and any per-field problems.
type FormState struct {
	Values map[string]string `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
}

func NewFormState(values url.Values) FormState {
	state := FormState{Values: make(map[string]string, len(fields))}
	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.Name))
		if raw == "" {
			raw = f.Default
		}
		state.Values[f.Name] = raw
	}
	return state
}
