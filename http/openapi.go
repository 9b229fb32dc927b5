package http

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"heartrisk/risk"
)

// openAPIDocument describes POST /api/predict from the field catalogue.
func openAPIDocument(title string) ([]byte, error) {
	doc := buildOpenAPI(title)
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return payload, nil
}

func buildOpenAPI(title string) *openapi3.T {
	if title == "" {
		title = "AI Health Risk Predictor"
	}

	op := openapi3.NewOperation()
	op.OperationID = "predict"
	op.Summary = "Predict heart disease risk from thirteen clinical inputs"
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(inputSchema()),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Prediction").WithJSONSchema(resultSchema()),
		}),
		openapi3.WithStatus(400, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Malformed JSON body").WithJSONSchema(errorSchema()),
		}),
		openapi3.WithStatus(422, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Input outside the form bounds").WithJSONSchema(errorSchema()),
		}),
	)

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Version:     "1.0.0",
			Description: "Personal awareness only, not a medical diagnosis.",
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/api/predict", &openapi3.PathItem{Post: op}),
		),
	}
}

func inputSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	for _, f := range risk.Fields() {
		schema.WithProperty(f.Name, fieldSchema(f))
	}
	return schema
}

func fieldSchema(f risk.Field) *openapi3.Schema {
	var schema *openapi3.Schema
	switch {
	case f.Kind == risk.KindSelect && textual(f):
		values := make([]interface{}, len(f.Options))
		for i, option := range f.Options {
			values[i] = option.Label
		}
		schema = openapi3.NewStringSchema().WithEnum(values...)
		schema.Default = f.Default
	case f.Kind == risk.KindSelect:
		values := make([]interface{}, len(f.Options))
		for i, option := range f.Options {
			values[i] = option.Value
		}
		schema = openapi3.NewIntegerSchema().WithEnum(values...)
		schema.Default = parseDefault(f)
	case f.Kind == risk.KindInteger:
		schema = openapi3.NewIntegerSchema().WithMin(f.Min).WithMax(f.Max)
		schema.Default = parseDefault(f)
	default:
		schema = openapi3.NewFloat64Schema().WithMin(f.Min).WithMax(f.Max)
		schema.Default = parseDefault(f)
	}
	schema.Title = f.Label
	return schema
}

// textual reports whether a select field is sent by label rather than number.
func textual(f risk.Field) bool {
	for _, option := range f.Options {
		if _, err := strconv.Atoi(option.Label); err != nil {
			return true
		}
	}
	return false
}

func parseDefault(f risk.Field) interface{} {
	value, err := f.Parse(f.Default)
	if err != nil {
		return nil
	}
	return value
}

func resultSchema() *openapi3.Schema {
	bars := openapi3.NewObjectSchema().
		WithProperty("low", openapi3.NewFloat64Schema().WithMin(0).WithMax(100)).
		WithProperty("high", openapi3.NewFloat64Schema().WithMin(0).WithMax(100)).
		WithProperty("low_text", openapi3.NewStringSchema()).
		WithProperty("high_text", openapi3.NewStringSchema())

	return openapi3.NewObjectSchema().
		WithProperty("class", openapi3.NewIntegerSchema()).
		WithProperty("label", openapi3.NewStringSchema().WithEnum(string(risk.LabelHigh), string(risk.LabelLow))).
		WithProperty("probability", openapi3.NewFloat64Schema().WithMin(0).WithMax(100)).
		WithProperty("probability_text", openapi3.NewStringSchema()).
		WithProperty("headline", openapi3.NewStringSchema()).
		WithProperty("advice", openapi3.NewStringSchema()).
		WithProperty("bars", bars)
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("fields", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema()))
}
