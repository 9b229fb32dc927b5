package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heartrisk/risk"
)

func TestReadInputUsesDefaults(t *testing.T) {
	input, err := readInput(strings.NewReader(`{"age":61,"sex":"Female"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := risk.DefaultInput()
	want.Age = 61
	want.Sex = "Female"
	if input != want {
		t.Fatalf("got %+v, want %+v", input, want)
	}
}

func TestReadInputRejectsUnknownFields(t *testing.T) {
	if _, err := readInput(strings.NewReader(`{"bmi":22}`)); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 20},
		{78.14, 31},
		{100, 40},
		{120, 40},
	}
	for _, tt := range tests {
		got := bar(tt.percent)
		if len(got) != barWidth {
			t.Errorf("bar(%v) has width %d", tt.percent, len(got))
		}
		if n := strings.Count(got, "#"); n != tt.filled {
			t.Errorf("bar(%v) filled %d, want %d", tt.percent, n, tt.filled)
		}
	}
}

func TestRunWithJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	body := `{"age":45,"sex":"Male","cp":0,"trestbps":120,"chol":200,"fbs":"No","restecg":0,
		"thalach":150,"exang":"No","oldpeak":1.0,"slope":0,"ca":0,"thal":0}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), "../../config.yaml", path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"High Risk of Heart Disease! Risk Probability: 78.14%",
		"High Risk  |",
		"78.1%",
		"21.9%",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output:\n%s", want, text)
		}
	}
}
