package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"heartrisk/ml"
	"heartrisk/risk"
)

type fakeModel struct {
	class int
	proba float64
	err   error
}

func (f *fakeModel) Predict(ctx context.Context, x ml.FeatureVector) (ml.Prediction, error) {
	if f.err != nil {
		return ml.Prediction{}, f.err
	}
	return ml.Prediction{Class: f.class, Classes: []int{0, 1}, Probabilities: []float64{1 - f.proba, f.proba}}, nil
}

func (f *fakeModel) Classes() []int {
	return []int{0, 1}
}

func newTestHandler(t *testing.T, model ml.ModelProvider) *Handler {
	t.Helper()
	predictor, err := risk.NewPredictor(model, risk.Options{PositiveClass: 1, CacheSize: 16, Language: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	renderer, err := NewRenderer(PageConfig{
		Title:     "AI Health Risk Predictor",
		AboutHTML: `<b>not a medical diagnosis</b><script>alert(1)</script>`,
		Footer:    "Powered by Machine Learning",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handler, err := NewHandler(predictor, renderer, zap.NewNop(), HandlerOptions{Title: "AI Health Risk Predictor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return handler
}

func newTestMux(t *testing.T, model ml.ModelProvider) *http.ServeMux {
	mux := http.NewServeMux()
	newTestHandler(t, model).Register(mux)
	return mux
}

func exampleForm() url.Values {
	return url.Values{
		"age":      {"45"},
		"sex":      {"Male"},
		"cp":       {"0"},
		"trestbps": {"120"},
		"chol":     {"200"},
		"fbs":      {"No"},
		"restecg":  {"0"},
		"thalach":  {"150"},
		"exang":    {"No"},
		"oldpeak":  {"1.0"},
		"slope":    {"0"},
		"ca":       {"0"},
		"thal":     {"0"},
	}
}

func TestHealthHandler(t *testing.T) {
	mux := newTestMux(t, &fakeModel{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestIndexRendersDefaults(t *testing.T) {
	mux := newTestMux(t, &fakeModel{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="age"`,
		`value="45"`,
		`min="20"`,
		`max="100"`,
		`step="0.01"`,
		`<option value="Male" selected>`,
		`AI Health Risk Predictor`,
		`<b>not a medical diagnosis</b>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
	if strings.Contains(body, "alert(1)") {
		t.Error("about text must be sanitised")
	}
	if strings.Contains(body, `id="result"`) {
		t.Error("no result should be shown before submission")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	mux := newTestMux(t, &fakeModel{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPredictFormHighRisk(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, proba: 0.8})
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(exampleForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		"High Risk of Heart Disease! Risk Probability: 80.00%",
		"Please consult a cardiologist",
		"data:image/svg+xml;base64,",
		`<option value="No" selected>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestPredictFormLowRisk(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 0, proba: 0.2})
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(exampleForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Low Risk! Risk Probability: 20.00%") {
		t.Fatalf("expected low risk banner, got %s", w.Body.String())
	}
}

func TestPredictFormValidation(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, proba: 0.8})
	form := exampleForm()
	form.Set("age", "10")
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "must be between 20 and 100") {
		t.Fatal("expected field error in page")
	}
	if !strings.Contains(body, `value="10"`) {
		t.Fatal("submitted value should be redisplayed")
	}
}

func TestPredictJSON(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 1, proba: 0.75})
	body := `{"age":45,"sex":"Male","cp":0,"trestbps":120,"chol":200,"fbs":"No","restecg":0,
		"thalach":150,"exang":"No","oldpeak":1.0,"slope":0,"ca":0,"thal":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result risk.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if result.Label != risk.LabelHigh || result.ProbabilityText != "75.00%" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Bars.Low+result.Bars.High != 100 {
		t.Fatalf("bars must sum to 100: %+v", result.Bars)
	}
}

func TestPredictJSONDefaultsMissingFields(t *testing.T) {
	mux := newTestMux(t, &fakeModel{class: 0, proba: 0.1})
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"age":60}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPredictJSONErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"age":`, http.StatusBadRequest},
		{"unknown field", `{"weight":80}`, http.StatusBadRequest},
		{"wrong type", `{"age":"old"}`, http.StatusBadRequest},
		{"out of range", `{"age":150,"sex":"Robot"}`, http.StatusUnprocessableEntity},
	}
	mux := newTestMux(t, &fakeModel{class: 1, proba: 0.5})
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, w.Code)
			continue
		}
		var payload errorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Errorf("%s: invalid json: %v", tc.name, err)
			continue
		}
		if tc.status == http.StatusUnprocessableEntity && (payload.Fields["age"] == "" || payload.Fields["sex"] == "") {
			t.Errorf("%s: expected age and sex errors, got %v", tc.name, payload.Fields)
		}
	}
}

func TestPredictJSONModelFailure(t *testing.T) {
	mux := newTestMux(t, &fakeModel{err: errors.New("corrupt")})
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "corrupt") {
		t.Fatal("internal errors must not leak to clients")
	}
}

func TestFormCatalogue(t *testing.T) {
	mux := newTestMux(t, &fakeModel{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/form", nil))

	var payload struct {
		Fields   []risk.Field `json:"fields"`
		Defaults risk.Input   `json:"defaults"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Fields) != ml.FeatureCount {
		t.Fatalf("expected %d fields, got %d", ml.FeatureCount, len(payload.Fields))
	}
	if payload.Defaults.Age != 45 || payload.Defaults.MaxHeartRate != 150 {
		t.Fatalf("unexpected defaults %+v", payload.Defaults)
	}
}

func TestStatsCountsPredictions(t *testing.T) {
	handler := newTestHandler(t, &fakeModel{class: 1, proba: 0.9})
	mux := http.NewServeMux()
	handler.Register(mux)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{}`)))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var payload struct {
		Predictions risk.Stats `json:"predictions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Predictions.Predictions != 2 || payload.Predictions.CacheHits != 1 || payload.Predictions.HighRisk != 2 {
		t.Fatalf("unexpected stats %+v", payload.Predictions)
	}
}

func TestChartEndpoint(t *testing.T) {
	mux := newTestMux(t, &fakeModel{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chart.svg?p=30", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Fatal("expected svg body")
	}

	for _, query := range []string{"", "p=abc", "p=-1", "p=101", "p=NaN"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chart.svg?"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", query, w.Code)
		}
	}
}
