package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartrisk/chart"
	"heartrisk/risk"
)

// Handler serves the form, the JSON API and the live preview socket.
type Handler struct {
	predictor *risk.Predictor
	renderer  *Renderer
	logger    *zap.Logger
	openapi   []byte
	upgrader  websocket.Upgrader
	started   time.Time
	loadedAt  func() time.Time
}

type HandlerOptions struct {
	Title string
	// LoadedAt reports when the artifacts were last loaded.
	LoadedAt func() time.Time
}

func NewHandler(predictor *risk.Predictor, renderer *Renderer, logger *zap.Logger, opts HandlerOptions) (*Handler, error) {
	doc, err := openAPIDocument(opts.Title)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		predictor: predictor,
		renderer:  renderer,
		logger:    logger,
		openapi:   doc,
		upgrader:  newUpgrader(),
		started:   time.Now(),
		loadedAt:  opts.LoadedAt,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.HandleFunc("POST /api/predict", h.handlePredictJSON)
	mux.HandleFunc("GET /api/form", h.handleForm)
	mux.HandleFunc("GET /api/openapi.json", h.handleOpenAPI)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /chart.svg", h.handleChart)
	mux.HandleFunc("GET /ws/predict", h.handleLive)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, risk.NewFormState(nil), nil, "")
}

func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, risk.NewFormState(nil), nil, "could not read the submitted form")
		return
	}
	state := risk.NewFormState(r.PostForm)

	input, err := risk.ParseValues(r.PostForm)
	if err != nil {
		var verr *risk.ValidationError
		if errors.As(err, &verr) {
			state.Errors = verr.Fields
			h.renderPage(w, r, http.StatusUnprocessableEntity, state, nil, "Please correct the highlighted fields.")
			return
		}
		h.renderPage(w, r, http.StatusBadRequest, state, nil, err.Error())
		return
	}

	result, err := h.predictor.Predict(r.Context(), input)
	if err != nil {
		h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		h.renderPage(w, r, http.StatusInternalServerError, state, nil, "Prediction failed, please try again.")
		return
	}
	h.renderPage(w, r, http.StatusOK, state, &result, "")
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, state risk.FormState, result *risk.Result, formError string) {
	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, state, result, formError); err != nil {
		h.logger.Error("render failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *Handler) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	input := risk.DefaultInput()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}

	result, err := h.predictor.Predict(r.Context(), input)
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *risk.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusUnprocessableEntity, "invalid input", verr.Fields)
		return
	}
	h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "prediction failed", nil)
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields":   risk.Fields(),
		"defaults": risk.DefaultInput(),
	})
}

func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(h.openapi)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"predictions": h.predictor.Stats(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
	}
	if h.loadedAt != nil {
		payload["artifacts_loaded_at"] = h.loadedAt()
	}
	respondJSON(w, http.StatusOK, payload)
}

// handleChart draws the chart for ?p=<high risk percent>.
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	p, err := strconv.ParseFloat(r.URL.Query().Get("p"), 64)
	if err != nil || math.IsNaN(p) || p < 0 || p > 100 {
		writeError(w, http.StatusBadRequest, "p must be a percentage between 0 and 100", nil)
		return
	}
	formatter := h.predictor.Formatter()
	svg, err := chart.Render(chart.Data{
		Low:      100 - p,
		High:     p,
		LowText:  formatter.BarPercent(100 - p),
		HighText: formatter.BarPercent(p),
	}, chart.DefaultOptions())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "chart rendering failed", nil)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	respondJSON(w, status, errorResponse{Error: msg, Fields: fields})
}
