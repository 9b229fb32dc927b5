package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartrisk/risk"
)

const (
	liveReadLimit = 8 << 10
	liveIdle      = 2 * time.Minute
	liveWriteWait = 10 * time.Second
	liveInference = 5 * time.Second
)

// liveReply is one answer on the preview socket: either a result or the
// validation problems of the submitted values.
type liveReply struct {
	Result *risk.Result      `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// handleLive answers every form snapshot sent by the page with a prediction.
// Each message is handled to completion before the next is read.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := GetRequestID(r.Context())
	conn.SetReadLimit(liveReadLimit)

	for {
		conn.SetReadDeadline(time.Now().Add(liveIdle))
		var snapshot map[string]string
		if err := conn.ReadJSON(&snapshot); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live preview closed", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}

		reply := h.livePredict(r.Context(), snapshot)
		conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("live preview write failed", zap.String("request_id", requestID), zap.Error(err))
			return
		}
	}
}

func (h *Handler) livePredict(parent context.Context, snapshot map[string]string) liveReply {
	values := make(url.Values, len(snapshot))
	for name, value := range snapshot {
		values.Set(name, value)
	}
	input, err := risk.ParseValues(values)
	if err == nil {
		ctx, cancel := context.WithTimeout(parent, liveInference)
		defer cancel()

		var result risk.Result
		result, err = h.predictor.Predict(ctx, input)
		if err == nil {
			return liveReply{Result: &result}
		}
	}

	var verr *risk.ValidationError
	if errors.As(err, &verr) {
		return liveReply{Error: "invalid input", Fields: verr.Fields}
	}
	h.logger.Error("live prediction failed", zap.Error(err))
	return liveReply{Error: "prediction failed"}
}
