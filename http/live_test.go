package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartrisk/risk"
)

func TestLivePreview(t *testing.T) {
	handler := newTestHandler(t, &fakeModel{class: 1, proba: 0.6})
	server := NewServer(DefaultServerConfig(), handler, zap.NewNop())
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]string{"age": "50", "sex": "Female"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var reply liveReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Result == nil || reply.Result.Label != risk.LabelHigh || reply.Result.ProbabilityText != "60.00%" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	if err := conn.WriteJSON(map[string]string{"age": "abc"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply = liveReply{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Result != nil || reply.Error != "invalid input" || reply.Fields["age"] != "must be a number" {
		t.Fatalf("expected validation reply, got %+v", reply)
	}
}
