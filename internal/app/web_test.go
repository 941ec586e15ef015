package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWebServer(t *testing.T) (*webServer, *[]CalibrateCommand) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(discardLogger())
	go hub.Run(ctx)

	var sent []CalibrateCommand
	ws := &webServer{
		state:  &webState{},
		hub:    hub,
		logger: discardLogger(),
		calibrate: func(cmd CalibrateCommand) error {
			sent = append(sent, cmd)
			return nil
		},
	}
	return ws, &sent
}

func TestWebStatusEndpoint(t *testing.T) {
	ws, _ := newTestWebServer(t)
	mux := ws.routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before data, got %d", rec.Code)
	}

	ws.state.setStatus(StatusMessage{Status: gesture.Status{Source: "mock", Active: true}})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var st StatusMessage
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Source != "mock" || !st.Active {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestWebGesturesEndpoint(t *testing.T) {
	ws, _ := newTestWebServer(t)
	mux := ws.routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gestures", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", rec.Body.String())
	}

	for i := 0; i < webGestureHistory+3; i++ {
		ws.state.addGesture(GestureMessage{Axis: shake.AxisY})
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gestures", nil))
	var got []GestureMessage
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != webGestureHistory || got[0].Axis != shake.AxisY {
		t.Fatalf("unexpected gestures %v", got)
	}
}

func TestWebCalibrateEndpoint(t *testing.T) {
	ws, sent := newTestWebServer(t)
	mux := ws.routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calibrate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calibrate", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no axes: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calibrate", strings.NewReader(`{"x":true}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(*sent) != 1 || !(*sent)[0].X || (*sent)[0].Y {
		t.Fatalf("unexpected forwarded commands %v", *sent)
	}
}

func TestWebSocketStream(t *testing.T) {
	ws, _ := newTestWebServer(t)
	ws.state.setStatus(StatusMessage{Status: gesture.Status{Source: "mock"}})

	srv := httptest.NewServer(ws.routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if env.Type != "status" {
		t.Fatalf("expected initial status frame, got %q", env.Type)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ws.hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ws.forward("gesture", GestureMessage{Axis: shake.AxisX, Time: time.Now()})
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read gesture frame: %v", err)
	}
	var g GestureMessage
	if err := json.Unmarshal(env.Data, &g); err != nil {
		t.Fatal(err)
	}
	if env.Type != "gesture" || g.Axis != shake.AxisX {
		t.Fatalf("unexpected frame %s %+v", env.Type, g)
	}
}

func TestHubStoppedClosesNewClients(t *testing.T) {
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	// more clients than the register queue holds
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		conn.Close()
		if err == nil {
			t.Fatalf("client %d: expected connection to be closed", i)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Fatalf("client %d: connection left open after hub stopped", i)
		}
	}
	if hub.Clients() != 0 {
		t.Fatalf("stopped hub registered %d clients", hub.Clients())
	}
}
