package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_gestures/internal/config"
)

const webGestureHistory = 20

// webState keeps the latest producer messages for the HTTP API and for
// the initial frames of new websocket clients.
type webState struct {
	mu       sync.RWMutex
	reading  *ReadingMessage
	status   *StatusMessage
	gestures []GestureMessage
}

func (s *webState) setReading(m ReadingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = &m
}

func (s *webState) setStatus(m StatusMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = &m
}

func (s *webState) addGesture(m GestureMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gestures = append(s.gestures, m)
	if len(s.gestures) > webGestureHistory {
		s.gestures = s.gestures[len(s.gestures)-webGestureHistory:]
	}
}

func frame(typ string, data any) ([]byte, error) {
	return json.Marshal(envelope{Type: typ, Ts: time.Now(), Data: data})
}

// webServer serves the JSON API and the live websocket stream.
type webServer struct {
	state  *webState
	hub    *Hub
	logger *slog.Logger

	// calibrate forwards a command to the producer.
	calibrate func(CalibrateCommand) error
}

func (ws *webServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.handleWS)
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/api/reading", ws.handleReading)
	mux.HandleFunc("/api/gestures", ws.handleGestures)
	mux.HandleFunc("/api/calibrate", ws.handleCalibrate)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func (ws *webServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ws.logger.Warn("json encode failed", "err", err)
	}
}

func (ws *webServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ws.state.mu.RLock()
	defer ws.state.mu.RUnlock()
	if ws.state.status == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	ws.writeJSON(w, http.StatusOK, ws.state.status)
}

func (ws *webServer) handleReading(w http.ResponseWriter, r *http.Request) {
	ws.state.mu.RLock()
	defer ws.state.mu.RUnlock()
	if ws.state.reading == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	ws.writeJSON(w, http.StatusOK, ws.state.reading)
}

func (ws *webServer) handleGestures(w http.ResponseWriter, r *http.Request) {
	ws.state.mu.RLock()
	defer ws.state.mu.RUnlock()
	gestures := ws.state.gestures
	if gestures == nil {
		gestures = []GestureMessage{}
	}
	ws.writeJSON(w, http.StatusOK, gestures)
}

func (ws *webServer) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cmd CalibrateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, fmt.Sprintf("invalid command: %v", err), http.StatusBadRequest)
		return
	}
	if !cmd.X && !cmd.Y {
		http.Error(w, "select at least one axis", http.StatusBadRequest)
		return
	}
	if err := ws.calibrate(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	// the outcome arrives on the status topic
	ws.writeJSON(w, http.StatusAccepted, cmd)
}

func (ws *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	var initial [][]byte
	ws.state.mu.RLock()
	if ws.state.status != nil {
		if b, err := frame("status", ws.state.status); err == nil {
			initial = append(initial, b)
		}
	}
	if ws.state.reading != nil {
		if b, err := frame("reading", ws.state.reading); err == nil {
			initial = append(initial, b)
		}
	}
	ws.state.mu.RUnlock()

	ws.hub.ServeWS(w, r, initial...)
}

// forward records a message and broadcasts it to websocket clients.
func (ws *webServer) forward(typ string, data any) {
	b, err := frame(typ, data)
	if err != nil {
		ws.logger.Error("frame marshal failed", "type", typ, "err", err)
		return
	}
	ws.hub.Broadcast(b)
}

// RunWeb serves the live websocket stream and JSON API on WEB_SERVER_PORT.
func RunWeb(logger *slog.Logger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signalContext()
	defer stop()

	hub := NewHub(logger)
	go hub.Run(ctx)

	ws := &webServer{
		state:  &webState{},
		hub:    hub,
		logger: logger,
		calibrate: func(cmd CalibrateCommand) error {
			return publishCalibrate(client, cfg.TopicCalibrate, cmd)
		},
	}

	if err := subscribeJSON(client, cfg.TopicReading, logger, func(m ReadingMessage) {
		ws.state.setReading(m)
		ws.forward("reading", m)
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicStatus, logger, func(m StatusMessage) {
		ws.state.setStatus(m)
		ws.forward("status", m)
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(m GestureMessage) {
		ws.state.addGesture(m)
		ws.forward("gesture", m)
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           ws.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("web server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// publishCalibrate publishes cmd and waits for the broker to accept it.
func publishCalibrate(client mqtt.Client, topic string, cmd CalibrateCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	return token.Error()
}
