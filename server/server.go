// Package server exposes the bagstream tracker over HTTP: job submission
// and point-in-time status queries as plain request/response endpoints,
// and live status subscriptions over WebSockets.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/skyport/bagstream"
)

type Server struct {
	tracker  *bagstream.Tracker
	upgrader websocket.Upgrader
	router   chi.Router
}

func New(tracker *bagstream.Tracker) *Server {
	s := &Server{
		tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Get("/", s.handleRoot)
	r.Post("/process", s.handleProcess)
	r.Get("/status/{taskID}", s.handleStatus)
	r.Get("/ws/status/{taskID}", s.handleSubscribe)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Airline Baggage Processing System API",
	})
}

// handleProcess starts a new baggage-processing task and tells the client
// where to subscribe for live updates.
func (s *Server) handleProcess(w http.ResponseWriter, _ *http.Request) {
	rec, err := s.tracker.Submit(NewBaggageDetails())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"detail": "failed to start baggage processing",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"task_id":       rec.ID,
		"message":       "Baggage processing started",
		"websocket_url": "/ws/status/" + rec.ID,
		"instruction":   "Connect to the WebSocket URL to receive real-time status updates",
	})
}

// handleStatus is the polling fallback for non-WebSocket clients.
func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "taskID")
	rec, err := s.tracker.Status(id)
	if err != nil {
		if errors.Is(err, bagstream.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "status lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleSubscribe upgrades the connection and attaches it to the task's
// update stream. The handler then blocks until the peer disconnects; the
// hub handles everything pushed in between.
func (s *Server) handleSubscribe(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "taskID")
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		return
	}

	sub := newWSSubscriber(conn)
	s.tracker.Subscribe(id, sub)

	sub.waitClosed()
	s.tracker.Unsubscribe(id, sub)
	_ = conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
