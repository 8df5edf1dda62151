// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// RoomsHandler serves the lobby summary over plain HTTP for clients that
// poll before opening a socket.
func (s *Server) RoomsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Rooms.List()); err != nil {
			s.Logger.WithError(err).Error("failed to encode room list")
		}
	}
}
