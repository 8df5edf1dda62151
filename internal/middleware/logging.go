// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs every HTTP request with method, path, and duration.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogSocketConnect marks a successful websocket upgrade.
func LogSocketConnect(logger *logrus.Logger, remoteAddr, identity string) {
	logger.WithFields(logrus.Fields{
		"remote":   remoteAddr,
		"identity": identity,
	}).Info("WebSocket connected")
}

// LogSocketDisconnect marks a websocket teardown, with the closing error if
// the peer did not close cleanly.
func LogSocketDisconnect(logger *logrus.Logger, remoteAddr, identity string, err error) {
	fields := logrus.Fields{
		"remote":   remoteAddr,
		"identity": identity,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
