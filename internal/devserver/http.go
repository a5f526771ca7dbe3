package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatsync/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	message := err.Error()
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case ServiceErrorInvalid:
			status = http.StatusBadRequest
		case ServiceErrorNotFound:
			status = http.StatusNotFound
		case ServiceErrorConflict:
			status = http.StatusConflict
		case ServiceErrorTooLarge:
			status = http.StatusRequestEntityTooLarge
		case ServiceErrorUnavailable:
			status = http.StatusServiceUnavailable
		}
		if svcErr.Message != "" {
			message = svcErr.Message
		}
	}
	writeError(w, status, message)
}

// TokenAuthMiddleware requires the bearer token on every route except the
// health check and uploaded file downloads.
func TokenAuthMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/files/") {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || strings.TrimSpace(auth[len(prefix):]) != token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func LoggingMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = logging.NewRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		logger.Info("http_request",
			logging.F("request_id", reqID),
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", rec.status),
			logging.F("bytes", rec.bytes),
			logging.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}
