package middleware

import (
	"net/http"

	"github.com/dd0wney/cluso-filtering/pkg/logging"
)

// Logging creates middleware that logs each request with its status and
// latency. It uses the request ID from context if available.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			reqLogger := logger
			if id := GetRequestID(r); id != "" {
				reqLogger = logger.With(logging.RequestID(id))
			}

			timer := logging.StartTimer(reqLogger, "http request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			)
			next.ServeHTTP(recorder, r)

			level := logging.InfoLevel
			if recorder.statusCode >= http.StatusInternalServerError {
				level = logging.ErrorLevel
			}
			timer.EndWithLevel(level, "http request", logging.Int("status", recorder.statusCode))
		})
	}
}
