package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// RequestRecorder records GraphQL requests: status, latency and how many
// filter contexts the resolvers of each request created.
type RequestRecorder interface {
	RecordGraphQLRequest(path, status string, filters int, duration time.Duration)
	IncRequestsInFlight()
	DecRequestsInFlight()
}

type filterCountKey struct{}

// CountFilter notes that a resolver of the current request created a filter
// context. Outside Metrics it does nothing.
func CountFilter(ctx context.Context) {
	if n, ok := ctx.Value(filterCountKey{}).(*atomic.Int64); ok {
		n.Add(1)
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Metrics records each request once the handler returns. Resolvers report
// the filters they build through CountFilter.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncRequestsInFlight()
			defer recorder.DecRequestsInFlight()

			filters := new(atomic.Int64)
			r = r.WithContext(context.WithValue(r.Context(), filterCountKey{}, filters))
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			recorder.RecordGraphQLRequest(r.URL.Path, strconv.Itoa(wrapper.statusCode), int(filters.Load()), time.Since(start))
		})
	}
}
