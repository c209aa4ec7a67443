package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-filtering/pkg/validation"
	"github.com/graphql-go/graphql"
)

// SchemaCheck reports whether schema carries every named type. The filter
// server registers its generated filter input types here so a schema built
// with a broken naming convention never reports ready.
func SchemaCheck(schema graphql.Schema, typeNames ...string) CheckFunc {
	return func() Check {
		check := Check{Name: "schema", Details: map[string]any{"types": len(typeNames)}}

		var missing []string
		for _, name := range typeNames {
			if schema.Type(name) == nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("missing types: %v", missing)
			return check
		}

		check.Status = StatusHealthy
		return check
	}
}

// DefaultPingTimeout bounds DatabaseCheck when no timeout is given.
const DefaultPingTimeout = 2 * time.Second

// DatabaseCheck creates a health check for database connectivity
func DatabaseCheck(ping func(ctx context.Context) error, timeout time.Duration) CheckFunc {
	timeout = validation.DefaultOrDuration(timeout, DefaultPingTimeout)
	return func() Check {
		check := Check{Name: "database"}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// ShutdownCheck turns unhealthy once shuttingDown reports true, taking the
// instance out of rotation while it drains.
func ShutdownCheck(shuttingDown func() bool) CheckFunc {
	return func() Check {
		if shuttingDown() {
			return Check{Name: "shutdown", Status: StatusUnhealthy, Message: "Shutting down"}
		}
		return Check{Name: "shutdown", Status: StatusHealthy}
	}
}

// MemoryCheck reports degraded when the heap exceeds limit bytes. A zero
// limit only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return memoryCheck(limit, func() uint64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ms.HeapAlloc
	})
}

func memoryCheck(limit uint64, heapAlloc func() uint64) CheckFunc {
	return func() Check {
		alloc := heapAlloc()
		check := Check{
			Name:    "memory",
			Status:  StatusHealthy,
			Details: map[string]any{"heap_alloc_bytes": alloc},
		}
		if limit > 0 && alloc > limit {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
