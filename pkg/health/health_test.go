package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
)

func TestNewChecker(t *testing.T) {
	c := NewChecker()

	if c.readyChecks == nil {
		t.Error("readyChecks map not initialized")
	}
	if c.liveChecks == nil {
		t.Error("liveChecks map not initialized")
	}

	resp := c.CheckReadiness()
	if resp.Status != StatusHealthy {
		t.Errorf("expected healthy with no checks, got %s", resp.Status)
	}
	if len(resp.Checks) != 0 {
		t.Errorf("expected no checks, got %d", len(resp.Checks))
	}
}

func TestReadinessAndLivenessSeparate(t *testing.T) {
	c := NewChecker()

	readyCalled, liveCalled := false, false
	c.RegisterReadinessCheck("ready", func() Check {
		readyCalled = true
		return Check{Status: StatusHealthy}
	})
	c.RegisterLivenessCheck("live", func() Check {
		liveCalled = true
		return Check{Status: StatusHealthy}
	})

	c.CheckLiveness()
	if readyCalled {
		t.Error("readiness check should not run for CheckLiveness()")
	}
	if !liveCalled {
		t.Error("liveness check was not called")
	}

	resp := c.CheckReadiness()
	if !readyCalled {
		t.Error("readiness check was not called")
	}
	check, ok := resp.Checks["ready"]
	if !ok {
		t.Fatal("check result not in response")
	}
	if check.Name != "ready" {
		t.Errorf("expected check name to default to its key, got %q", check.Name)
	}
}

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusHealthy, StatusUnhealthy}, StatusUnhealthy},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusDegraded}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for i, s := range tt.statuses {
				c.RegisterReadinessCheck(string(rune('a'+i)), func() Check {
					return Check{Status: s}
				})
			}

			if got := c.CheckReadiness().Status; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSchemaCheck(t *testing.T) {
	filter := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BookFilterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"books": &graphql.Field{
					Type: graphql.NewList(graphql.String),
					Args: graphql.FieldConfigArgument{"where": &graphql.ArgumentConfig{Type: filter}},
				},
			},
		}),
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	check := SchemaCheck(schema, "BookFilterInput")()
	if check.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s: %s", check.Status, check.Message)
	}

	check = SchemaCheck(schema, "BookFilterInput", "AuthorFilterInput")()
	if check.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", check.Status)
	}
	if check.Message != "missing types: [AuthorFilterInput]" {
		t.Errorf("unexpected message %q", check.Message)
	}
}

func TestDatabaseCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus Status
		wantMsg    string
	}{
		{"connected", nil, StatusHealthy, "Connected"},
		{"unreachable", errors.New("connection refused"), StatusUnhealthy, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hadDeadline bool
			check := DatabaseCheck(func(ctx context.Context) error {
				_, hadDeadline = ctx.Deadline()
				return tt.pingErr
			}, time.Second)()

			if check.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, check.Status)
			}
			if check.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, check.Message)
			}
			if !hadDeadline {
				t.Error("expected the ping context to carry a deadline")
			}
		})
	}
}

func TestDatabaseCheckDefaultTimeout(t *testing.T) {
	var remaining time.Duration
	DatabaseCheck(func(ctx context.Context) error {
		deadline, _ := ctx.Deadline()
		remaining = time.Until(deadline)
		return nil
	}, 0)()

	if remaining <= 0 || remaining > DefaultPingTimeout {
		t.Errorf("expected a deadline within %v, got %v", DefaultPingTimeout, remaining)
	}
}

func TestShutdownCheck(t *testing.T) {
	down := false
	check := ShutdownCheck(func() bool { return down })

	if got := check().Status; got != StatusHealthy {
		t.Errorf("expected healthy, got %s", got)
	}
	down = true
	if got := check().Status; got != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", got)
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name  string
		limit uint64
		alloc uint64
		want  Status
	}{
		{"no limit", 0, 1 << 40, StatusHealthy},
		{"under limit", 1 << 30, 1 << 20, StatusHealthy},
		{"over limit", 1 << 20, 1 << 30, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := memoryCheck(tt.limit, func() uint64 { return tt.alloc })()
			if check.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, check.Status)
			}
			if check.Details["heap_alloc_bytes"] != tt.alloc {
				t.Errorf("expected heap_alloc_bytes %d, got %v", tt.alloc, check.Details["heap_alloc_bytes"])
			}
		})
	}

	if got := MemoryCheck(0)().Status; got != StatusHealthy {
		t.Errorf("expected healthy, got %s", got)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name         string
		status       Status
		expectedCode int
	}{
		{"healthy returns 200", StatusHealthy, http.StatusOK},
		{"degraded returns 200", StatusDegraded, http.StatusOK},
		{"unhealthy returns 503", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			fn := func() Check { return Check{Status: tt.status} }
			c.RegisterReadinessCheck("test", fn)
			c.RegisterLivenessCheck("test", fn)

			for path, handler := range map[string]http.HandlerFunc{
				"/readyz": c.ReadinessHandler(),
				"/livez":  c.LivenessHandler(),
			} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				rec := httptest.NewRecorder()
				handler(rec, req)

				if rec.Code != tt.expectedCode {
					t.Errorf("%s: expected status code %d, got %d", path, tt.expectedCode, rec.Code)
				}
				if rec.Header().Get("Content-Type") != "application/json" {
					t.Errorf("%s: expected Content-Type application/json", path)
				}

				var resp Response
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Status != tt.status {
					t.Errorf("%s: expected response status %s, got %s", path, tt.status, resp.Status)
				}
			}
		})
	}
}

func TestConcurrentCheckRegistration(t *testing.T) {
	c := NewChecker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		name := string(rune('A' + i))
		go func() {
			defer wg.Done()
			c.RegisterReadinessCheck(name, func() Check { return Check{Status: StatusHealthy} })
		}()
		go func() {
			defer wg.Done()
			c.CheckReadiness()
		}()
	}
	wg.Wait()

	if got := len(c.CheckReadiness().Checks); got != 50 {
		t.Errorf("expected 50 checks, got %d", got)
	}
}
