package filtering

import (
	"context"

	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/metrics"
)

// SkipFilteringKey is the LocalState key that tells the filter middleware
// not to apply the filter to the resolver's result.
const SkipFilteringKey = "filtering.skip"

// LocalState is the key/value state of one field invocation, shared by the
// resolver and the middleware that runs after it.
type LocalState struct {
	values map[string]any
}

// NewLocalState creates empty state.
func NewLocalState() *LocalState {
	return &LocalState{values: make(map[string]any)}
}

// Set stores a value.
func (s *LocalState) Set(key string, value any) {
	s.values[key] = value
}

// Get returns a value and whether it is present.
func (s *LocalState) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Contains reports whether key is present.
func (s *LocalState) Contains(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Delete removes key.
func (s *LocalState) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of entries
func (s *LocalState) Len() int {
	return len(s.values)
}

// Phase is the coordinator's decision state.
type Phase uint8

const (
	// Pending means the resolver is still running.
	Pending Phase = iota
	// Decided means the skip signal is final.
	Decided
)

// Coordinator owns the filter context of one field invocation and decides
// whether automatic filtering runs. Touching the context opts the field out
// (the resolver is assumed to filter by hand); EnableFilterExecution opts it
// back in. A field whose resolver never touches the context is filtered.
type Coordinator struct {
	scope   Scope
	literal Literal
	state   *LocalState
	builder *Builder

	ctx   *Context
	phase Phase

	field   string
	logger  logging.Logger
	metrics *metrics.Registry
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithContextBuilder sets the builder used by the coordinator's context.
func WithContextBuilder(b *Builder) CoordinatorOption {
	return func(c *Coordinator) {
		c.builder = b
	}
}

// WithFieldName names the field in logs and metrics.
func WithFieldName(name string) CoordinatorOption {
	return func(c *Coordinator) {
		c.field = name
	}
}

// WithCoordinatorLogger sets the coordinator's logger.
func WithCoordinatorLogger(logger logging.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCoordinatorMetrics records context access and decisions on r.
func WithCoordinatorMetrics(r *metrics.Registry) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = r
	}
}

// NewCoordinator creates a pending coordinator writing to state.
func NewCoordinator(scope Scope, literal Literal, state *LocalState, opts ...CoordinatorOption) *Coordinator {
	if state == nil {
		state = NewLocalState()
	}
	c := &Coordinator{
		scope:   scope,
		literal: literal,
		state:   state,
		builder: defaultBuilder,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context returns the field's filter context, creating it on first call.
// Creating it while pending records the skip signal.
func (c *Coordinator) Context() *Context {
	if c.ctx == nil {
		c.ctx = NewContext(c.scope, c.literal, WithBuilder(c.builder), withEnableHook(c.executionEnabled))
		if c.phase == Pending {
			c.state.Set(SkipFilteringKey, true)
			if c.metrics != nil {
				c.metrics.RecordFilterContextAccess(c.field)
			}
		}
	}
	return c.ctx
}

func (c *Coordinator) executionEnabled() {
	if c.phase == Pending {
		c.state.Delete(SkipFilteringKey)
	}
}

// Accessed reports whether Context has been called.
func (c *Coordinator) Accessed() bool {
	return c.ctx != nil
}

// Phase returns the current decision state.
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// State returns the field's local state.
func (c *Coordinator) State() *LocalState {
	return c.state
}

// Finalize closes the decision and reports whether filtering is skipped.
// Later calls return the same answer.
func (c *Coordinator) Finalize() (skip bool) {
	skip = c.state.Contains(SkipFilteringKey)
	if c.phase == Decided {
		return skip
	}
	c.phase = Decided

	c.logger.Debug("filter execution decided",
		logging.FilterField(c.field),
		logging.Bool("accessed", c.Accessed()),
		logging.Skip(skip),
	)
	if c.metrics != nil {
		c.metrics.RecordFilterDecision(c.field, skip)
	}
	return skip
}

type coordinatorKey struct{}

// WithCoordinator returns a context carrying c.
func WithCoordinator(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, coordinatorKey{}, c)
}

// CoordinatorFromContext returns the coordinator installed for the current
// field, or nil.
func CoordinatorFromContext(ctx context.Context) *Coordinator {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(coordinatorKey{}).(*Coordinator)
	return c
}

// FromContext returns the filter context of the current field, or nil when
// the field has no filtering. Calling it opts the field out of automatic
// filtering unless EnableFilterExecution follows.
func FromContext(ctx context.Context) *Context {
	c := CoordinatorFromContext(ctx)
	if c == nil {
		return nil
	}
	return c.Context()
}

// LocalStateFromContext returns the local state of the current field, or nil.
func LocalStateFromContext(ctx context.Context) *LocalState {
	c := CoordinatorFromContext(ctx)
	if c == nil {
		return nil
	}
	return c.state
}
