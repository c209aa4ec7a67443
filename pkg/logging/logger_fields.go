package logging

import (
	"strconv"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Filtering field helpers

func Component(name string) Field {
	return String("component", name)
}

// Scope names the filter input type being built
func Scope(name string) Field {
	return String("scope", name)
}

// FilterField names the GraphQL field that owns a filter
func FilterField(name string) Field {
	return String("field", name)
}

func Depth(d int) Field {
	return Int("depth", d)
}

// Fingerprint renders a filter hash as fixed-width hex
func Fingerprint(h uint64) Field {
	s := strconv.FormatUint(h, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return String("fingerprint", s)
}

func RequestID(id string) Field {
	return String("request_id", id)
}

// Skip records whether automatic filtering was bypassed
func Skip(skip bool) Field {
	return Bool("skip_filtering", skip)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
