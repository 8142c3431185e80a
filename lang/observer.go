package lang

import (
	"reflect"
	"time"
)

// Observer receives engine events. Implementations must be safe for
// concurrent use; the metrics package provides one backed by Prometheus.
type Observer interface {
	// Compiled is called once per compilation attempt.
	Compiled(source string, elapsed time.Duration, err error)
	// Evaluated is called once per evaluation.
	Evaluated(source string, elapsed time.Duration, err error)
	// Resolved is called when an identifier is resolved against a runtime
	// type for the first time; later lookups hit the accessor cache.
	Resolved(id *Identifier, t reflect.Type, kind AccessorKind)
}

type nopObserver struct{}

func (nopObserver) Compiled(string, time.Duration, error)               {}
func (nopObserver) Evaluated(string, time.Duration, error)              {}
func (nopObserver) Resolved(*Identifier, reflect.Type, AccessorKind) {}
