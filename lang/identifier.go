package lang

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Identifier describes a named access: a field, map key or property when
// Params is -1, or a method call with Params arguments.
//
// An Identifier owns the accessor cache for every runtime type it has been
// resolved against. The cache is safe for concurrent use and never
// invalidated.
type Identifier struct {
	name      string
	signature []string
	params    int
	observer  Observer
	accessors sync.Map // reflect.Type → *Accessor
}

// identKey is the identity of an Identifier within an Expression.
type identKey struct {
	name      string
	signature string
	params    int
}

func newIdentifier(key identKey, observer Observer) *Identifier {
	id := &Identifier{
		name:     key.name,
		params:   key.params,
		observer: observer,
	}

	if key.signature != "" {
		id.signature = strings.Split(key.signature, ",")
	}

	return id
}

// Name returns the identifier's name without any signature suffix.
func (id *Identifier) Name() string { return id.name }

// Params returns the call arity, or -1 for a field access.
func (id *Identifier) Params() int { return id.params }

// IsMethod reports whether the identifier is a call.
func (id *Identifier) IsMethod() bool { return id.params >= 0 }

// Signature returns the parameter type names used to disambiguate a method,
// or nil. An empty element matches any type.
func (id *Identifier) Signature() []string { return id.signature }

// String returns the identifier in source form, e.g. "name", "name/2" or
// "name:string,int/2".
func (id *Identifier) String() string {
	s := id.name
	if len(id.signature) > 0 {
		s += ":" + strings.Join(id.signature, ",")
	}

	if id.params >= 0 {
		s += "/" + strconv.Itoa(id.params)
	}

	return s
}

// Accessor returns the cached access strategy for values of type t,
// resolving it on first use. It returns nil when the identifier cannot be
// satisfied by t.
func (id *Identifier) Accessor(t reflect.Type) *Accessor {
	if cached, ok := id.accessors.Load(t); ok {
		return cached.(*Accessor).applicable()
	}

	acc := newAccessor(id, t)
	if acc == nil {
		acc = inapplicable
	}

	if cached, loaded := id.accessors.LoadOrStore(t, acc); loaded {
		return cached.(*Accessor).applicable()
	}

	if id.observer != nil {
		id.observer.Resolved(id, t, acc.Kind)
	}

	return acc.applicable()
}

// access applies the identifier to v.
func (id *Identifier) access(st *state, v any, args []any) (any, lookup) {
	if v == nil {
		return nil, lookupInapplicable
	}

	rv := reflect.ValueOf(v)

	acc := id.Accessor(rv.Type())
	if acc == nil {
		return nil, lookupInapplicable
	}

	if isNilValue(rv) {
		return nil, lookupAbsent
	}

	out, res := acc.get(st, rv, args)
	if res == lookupFound && isAbsent(out) {
		return nil, lookupAbsent
	}

	return out, res
}

// reference is one use of an Identifier in source text. Backreach belongs to
// the use, not the Identifier: -1 searches by access policy, N ≥ 0 selects
// exactly the frame N levels out from the innermost.
type reference struct {
	id        *Identifier
	backreach int
	offset    int
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}

	return false
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
