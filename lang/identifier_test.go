package lang

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countResolutions replaces the accessor resolver for the duration of the
// test and returns the number of resolutions performed.
func countResolutions(t *testing.T) *atomic.Int32 {
	t.Helper()

	var n atomic.Int32

	prev := newAccessor
	newAccessor = func(id *Identifier, typ reflect.Type) *Accessor {
		n.Add(1)

		return prev(id, typ)
	}

	t.Cleanup(func() { newAccessor = prev })

	return &n
}

func TestIdentifier_AccessorCache(t *testing.T) {
	n := countResolutions(t)
	e := MustCompile("name")

	for range 10 {
		if got := e.Evaluate(NewContext(map[string]any{"name": "ada"})); got != "ada" {
			t.Fatalf("name = %v, want ada", got)
		}
	}

	if got := n.Load(); got != 1 {
		t.Errorf("resolved %d times for one type, want 1", got)
	}

	if got := e.Evaluate(NewContext(person{Name: "bob"})); got != "bob" {
		t.Fatalf("name = %v, want bob", got)
	}

	if got := n.Load(); got != 2 {
		t.Errorf("resolved %d times for two types, want 2", got)
	}
}

func TestIdentifier_AccessorCache_Inapplicable(t *testing.T) {
	n := countResolutions(t)
	e := MustCompile("missing")

	for range 5 {
		e.Evaluate(NewContext(person{}))
	}

	if got := n.Load(); got != 1 {
		t.Errorf("resolved %d times, want 1", got)
	}
}

func TestIdentifier_AccessorCache_Concurrent(t *testing.T) {
	e := MustCompile("user.name")

	var wg sync.WaitGroup

	for range 32 {
		wg.Go(func() {
			if got := e.Evaluate(NewContext(testData())); got != "ada" {
				t.Errorf("user.name = %v, want ada", got)
			}
		})
	}

	wg.Wait()
}

func TestIdentifier_Accessor_Kinds(t *testing.T) {
	tests := []struct {
		name   string
		params int
		value  any
		want   AccessorKind
	}{
		{"name", -1, person{}, AccessField},
		{"Name", -1, &person{}, AccessField},
		{"greeting", -1, person{}, AccessMethod},
		{"older", 1, person{}, AccessMethod},
		{"k", -1, map[string]any{}, AccessMapKey},
		{"size", -1, []any{}, AccessBuiltin},
		{"key", -1, Pair{}, AccessPair},
		{"missing", -1, person{}, AccessNone},
		{"older", 2, person{}, AccessNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := newIdentifier(identKey{name: tt.name, params: tt.params}, nil)
			acc := id.Accessor(reflect.TypeOf(tt.value))

			got := AccessNone
			if acc != nil {
				got = acc.Kind
			}

			if got != tt.want {
				t.Errorf("Accessor(%T) kind = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestIdentifier_Signature(t *testing.T) {
	root := map[string]any{"v": picker{}}

	got, ctx := evaluate(t, "v.`pick:string`('a')", root)
	if len(ctx.Errors()) != 0 || got != "a!" {
		t.Errorf("matching signature = %v, errors %v", got, ctx.Errors())
	}

	_, ctx = evaluate(t, "v.`pick:int`(1)", root)
	if len(ctx.Errors()) != 1 {
		t.Errorf("mismatched signature resolved, errors %v", ctx.Errors())
	}
}

type picker struct{}

func (picker) Pick(v string) string { return v + "!" }

type recordingObserver struct {
	mu       sync.Mutex
	resolved []string
	compiled int
	evals    int
}

func (o *recordingObserver) Compiled(string, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.compiled++
}

func (o *recordingObserver) Evaluated(string, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.evals++
}

func (o *recordingObserver) Resolved(id *Identifier, _ reflect.Type, kind AccessorKind) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resolved = append(o.resolved, id.String()+"="+kind.String())
}

func TestIdentifier_Observer(t *testing.T) {
	obs := new(recordingObserver)
	e := MustCompile("user.name", WithObserver(obs))

	for range 3 {
		e.Evaluate(NewContext(testData()))
	}

	if obs.compiled != 1 || obs.evals != 3 {
		t.Errorf("compiled %d evaluated %d, want 1 and 3", obs.compiled, obs.evals)
	}

	want := []string{"user=map key", "name=field"}
	if !reflect.DeepEqual(obs.resolved, want) {
		t.Errorf("resolved = %v, want %v", obs.resolved, want)
	}
}
