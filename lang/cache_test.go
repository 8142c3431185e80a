package lang

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCache_Compile(t *testing.T) {
	ctx := context.Background()
	c := new(Cache)

	a, err := c.Compile(ctx, "x + 1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	b, _ := c.Compile(ctx, "x + 1")
	if a != b {
		t.Error("second Compile did not return the cached expression")
	}

	d, _ := c.Compile(ctx, "x + 1", WithMaxBackreach(2))
	if d == a {
		t.Error("different options shared a cache entry")
	}

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	c.Clear()

	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}

func TestCache_Compile_NamedExpressionsInKey(t *testing.T) {
	ctx := context.Background()
	c := new(Cache)

	one := WithNamedExpressions(map[string]*Expression{"f": MustCompile("1")})
	two := WithNamedExpressions(map[string]*Expression{"f": MustCompile("2")})

	a, _ := c.Compile(ctx, "f", one)
	b, _ := c.Compile(ctx, "f", two)

	if a.Evaluate(nil) != int32(1) || b.Evaluate(nil) != int32(2) {
		t.Errorf("named expressions shared a cache entry: %v %v", a.Evaluate(nil), b.Evaluate(nil))
	}
}

// tallyObserver is not comparable.
type tallyObserver struct{ counts map[string]int }

func (o tallyObserver) Compiled(string, time.Duration, error) { o.counts["compiled"]++ }

func (o tallyObserver) Evaluated(string, time.Duration, error) { o.counts["evaluated"]++ }

func (tallyObserver) Resolved(*Identifier, reflect.Type, AccessorKind) {}

func TestCache_Compile_ObserverInKey(t *testing.T) {
	ctx := context.Background()
	c := new(Cache)

	first, second := new(recordingObserver), new(recordingObserver)

	a, _ := c.Compile(ctx, "a + 1", WithObserver(first))
	b, _ := c.Compile(ctx, "a + 1", WithObserver(second))
	again, _ := c.Compile(ctx, "a + 1", WithObserver(first))

	if a == b {
		t.Fatal("different observers shared a cache entry")
	}

	if again != a {
		t.Error("the same observer did not reuse its cache entry")
	}

	b.Evaluate(NewContext(map[string]any{"a": 1}))

	if first.evals != 0 || second.evals != 1 {
		t.Errorf("evaluations observed: first %d second %d, want 0 and 1", first.evals, second.evals)
	}

	tally := tallyObserver{counts: make(map[string]int)}
	for range 2 {
		if _, err := c.Compile(ctx, "a + 1", WithObserver(tally)); err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
	}

	if got := tally.counts["compiled"]; got != 2 {
		t.Errorf("uncomparable observer compiled %d times, want 2", got)
	}

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestCache_Compile_CachesErrors(t *testing.T) {
	c := new(Cache)

	for range 2 {
		if _, err := c.Compile(context.Background(), "(1"); !errors.Is(err, ErrSyntax) {
			t.Errorf("Compile error = %v, want %v", err, ErrSyntax)
		}
	}

	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestCache_Compile_Concurrent(t *testing.T) {
	c := new(Cache)
	results := make([]*Expression, 32)

	var wg sync.WaitGroup

	for i := range results {
		wg.Go(func() {
			results[i], _ = c.Compile(context.Background(), "a.b.c + 1")
		})
	}

	wg.Wait()

	for i, e := range results {
		if e == nil || e != results[0] {
			t.Fatalf("result %d differs from result 0", i)
		}
	}
}

func TestCache_CompileReader(t *testing.T) {
	c := new(Cache)

	e, err := c.CompileReader(context.Background(), strings.NewReader("a * 2"))
	if err != nil {
		t.Fatalf("CompileReader failed: %v", err)
	}

	if got := e.Evaluate(NewContext(map[string]any{"a": int32(4)})); got != int32(8) {
		t.Errorf("Evaluate = %v, want 8", got)
	}

	again, _ := c.Compile(context.Background(), "a * 2")
	if again != e {
		t.Error("CompileReader and Compile did not share a cache entry")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestCache_CompileReader_Error(t *testing.T) {
	_, err := new(Cache).CompileReader(context.Background(), failingReader{})
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("CompileReader error = %v, want %v", err, ErrReadInput)
	}
}

func TestCompileCached(t *testing.T) {
	t.Cleanup(DefaultCache.Clear)

	a, _ := CompileCached(context.Background(), "1 + 1")
	b, _ := CompileCached(context.Background(), "1 + 1")

	if a == nil || a != b {
		t.Error("CompileCached did not reuse the default cache")
	}
}
