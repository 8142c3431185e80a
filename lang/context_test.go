package lang

import (
	"context"
	"errors"
	"testing"
)

func TestAccessPolicy_String(t *testing.T) {
	tests := []struct {
		policy AccessPolicy
		want   string
	}{
		{PolicyCurrent, "current"},
		{PolicyCurrentAndRoot, "current-and-root"},
		{PolicyFull, "full"},
	}

	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}

		p, ok := ParseAccessPolicy(tt.want)
		if !ok || p != tt.policy {
			t.Errorf("ParseAccessPolicy(%q) = %v, %v", tt.want, p, ok)
		}
	}

	if _, ok := ParseAccessPolicy("everything"); ok {
		t.Error("ParseAccessPolicy accepted an unknown policy")
	}
}

// threeFrames returns a Context with a root, a middle and an inner frame,
// each defining one name found nowhere else.
func threeFrames(p AccessPolicy) *Context {
	ctx := NewContext(map[string]any{"r": "root"}, WithAccessPolicy(p))
	ctx.PushScope(map[string]any{"m": "middle"})
	ctx.PushScope(map[string]any{"i": "inner"})

	return ctx
}

func TestContext_AccessPolicy_Visibility(t *testing.T) {
	tests := []struct {
		policy  AccessPolicy
		visible map[string]bool
	}{
		{PolicyCurrent, map[string]bool{"i": true, "m": false, "r": false}},
		{PolicyCurrentAndRoot, map[string]bool{"i": true, "m": false, "r": true}},
		{PolicyFull, map[string]bool{"i": true, "m": true, "r": true}},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			for name, visible := range tt.visible {
				ctx := threeFrames(tt.policy)
				got := MustCompile(name).Evaluate(ctx)

				if visible && (got == nil || len(ctx.Errors()) != 0) {
					t.Errorf("%q not visible: %v %v", name, got, ctx.Errors())
				}

				if !visible && len(ctx.Errors()) != 1 {
					t.Errorf("%q visible: %v", name, got)
				}
			}
		})
	}
}

func TestContext_AccessPolicy_Monotonic(t *testing.T) {
	names := []string{"i", "m", "r"}
	policies := []AccessPolicy{PolicyCurrent, PolicyCurrentAndRoot, PolicyFull}

	for i := 1; i < len(policies); i++ {
		for _, name := range names {
			narrow := threeFrames(policies[i-1])
			wide := threeFrames(policies[i])

			e := MustCompile(name)
			e.Evaluate(narrow)
			e.Evaluate(wide)

			if len(narrow.Errors()) == 0 && len(wide.Errors()) != 0 {
				t.Errorf("%q resolves under %v but not %v", name, policies[i-1], policies[i])
			}
		}
	}
}

func TestContext_Backreach(t *testing.T) {
	ctx := NewContext(map[string]any{"x": 1})
	ctx.PushScope(map[string]any{"x": 2})

	e, err := Compile(context.Background(), "../x", WithMaxBackreach(1))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if got := e.Evaluate(ctx); got != 1 {
		t.Errorf("../x = %v, want 1", got)
	}

	if got := MustCompile("x").Evaluate(ctx); got != 2 {
		t.Errorf("x = %v, want 2", got)
	}

	if _, err := Compile(context.Background(), "../x", WithMaxBackreach(0)); !errors.Is(err, ErrBackreachTooDeep) {
		t.Errorf("Compile with max 0 error = %v, want %v", err, ErrBackreachTooDeep)
	}
}

func TestContext_Backreach_BeyondStack(t *testing.T) {
	ctx := NewContext(map[string]any{"x": 1})

	if got := MustCompile("../../x").Evaluate(ctx); got != nil {
		t.Errorf("Evaluate = %v, want nil", got)
	}

	failures := ctx.Failures()
	if len(failures) != 1 || !errors.Is(failures[0], ErrBackreach) {
		t.Errorf("failures = %v, want one %v", failures, ErrBackreach)
	}
}

func TestContext_Backreach_ExactFrame(t *testing.T) {
	// Explicit backreach reads exactly one frame and never searches.
	ctx := NewContext(map[string]any{"x": 1})
	ctx.PushScope(map[string]any{})
	ctx.PushScope(map[string]any{})

	MustCompile("../x").Evaluate(ctx)

	if failures := ctx.Failures(); len(failures) != 1 || !errors.Is(failures[0], ErrFieldNotFound) {
		t.Errorf("failures = %v, want one %v", failures, ErrFieldNotFound)
	}
}

func TestContext_NilValuedKey(t *testing.T) {
	tests := []struct {
		policy AccessPolicy
		want   any
	}{
		// The inner frame holds x with no value, so the search continues.
		{PolicyFull, 1},
		// Nothing else is searched; absent is nil without a diagnostic.
		{PolicyCurrent, nil},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			ctx := NewContext(map[string]any{"x": 1}, WithAccessPolicy(tt.policy))
			ctx.PushScope(map[string]any{"x": nil})

			if got := MustCompile("x").Evaluate(ctx); got != tt.want {
				t.Errorf("x = %v, want %v", got, tt.want)
			}

			if errs := ctx.Errors(); len(errs) != 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestContext_ScopeStack(t *testing.T) {
	ctx := NewContext("root")

	if ctx.PopScope() != nil {
		t.Error("PopScope removed the root frame")
	}

	ctx.PushScope("a")
	ctx.PushScope("b")

	if ctx.Depth() != 3 || ctx.CurrentScope() != "b" || ctx.Root() != "root" {
		t.Errorf("stack = depth %d current %v root %v", ctx.Depth(), ctx.CurrentScope(), ctx.Root())
	}

	if v, ok := ctx.Scope(1); !ok || v != "a" {
		t.Errorf("Scope(1) = %v, %v", v, ok)
	}

	if _, ok := ctx.Scope(3); ok {
		t.Error("Scope(3) succeeded past the root")
	}

	if got := MustCompile(".").Evaluate(ctx); got != "b" {
		t.Errorf(". = %v, want b", got)
	}

	if ctx.PopScope() != "b" || ctx.PopScope() != "a" || ctx.Depth() != 1 {
		t.Error("PopScope returned frames out of order")
	}
}

func TestContext_LoopIndex(t *testing.T) {
	ctx := NewContext(nil)

	if _, ok := ctx.Index(); ok {
		t.Fatal("Index() reported a loop outside any loop")
	}

	ctx.PushIndex(LoopIndex{Index: 0, Count: 2})
	ctx.PushIndex(LoopIndex{Index: 1, Count: 2})

	l, _ := ctx.Index()
	if l.First() || !l.Last() {
		t.Errorf("inner loop = %+v", l)
	}

	ctx.PopIndex()

	l, _ = ctx.Index()
	if !l.First() || l.Last() {
		t.Errorf("outer loop = %+v", l)
	}
}

func TestContext_ClearErrors(t *testing.T) {
	ctx := NewContext(map[string]any{})
	e := MustCompile("missing")

	e.Evaluate(ctx)
	e.Evaluate(ctx)

	if n := len(ctx.Errors()); n != 2 {
		t.Fatalf("Errors() has %d entries, want 2", n)
	}

	ctx.ClearErrors()

	if n := len(ctx.Errors()); n != 0 {
		t.Errorf("Errors() has %d entries after ClearErrors", n)
	}
}

func TestContext_SetAccessPolicy(t *testing.T) {
	ctx := threeFrames(PolicyFull)
	e := MustCompile("m")

	if got := e.Evaluate(ctx); got != "middle" {
		t.Fatalf("m = %v, want middle", got)
	}

	ctx.SetAccessPolicy(PolicyCurrent)

	if got := e.Evaluate(ctx); got != nil || len(ctx.Errors()) != 1 {
		t.Errorf("m under %v = %v, errors %v", ctx.AccessPolicy(), got, ctx.Errors())
	}
}
