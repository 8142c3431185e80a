package lang

import (
	"strings"
)

// Category is the statically known shape of a compiled sub-expression's
// result. It selects specialized evaluation paths: arithmetic between known
// numeric categories skips dynamic dispatch, and text concatenation chains
// are flattened into a single builder.
type Category uint8

const (
	CategoryObject        Category = iota // object
	CategoryBoolean                       // boolean
	CategoryInt32                         // int32
	CategoryInt64                         // int64
	CategoryFloat                         // float
	CategoryString                        // string
	CategoryStringBuilder                 // string-builder
	CategoryPair                          // pair
)

var categoryNames = [...]string{
	CategoryObject:        "object",
	CategoryBoolean:       "boolean",
	CategoryInt32:         "int32",
	CategoryInt64:         "int64",
	CategoryFloat:         "float",
	CategoryString:        "string",
	CategoryStringBuilder: "string-builder",
	CategoryPair:          "pair",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}

	return "object"
}

func (c Category) numeric() bool {
	return c == CategoryInt32 || c == CategoryInt64 || c == CategoryFloat
}

func (c Category) textual() bool {
	return c == CategoryString || c == CategoryStringBuilder
}

// widen returns the category of arithmetic between numeric categories a
// and b.
func widen(a, b Category) Category {
	switch {
	case a == CategoryFloat || b == CategoryFloat:
		return CategoryFloat
	case a == CategoryInt64 || b == CategoryInt64:
		return CategoryInt64
	}

	return CategoryInt32
}

// categoryOf returns the category describing v.
func categoryOf(v any) Category {
	switch v.(type) {
	case bool:
		return CategoryBoolean
	case int32:
		return CategoryInt32
	case int64:
		return CategoryInt64
	case float64:
		return CategoryFloat
	case string:
		return CategoryString
	case Pair:
		return CategoryPair
	}

	return CategoryObject
}

// numberFor returns a conversion to Number specialized for values of a
// numeric category.
func numberFor(c Category) func(any) Number {
	switch c {
	case CategoryInt32:
		return func(v any) Number { return Int32(v.(int32)) }
	case CategoryInt64:
		return func(v any) Number { return Int64(v.(int64)) }
	case CategoryFloat:
		return func(v any) Number { return Float(v.(float64)) }
	}

	return func(v any) Number {
		n, ok := numberOf(v)
		if !ok {
			fail(invalidOperands("number", v, nil))
		}

		return n
	}
}

// evaluator computes a sub-expression's value.
type evaluator func(*state) any

// operand is one entry of the compiler's operand stack.
type operand struct {
	category Category
	eval     evaluator
	offset   int

	constant bool
	value    any

	// name is set for a bare identifier or local variable, which may be
	// the target of an assignment.
	name string
	// ref is the scope reference of a bare identifier, released when the
	// identifier turns out to be an assignment target.
	ref *reference
	// member is set for a name following "." or "?.", which only the
	// navigation operator can consume.
	member *memberAccess
	// parts are the pieces of a string-builder chain.
	parts []*operand
	// pair holds the key and value operands of a ":" expression.
	pair *[2]*operand
}

type memberAccess struct {
	ref  *reference
	args []*operand
}

func constant(v any, offset int) *operand {
	return &operand{
		category: categoryOf(v),
		eval:     func(*state) any { return v },
		offset:   offset,
		constant: true,
		value:    v,
	}
}

// fold replaces o with a constant when every input is constant and o
// evaluates successfully without a Context. Collections are not folded so
// every evaluation produces a fresh value.
func fold(o *operand, inputs ...*operand) *operand {
	for _, in := range inputs {
		if !in.constant {
			return o
		}
	}

	v, ok := tryEval(o.eval)
	if !ok {
		return o
	}

	if c := categoryOf(v); v != nil && (c == CategoryObject || c == CategoryPair) {
		return o
	}

	return constant(v, o.offset)
}

func tryEval(eval evaluator) (v any, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()

	return eval(nil), true
}

// must returns v or aborts the evaluation with err.
func must(v any, err error) any {
	if err != nil {
		fail(err)
	}

	return v
}

func evalAll(st *state, args []*operand) []any {
	if len(args) == 0 {
		return nil
	}

	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a.eval(st)
	}

	return out
}

// builderParts returns the pieces o contributes to a concatenation chain.
func builderParts(o *operand) []*operand {
	if o.category == CategoryStringBuilder {
		return o.parts
	}

	return []*operand{o}
}

func concat(l, r *operand) *operand {
	parts := append(append([]*operand{}, builderParts(l)...), builderParts(r)...)

	return &operand{
		category: CategoryStringBuilder,
		offset:   l.offset,
		parts:    parts,
		eval: func(st *state) any {
			var sb strings.Builder
			for _, p := range parts {
				writeValue(&sb, p.eval(st))
			}

			return sb.String()
		},
	}
}
