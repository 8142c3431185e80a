package lang

import (
	"fmt"
	"log/slog"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// AccessorKind identifies the strategy an [Accessor] uses.
type AccessorKind uint8

const (
	AccessNone    AccessorKind = iota // inapplicable
	AccessMapKey                      // map key
	AccessField                       // field
	AccessMethod                      // method
	AccessPair                        // pair
	AccessBuiltin                     // builtin
)

var accessorKindNames = [...]string{
	AccessNone:    "inapplicable",
	AccessMapKey:  "map key",
	AccessField:   "field",
	AccessMethod:  "method",
	AccessPair:    "pair",
	AccessBuiltin: "builtin",
}

func (k AccessorKind) String() string {
	if int(k) < len(accessorKindNames) {
		return accessorKindNames[k]
	}

	return "AccessorKind(" + fmt.Sprint(uint8(k)) + ")"
}

// lookup is the outcome of applying an accessor to a value.
type lookup uint8

const (
	// lookupInapplicable means the value cannot satisfy the identifier, such
	// as a map without the requested key.
	lookupInapplicable lookup = iota
	// lookupAbsent means the identifier applies but holds no value.
	lookupAbsent
	lookupFound
)

// Accessor is the resolved strategy for satisfying one [Identifier] against
// one concrete runtime type.
type Accessor struct {
	Kind AccessorKind

	get func(st *state, rv reflect.Value, args []any) (any, lookup)
}

// inapplicable is cached for types that cannot satisfy an identifier.
var inapplicable = &Accessor{Kind: AccessNone}

func (a *Accessor) applicable() *Accessor {
	if a.Kind == AccessNone {
		return nil
	}

	return a
}

// newAccessor resolves an identifier against a type. It returns nil when no
// strategy applies. Tests replace it to observe cache behavior.
var newAccessor = resolveAccessor

func resolveAccessor(id *Identifier, t reflect.Type) *Accessor {
	if t == pairType {
		if acc := pairAccessor(id); acc != nil {
			return acc
		}
	}

	if id.params < 0 {
		if acc := fieldAccessor(id, t); acc != nil {
			return acc
		}

		if acc := mapAccessor(id, t); acc != nil {
			return acc
		}

		if acc := methodAccessor(id, t); acc != nil {
			return acc
		}

		return builtinAccessor(id, t)
	}

	if acc := methodAccessor(id, t); acc != nil {
		return acc
	}

	if acc := mapAccessor(id, t); acc != nil {
		return acc
	}

	return builtinAccessor(id, t)
}

func pairAccessor(id *Identifier) *Accessor {
	var pick func(Pair) any

	switch {
	case id.params <= 0 && id.name == "key", id.params == 0 && id.name == "getKey":
		pick = func(p Pair) any { return p.Key }
	case id.params <= 0 && id.name == "value", id.params == 0 && id.name == "getValue":
		pick = func(p Pair) any { return p.Value }
	default:
		return nil
	}

	return &Accessor{
		Kind: AccessPair,
		get: func(_ *state, rv reflect.Value, _ []any) (any, lookup) {
			return pick(rv.Interface().(Pair)), lookupFound
		},
	}
}

func fieldAccessor(id *Identifier, t reflect.Type) *Accessor {
	base, ptr := t, false
	if t.Kind() == reflect.Pointer {
		base, ptr = t.Elem(), true
	}

	if base.Kind() != reflect.Struct {
		return nil
	}

	for _, name := range []string{id.name, exportName(id.name)} {
		f, ok := base.FieldByName(name)
		if !ok || !f.IsExported() {
			continue
		}

		index := f.Index

		return &Accessor{
			Kind: AccessField,
			get: func(_ *state, rv reflect.Value, _ []any) (any, lookup) {
				if ptr {
					rv = rv.Elem()
				}

				fv, err := rv.FieldByIndexErr(index)
				if err != nil {
					return nil, lookupAbsent
				}

				if !fv.CanInterface() {
					return nil, lookupInapplicable
				}

				return fv.Interface(), lookupFound
			},
		}
	}

	return nil
}

func mapAccessor(id *Identifier, t reflect.Type) *Accessor {
	if t.Kind() != reflect.Map {
		return nil
	}

	kt := t.Key()
	if kt.Kind() != reflect.String && kt.Kind() != reflect.Interface {
		return nil
	}

	key := reflect.ValueOf(id.name)
	if kt.Kind() == reflect.String {
		key = key.Convert(kt)
	}

	fallback := builtinAccessor(id, t)

	return &Accessor{
		Kind: AccessMapKey,
		get: func(st *state, rv reflect.Value, args []any) (any, lookup) {
			entry := rv.MapIndex(key)
			if !entry.IsValid() {
				if fallback != nil {
					return fallback.get(st, rv, args)
				}

				return nil, lookupInapplicable
			}

			v := entry.Interface()

			switch x := v.(type) {
			case nil:
				return nil, lookupAbsent
			case *Expression:
				return st.invoke(x, args, id.params >= 0), lookupFound
			}

			if id.params < 0 {
				return v, lookupFound
			}

			if fn := reflect.ValueOf(v); fn.Kind() == reflect.Func {
				return callFunc(id, fn, args), lookupFound
			}

			if fallback != nil {
				return fallback.get(st, rv, args)
			}

			return nil, lookupInapplicable
		},
	}
}

func methodAccessor(id *Identifier, t reflect.Type) *Accessor {
	name := exportName(id.name)
	names := []string{name}

	if id.params <= 0 {
		names = append(names, "Get"+name, "Is"+name)
	}

	for _, name := range names {
		if m, ok := t.MethodByName(name); ok && signatureMatches(id, m.Type, 1) {
			index := m.Index

			return &Accessor{
				Kind: AccessMethod,
				get: func(_ *state, rv reflect.Value, args []any) (any, lookup) {
					return callFunc(id, rv.Method(index), args), lookupFound
				},
			}
		}

		if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
			continue
		}

		// Methods declared on the pointer receiver are reached through an
		// addressable copy.
		pt := reflect.PointerTo(t)
		if m, ok := pt.MethodByName(name); ok && signatureMatches(id, m.Type, 1) {
			index := m.Index

			return &Accessor{
				Kind: AccessMethod,
				get: func(_ *state, rv reflect.Value, args []any) (any, lookup) {
					p := reflect.New(rv.Type())
					p.Elem().Set(rv)

					return callFunc(id, p.Method(index), args), lookupFound
				},
			}
		}
	}

	return nil
}

// signatureMatches reports whether function type ft, whose first skip
// inputs are bound, accepts the identifier's arity and signature.
func signatureMatches(id *Identifier, ft reflect.Type, skip int) bool {
	in := ft.NumIn() - skip
	want := max(id.params, 0)

	if ft.IsVariadic() {
		if want < in-1 {
			return false
		}
	} else if want != in {
		return false
	}

	if ft.NumOut() > 2 {
		return false
	}

	for i, name := range id.signature {
		if name == "" {
			continue
		}

		if i >= want {
			return false
		}

		var pt reflect.Type
		if ft.IsVariadic() && i >= in-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(skip + i)
		}

		if name != pt.String() && name != pt.Name() && name != pt.Kind().String() {
			return false
		}
	}

	return true
}

var errorType = reflect.TypeFor[error]()

// callFunc invokes fn with args converted to its parameter types. Host
// failures, both returned errors and panics, abort the evaluation with
// [ErrHostCall].
func callFunc(id *Identifier, fn reflect.Value, args []any) any {
	ft := fn.Type()
	n := ft.NumIn()

	if (ft.IsVariadic() && len(args) < n-1) || (!ft.IsVariadic() && len(args) != n) {
		fail(ErrHostCall.With(
			slog.String("method", id.String()),
			slog.Int("want", n),
			slog.Int("got", len(args)),
		))
	}

	in := make([]reflect.Value, len(args))

	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}

		v, ok := convertTo(arg, pt)
		if !ok {
			fail(ErrHostCall.With(
				slog.String("method", id.String()),
				slog.Int("argument", i),
				slog.String("want", pt.String()),
				slog.String("got", typeName(arg)),
			))
		}

		in[i] = v
	}

	out := guardedCall(id, fn, in)

	switch len(out) {
	case 0:
		return nil
	case 1:
		if ft.Out(0) == errorType {
			checkHostError(id, out[0])

			return nil
		}
	case 2:
		if ft.Out(1) == errorType {
			checkHostError(id, out[1])
		}
	}

	return out[0].Interface()
}

func guardedCall(id *Identifier, fn reflect.Value, in []reflect.Value) []reflect.Value {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if ee, ok := r.(evalError); ok {
			panic(ee)
		}

		fail(ErrHostCall.Wrap(fmt.Errorf("panic: %v", r)).
			With(slog.String("method", id.String())))
	}()

	return fn.Call(in)
}

func checkHostError(id *Identifier, v reflect.Value) {
	if v.IsNil() {
		return
	}

	fail(ErrHostCall.Wrap(v.Interface().(error)).
		With(slog.String("method", id.String())))
}

// exportName returns name with its first letter in upper case.
func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}
