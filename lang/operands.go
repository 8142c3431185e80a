package lang

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Add returns a + b.
//
// Numbers add under the widening rules of [Number]. If either side is text,
// the other side is converted to its textual form and the two are
// concatenated. A set absorbs the members of a collection, or the entries of
// a map as [Pair] values. Two sequences concatenate, and a map entry list is
// appended to a sequence. Maps merge with the right side winning on key
// collisions.
func Add(a, b any) (any, error) {
	_, as := a.(string)
	_, bs := b.(string)

	if as || bs {
		return Format(a) + Format(b), nil
	}

	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			if _, ac := a.(Char); !ac {
				return x.Add(y).Value(), nil
			}

			if _, bc := b.(Char); !bc {
				return x.Add(y).Value(), nil
			}
		}
	}

	if isChar(a) || isChar(b) {
		return Format(a) + Format(b), nil
	}

	switch {
	case isSet(a):
		out := a.(*Set).Clone()

		switch {
		case isMap(b):
			for _, p := range entriesOf(b) {
				out.Add(p)
			}
		default:
			items, ok := elementsOf(b)
			if !ok {
				return nil, invalidOperands("+", a, b)
			}

			for _, v := range items {
				out.Add(v)
			}
		}

		return out, nil

	case isSequence(a):
		head, _ := elementsOf(a)
		out := slices.Clone(head)

		switch {
		case isMap(b):
			for _, p := range entriesOf(b) {
				out = append(out, p)
			}
		default:
			tail, ok := elementsOf(b)
			if !ok {
				return nil, invalidOperands("+", a, b)
			}

			out = append(out, tail...)
		}

		return out, nil

	case isMap(a):
		var entries []Pair

		switch {
		case isMap(b):
			entries = entriesOf(b)
		default:
			items, ok := elementsOf(b)
			if !ok {
				return nil, invalidOperands("+", a, b)
			}

			for _, v := range items {
				p, ok := v.(Pair)
				if !ok {
					return nil, invalidOperands("+", a, b)
				}

				entries = append(entries, p)
			}
		}

		return mergeMap(a, entries), nil
	}

	return nil, invalidOperands("+", a, b)
}

// Subtract returns a - b.
//
// Numbers subtract under the widening rules of [Number]. A set, sequence or
// map minus a collection removes the matching members, elements or keys; a
// map on the right contributes its key set.
func Subtract(a, b any) (any, error) {
	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			return x.Sub(y).Value(), nil
		}
	}

	var drop []any

	switch {
	case isMap(b):
		for _, p := range entriesOf(b) {
			drop = append(drop, p.Key)
		}
	default:
		items, ok := elementsOf(b)
		if !ok {
			return nil, invalidOperands("-", a, b)
		}

		drop = items
	}

	dropped := func(v any) bool {
		return slices.ContainsFunc(drop, func(d any) bool { return Equal(v, d) })
	}

	switch {
	case isSet(a):
		out := NewSet()

		for v := range a.(*Set).All() {
			if !dropped(v) {
				out.Add(v)
			}
		}

		return out, nil

	case isSequence(a):
		items, _ := elementsOf(a)
		out := make([]any, 0, len(items))

		for _, v := range items {
			if !dropped(v) {
				out = append(out, v)
			}
		}

		return out, nil

	case isMap(a):
		src := reflect.ValueOf(a)
		out := reflect.MakeMapWithSize(src.Type(), src.Len())

		iter := src.MapRange()
		for iter.Next() {
			if !dropped(iter.Key().Interface()) {
				out.SetMapIndex(iter.Key(), iter.Value())
			}
		}

		return out.Interface(), nil
	}

	return nil, invalidOperands("-", a, b)
}

// Compare orders a and b, returning a negative number, zero or a positive
// number.
//
// Numbers and characters compare by numeric value, text and characters
// compare lexicographically, and values with a Compare method use it. With
// equality set, unrelated values compare by deep value equality and report
// non-zero when unequal; without it, they fail with [ErrInvalidOperands].
func Compare(a, b any, equality bool) (int, error) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, nil
		}

		if equality {
			return 1, nil
		}

		return 0, invalidOperands("<=>", a, b)
	}

	if x, ok := numberOf(a); ok {
		if y, ok := numberOf(b); ok {
			return x.Cmp(y), nil
		}
	}

	if x, ok := textOf(a); ok {
		if y, ok := textOf(b); ok {
			return strings.Compare(x, y), nil
		}
	}

	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case y:
				return -1, nil
			}

			return 1, nil
		}
	}

	if c, ok := compareMethod(a, b); ok {
		return c, nil
	}

	if !equality {
		return 0, invalidOperands("<=>", a, b)
	}

	if equalValues(a, b) {
		return 0, nil
	}

	return 1, nil
}

// Equal reports whether a and b are equal under [Compare] in equality mode.
func Equal(a, b any) bool {
	c, err := Compare(a, b, true)

	return err == nil && c == 0
}

// ToBoolean converts v to a truth value: null is false, numbers are true
// when non-zero and not NaN, characters when non-zero, booleans are
// themselves, and every other value is true.
func ToBoolean(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return true
	}

	if n, ok := numberOf(v); ok {
		return !n.IsZero()
	}

	return true
}

// Format returns the textual form of v used for concatenation and output.
func Format(v any) string {
	var sb strings.Builder

	writeValue(&sb, v)

	return sb.String()
}

func writeValue(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(x)
	case Char:
		sb.WriteRune(rune(x))
	case bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case float64:
		sb.WriteString(formatFloat(x))
	case float32:
		sb.WriteString(formatFloat(float64(x)))
	case Number:
		sb.WriteString(x.String())
	case *strings.Builder:
		sb.WriteString(x.String())
	case fmt.Stringer:
		sb.WriteString(x.String())
	case error:
		sb.WriteString(x.Error())
	default:
		if n, ok := numberOf(v); ok {
			sb.WriteString(n.String())

			return
		}

		switch {
		case isSequence(v):
			items, _ := elementsOf(v)

			sb.WriteByte('[')

			for i, e := range items {
				if i > 0 {
					sb.WriteString(", ")
				}

				writeValue(sb, e)
			}

			sb.WriteByte(']')

		case isMap(v):
			entries := entriesOf(v)

			sb.WriteByte('{')

			for i, p := range entries {
				if i > 0 {
					sb.WriteString(", ")
				}

				writeValue(sb, p.Key)
				sb.WriteString(": ")
				writeValue(sb, p.Value)
			}

			sb.WriteByte('}')

		default:
			fmt.Fprint(sb, v)
		}
	}
}

// Multiply returns a * b. Text multiplied by an integral repeats the text.
func Multiply(a, b any) (any, error) {
	if s, ok := a.(string); ok {
		if n, ok := numberOf(b); ok && n.IsIntegral() && n.i >= 0 {
			if n.i > 0 && int64(len(s)) > maxRange/n.i {
				return nil, invalidOperands("*", a, b).
					With(slog.Int64("count", n.i))
			}

			return strings.Repeat(s, int(n.i)), nil
		}
	}

	x, y, err := numbers("*", a, b)
	if err != nil {
		return nil, err
	}

	return x.Mul(y).Value(), nil
}

// Divide returns a / b.
func Divide(a, b any) (any, error) {
	x, y, err := numbers("/", a, b)
	if err != nil {
		return nil, err
	}

	n, err := x.Div(y)
	if err != nil {
		return nil, err
	}

	return n.Value(), nil
}

// Modulo returns the remainder of a / b.
func Modulo(a, b any) (any, error) {
	x, y, err := numbers("%", a, b)
	if err != nil {
		return nil, err
	}

	n, err := x.Mod(y)
	if err != nil {
		return nil, err
	}

	return n.Value(), nil
}

// Negate returns -v.
func Negate(v any) (any, error) {
	n, ok := numberOf(v)
	if !ok {
		return nil, invalidOperands("-", v, nil)
	}

	return n.Neg().Value(), nil
}

// Positive returns v, which must be numeric.
func Positive(v any) (any, error) {
	n, ok := numberOf(v)
	if !ok {
		return nil, invalidOperands("+", v, nil)
	}

	return n.Value(), nil
}

// Complement returns the bitwise complement of an integral value.
func Complement(v any) (any, error) {
	n, ok := numberOf(v)
	if !ok || !n.IsIntegral() {
		return nil, invalidOperands("~", v, nil)
	}

	if n.kind == int32Kind {
		return ^int32(n.i), nil
	}

	return ^n.i, nil
}

// Bitwise applies one of the operators "&", "|" or "^" to two integral or
// two boolean operands.
func Bitwise(op string, a, b any) (any, error) {
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch op {
			case "&":
				return x && y, nil
			case "|":
				return x || y, nil
			default:
				return x != y, nil
			}
		}
	}

	x, y, err := integrals(op, a, b)
	if err != nil {
		return nil, err
	}

	var v int64

	switch op {
	case "&":
		v = x.i & y.i
	case "|":
		v = x.i | y.i
	default:
		v = x.i ^ y.i
	}

	return integral(x, y, v).Value(), nil
}

// Shift applies one of the operators "<<", ">>" or ">>>". The result has the
// width of the left operand.
func Shift(op string, a, b any) (any, error) {
	x, y, err := integrals(op, a, b)
	if err != nil {
		return nil, err
	}

	if x.kind == int32Kind {
		s := uint(y.i) & 31
		v := int32(x.i)

		switch op {
		case "<<":
			return v << s, nil
		case ">>":
			return v >> s, nil
		default:
			return int32(uint32(v) >> s), nil
		}
	}

	s := uint(y.i) & 63

	switch op {
	case "<<":
		return x.i << s, nil
	case ">>":
		return x.i >> s, nil
	default:
		return int64(uint64(x.i) >> s), nil
	}
}

// maxRange bounds the number of elements a range literal may produce and
// the length of repeated text.
const maxRange = 1 << 24

// Range returns the integral sequence from a to b. The sequence descends
// when b is less than a; exclusive omits b itself.
func Range(a, b any, exclusive bool) (any, error) {
	op := ".."
	if exclusive {
		op = "..<"
	}

	x, y, err := integrals(op, a, b)
	if err != nil {
		return nil, err
	}

	step := int64(1)
	if y.i < x.i {
		step = -1
	}

	end := y.i
	if exclusive {
		if x.i == y.i {
			return []any{}, nil
		}

		end -= step
	}

	// The span of two int64 values always fits in a uint64.
	span := uint64(end) - uint64(x.i)
	if step < 0 {
		span = uint64(x.i) - uint64(end)
	}

	if span >= maxRange {
		return nil, invalidOperands(op, a, b).
			With(slog.Uint64("span", span))
	}

	count := int(span) + 1

	out := make([]any, 0, count)
	for v := x.i; ; v += step {
		out = append(out, integral(x, y, v).Value())

		if v == end {
			break
		}
	}

	return out, nil
}

// Index returns the element of v selected by key: a map entry, a sequence
// element (negative indices count from the end), a character of text, or a
// set member by position. Missing entries and out-of-range indices yield nil.
func Index(v, key any) (any, error) {
	if v == nil {
		return nil, invalidOperands("[]", v, key)
	}

	if isMap(v) {
		out, _ := mapLookup(reflect.ValueOf(v), key)

		return out, nil
	}

	n, ok := numberOf(key)
	if !ok || !n.IsIntegral() {
		return nil, invalidOperands("[]", v, key)
	}

	if s, ok := v.(string); ok {
		r := []rune(s)

		i, ok := position(int(n.i), len(r))
		if !ok {
			return nil, nil
		}

		return Char(r[i]), nil
	}

	items, ok := elementsOf(v)
	if !ok {
		return nil, invalidOperands("[]", v, key)
	}

	i, ok := position(int(n.i), len(items))
	if !ok {
		return nil, nil
	}

	return items[i], nil
}

func position(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}

	return i, i >= 0 && i < n
}

var anchored sync.Map // *regexp.Regexp → *regexp.Regexp

// Match reports whether the textual form of v contains a match of pattern,
// or with full set, whether the whole text matches. The pattern is a
// compiled *regexp.Regexp or text to be compiled.
func Match(v, pattern any, full bool) (bool, error) {
	var re *regexp.Regexp

	switch p := pattern.(type) {
	case *regexp.Regexp:
		re = p
	default:
		text, ok := textOf(pattern)
		if !ok {
			return false, invalidOperands("=~", v, pattern)
		}

		var err error

		re, err = regexp.Compile(text)
		if err != nil {
			return false, ErrInvalidOperands.Wrap(err)
		}
	}

	if full {
		if cached, ok := anchored.Load(re); ok {
			re = cached.(*regexp.Regexp)
		} else {
			whole := regexp.MustCompile(`^(?:` + re.String() + `)$`)
			anchored.Store(re, whole)
			re = whole
		}
	}

	return re.MatchString(Format(v)), nil
}

func invalidOperands(op string, a, b any) *Error {
	return ErrInvalidOperands.Wrap(
		fmt.Errorf("%s %s %s", typeName(a), op, typeName(b)),
	).With(
		slog.String("operator", op),
		slog.String("left", typeName(a)),
		slog.String("right", typeName(b)),
	)
}

func numbers(op string, a, b any) (Number, Number, error) {
	x, ok := numberOf(a)
	if !ok {
		return Number{}, Number{}, invalidOperands(op, a, b)
	}

	y, ok := numberOf(b)
	if !ok {
		return Number{}, Number{}, invalidOperands(op, a, b)
	}

	return x, y, nil
}

func integrals(op string, a, b any) (Number, Number, error) {
	x, y, err := numbers(op, a, b)
	if err != nil {
		return x, y, err
	}

	if !x.IsIntegral() || !y.IsIntegral() {
		return x, y, invalidOperands(op, a, b)
	}

	return x, y, nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}

	return reflect.TypeOf(v).String()
}

func isChar(v any) bool {
	_, ok := v.(Char)

	return ok
}

func isSet(v any) bool {
	_, ok := v.(*Set)

	return ok
}

func textOf(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case Char:
		return string(rune(x)), true
	case *strings.Builder:
		return x.String(), true
	}

	return "", false
}

func isSequence(v any) bool {
	switch v.(type) {
	case nil, string:
		return false
	case []any:
		return true
	}

	k := reflect.TypeOf(v).Kind()

	return k == reflect.Slice || k == reflect.Array
}

func isMap(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

// elementsOf returns the elements of a sequence or the members of a set.
func elementsOf(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case *Set:
		return x.Items(), true
	}

	if !isSequence(v) {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())

	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

// entriesOf returns the entries of a map ordered by the textual form of
// their keys.
func entriesOf(v any) []Pair {
	rv := reflect.ValueOf(v)
	out := make([]Pair, 0, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, Pair{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}

	slices.SortFunc(out, func(a, b Pair) int {
		if c, err := Compare(a.Key, b.Key, false); err == nil {
			return c
		}

		return cmp.Compare(Format(a.Key), Format(b.Key))
	})

	return out
}

// mergeMap returns a copy of m with entries applied over it. The copy keeps
// the type of m when every entry fits it and is a map[any]any otherwise.
func mergeMap(m any, entries []Pair) any {
	src := reflect.ValueOf(m)
	typed := reflect.MakeMapWithSize(src.Type(), src.Len()+len(entries))

	iter := src.MapRange()
	for iter.Next() {
		typed.SetMapIndex(iter.Key(), iter.Value())
	}

	fits := true

	for _, p := range entries {
		k, ok := convertTo(p.Key, src.Type().Key())
		if !ok {
			fits = false

			break
		}

		v, ok := convertTo(p.Value, src.Type().Elem())
		if !ok {
			fits = false

			break
		}

		if ek, ok := equalKey(typed, p.Key); ok {
			k = ek
		}

		typed.SetMapIndex(k, v)
	}

	if fits {
		return typed.Interface()
	}

	out := make(map[any]any, src.Len()+len(entries))

	iter = src.MapRange()
	for iter.Next() {
		out[memberKeyOrSelf(iter.Key().Interface())] = iter.Value().Interface()
	}

	merged := reflect.ValueOf(out)

	for _, p := range entries {
		k := memberKeyOrSelf(p.Key)
		if ek, ok := equalKey(merged, k); ok {
			k = ek.Interface()
		}

		out[k] = p.Value
	}

	return out
}

func memberKeyOrSelf(v any) any {
	if v == nil || reflect.TypeOf(v).Comparable() {
		return v
	}

	return Format(v)
}

// mapLookup returns the entry of m for key, converting key to the map's key
// type where a lossless conversion exists.
func mapLookup(m reflect.Value, key any) (any, bool) {
	kt := m.Type().Key()

	if kv, ok := convertTo(key, kt); ok {
		if out := m.MapIndex(kv); out.IsValid() {
			return out.Interface(), true
		}
	}

	if k, ok := equalKey(m, key); ok {
		return m.MapIndex(k).Interface(), true
	}

	return nil, false
}

// equalKey returns the key of interface-keyed map m that is numerically
// equal to key, which may be of another width.
func equalKey(m reflect.Value, key any) (reflect.Value, bool) {
	if m.Type().Key().Kind() != reflect.Interface {
		return reflect.Value{}, false
	}

	n, ok := numberOf(key)
	if !ok {
		return reflect.Value{}, false
	}

	alts := []any{n.Float64()}
	if n.IsIntegral() || n.f == math.Trunc(n.f) {
		i := n.Int()
		alts = append(alts, int32(i), i, int(i))
	}

	for _, alt := range alts {
		if k := reflect.ValueOf(alt); m.MapIndex(k).IsValid() {
			return k, true
		}
	}

	return reflect.Value{}, false
}

// convertTo returns v as a value of type t when it is assignable or a
// value-preserving numeric or text conversion exists.
func convertTo(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice,
			reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}

		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}

	if n, ok := numberOf(v); ok {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n.IsIntegral() {
				out := reflect.New(t).Elem()
				if out.OverflowInt(n.i) {
					return reflect.Value{}, false
				}

				out.SetInt(n.i)

				return out, true
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
			reflect.Uint64, reflect.Uintptr:
			if n.IsIntegral() && n.i >= 0 {
				out := reflect.New(t).Elem()
				if out.OverflowUint(uint64(n.i)) {
					return reflect.Value{}, false
				}

				out.SetUint(uint64(n.i))

				return out, true
			}
		case reflect.Float32, reflect.Float64:
			out := reflect.New(t).Elem()
			out.SetFloat(n.Float64())

			return out, true
		}
	}

	if t.Kind() == reflect.String {
		if s, ok := textOf(v); ok {
			return reflect.ValueOf(s).Convert(t), true
		}
	}

	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), true
	}

	return reflect.Value{}, false
}

// compareMethod uses a Compare method of a accepting b, such as the one
// declared by time.Time.
func compareMethod(a, b any) (int, bool) {
	m := reflect.ValueOf(a).MethodByName("Compare")
	if !m.IsValid() {
		return 0, false
	}

	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Int {
		return 0, false
	}

	arg, ok := convertTo(b, mt.In(0))
	if !ok {
		return 0, false
	}

	return int(m.Call([]reflect.Value{arg})[0].Int()), true
}

// equalValues compares collections element by element under [Equal] and
// everything else by deep equality.
func equalValues(a, b any) bool {
	switch {
	case isSet(a) && isSet(b):
		return a.(*Set).Equal(b.(*Set))

	case isSequence(a) && isSequence(b):
		x, _ := elementsOf(a)
		y, _ := elementsOf(b)

		return slices.EqualFunc(x, y, Equal)

	case isMap(a) && isMap(b):
		x, y := reflect.ValueOf(a), reflect.ValueOf(b)
		if x.Len() != y.Len() {
			return false
		}

		iter := x.MapRange()
		for iter.Next() {
			other, ok := mapLookup(y, iter.Key().Interface())
			if !ok || !Equal(iter.Value().Interface(), other) {
				return false
			}
		}

		return true

	case isPair(a) && isPair(b):
		x, y := a.(Pair), b.(Pair)

		return Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	}

	return reflect.DeepEqual(a, b)
}

func isPair(v any) bool {
	_, ok := v.(Pair)

	return ok
}
