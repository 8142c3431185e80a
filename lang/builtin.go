package lang

import (
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// builtin is a method every value of a matching kind understands, such as
// size() on sequences or toUpperCase() on text.
type builtin struct {
	property bool // also reachable without parentheses
	applies  func(reflect.Type) bool
	call     func(v any, args []any) (any, error)
}

type builtinKey struct {
	name   string
	params int
}

var builtins = map[builtinKey]builtin{
	{"size", 0}:          {property: true, applies: sized, call: sizeOf},
	{"length", 0}:        {property: true, applies: sized, call: sizeOf},
	{"isEmpty", 0}:       {property: true, applies: sized, call: isEmpty},
	{"empty", 0}:         {property: true, applies: sized, call: isEmpty},
	{"contains", 1}:      {applies: sized, call: contains},
	{"containsKey", 1}:   {applies: mapped, call: containsKey},
	{"containsValue", 1}: {applies: mapped, call: containsValue},
	{"get", 1}:           {applies: sized, call: get},
	{"keys", 0}:          {property: true, applies: mapped, call: keys},
	{"values", 0}:        {property: true, applies: mapped, call: values},
	{"first", 0}:         {property: true, applies: listed, call: first},
	{"last", 0}:          {property: true, applies: listed, call: last},
	{"join", 1}:          {applies: listed, call: join},
	{"sort", 0}:          {applies: listed, call: sortValues},
	{"toList", 0}:        {applies: sized, call: toList},
	{"indexOf", 1}:       {applies: sized, call: indexOf},
	{"toUpperCase", 0}:   {applies: text, call: mapText(upper)},
	{"toLowerCase", 0}:   {applies: text, call: mapText(lower)},
	{"capitalize", 0}:    {applies: text, call: mapText(capitalize)},
	{"trim", 0}:          {applies: text, call: mapText(strings.TrimSpace)},
	{"startsWith", 1}:    {applies: text, call: textPredicate(strings.HasPrefix)},
	{"endsWith", 1}:      {applies: text, call: textPredicate(strings.HasSuffix)},
	{"split", 1}:         {applies: text, call: split},
	{"substring", 1}:     {applies: text, call: substring},
	{"substring", 2}:     {applies: text, call: substring},
	{"replace", 2}:       {applies: text, call: replace},
	{"toString", 0}:      {applies: func(reflect.Type) bool { return true }, call: toString},
}

// BuiltinMethod describes a method that every value of a matching kind
// understands.
type BuiltinMethod struct {
	Name     string
	Params   int
	Property bool // callable without parentheses
}

// BuiltinMethods returns the builtin methods applicable to values of type t,
// sorted by name and arity. A nil t returns every builtin.
func BuiltinMethods(t reflect.Type) []BuiltinMethod {
	out := make([]BuiltinMethod, 0, len(builtins))

	for key, b := range builtins {
		if t == nil || b.applies(t) {
			out = append(out, BuiltinMethod{
				Name:     key.name,
				Params:   key.params,
				Property: b.property,
			})
		}
	}

	slices.SortFunc(out, func(a, b BuiltinMethod) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return a.Params - b.Params
	})

	return out
}

func builtinAccessor(id *Identifier, t reflect.Type) *Accessor {
	params := id.params
	if params < 0 {
		params = 0
	}

	b, ok := builtins[builtinKey{id.name, params}]
	if !ok || (id.params < 0 && !b.property) || !b.applies(t) {
		return nil
	}

	return &Accessor{
		Kind: AccessBuiltin,
		get: func(_ *state, rv reflect.Value, args []any) (any, lookup) {
			out, err := b.call(rv.Interface(), args)
			if err != nil {
				fail(err)
			}

			return out, lookupFound
		},
	}
}

var setType = reflect.TypeFor[*Set]()

func text(t reflect.Type) bool {
	return t.Kind() == reflect.String || t == reflect.TypeFor[Char]()
}

func mapped(t reflect.Type) bool { return t.Kind() == reflect.Map }

func listed(t reflect.Type) bool {
	return t == setType || t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

func sized(t reflect.Type) bool {
	return listed(t) || mapped(t) || t.Kind() == reflect.String
}

func sizeOf(v any, _ []any) (any, error) {
	switch x := v.(type) {
	case *Set:
		return int32(x.Len()), nil
	case string:
		return int32(utf8.RuneCountInString(x)), nil
	}

	return int32(reflect.ValueOf(v).Len()), nil
}

func isEmpty(v any, args []any) (any, error) {
	n, _ := sizeOf(v, args)

	return n.(int32) == 0, nil
}

func contains(v any, args []any) (any, error) {
	switch x := v.(type) {
	case *Set:
		return x.Contains(args[0]), nil
	case string:
		return strings.Contains(x, Format(args[0])), nil
	}

	if isMap(v) {
		return containsKey(v, args)
	}

	items, _ := elementsOf(v)

	return slices.ContainsFunc(items, func(e any) bool { return Equal(e, args[0]) }), nil
}

func containsKey(v any, args []any) (any, error) {
	_, ok := mapLookup(reflect.ValueOf(v), args[0])

	return ok, nil
}

func containsValue(v any, args []any) (any, error) {
	for _, p := range entriesOf(v) {
		if Equal(p.Value, args[0]) {
			return true, nil
		}
	}

	return false, nil
}

func get(v any, args []any) (any, error) {
	if x, ok := v.(*Set); ok {
		return Index(x.Items(), args[0])
	}

	return Index(v, args[0])
}

func keys(v any, _ []any) (any, error) {
	entries := entriesOf(v)
	out := make([]any, len(entries))

	for i, p := range entries {
		out[i] = p.Key
	}

	return out, nil
}

func values(v any, _ []any) (any, error) {
	entries := entriesOf(v)
	out := make([]any, len(entries))

	for i, p := range entries {
		out[i] = p.Value
	}

	return out, nil
}

func first(v any, _ []any) (any, error) {
	items, _ := elementsOf(v)
	if len(items) == 0 {
		return nil, nil
	}

	return items[0], nil
}

func last(v any, _ []any) (any, error) {
	items, _ := elementsOf(v)
	if len(items) == 0 {
		return nil, nil
	}

	return items[len(items)-1], nil
}

func join(v any, args []any) (any, error) {
	items, _ := elementsOf(v)
	parts := make([]string, len(items))

	for i, e := range items {
		parts[i] = Format(e)
	}

	return strings.Join(parts, Format(args[0])), nil
}

func sortValues(v any, _ []any) (any, error) {
	items, _ := elementsOf(v)
	out := slices.Clone(items)

	var err error

	slices.SortStableFunc(out, func(a, b any) int {
		c, cerr := Compare(a, b, false)
		if cerr != nil && err == nil {
			err = cerr
		}

		return c
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func toList(v any, _ []any) (any, error) {
	if s, ok := v.(string); ok {
		out := make([]any, 0, len(s))
		for _, r := range s {
			out = append(out, Char(r))
		}

		return out, nil
	}

	if isMap(v) {
		entries := entriesOf(v)
		out := make([]any, len(entries))

		for i, p := range entries {
			out[i] = p
		}

		return out, nil
	}

	items, _ := elementsOf(v)

	return slices.Clone(items), nil
}

func indexOf(v any, args []any) (any, error) {
	if s, ok := v.(string); ok {
		i := strings.Index(s, Format(args[0]))
		if i < 0 {
			return int32(-1), nil
		}

		return int32(utf8.RuneCountInString(s[:i])), nil
	}

	items, _ := elementsOf(v)

	return int32(slices.IndexFunc(items, func(e any) bool { return Equal(e, args[0]) })), nil
}

func upper(s string) string { return cases.Upper(language.Und).String(s) }

func lower(s string) string { return cases.Lower(language.Und).String(s) }

func capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)

	return upper(s[:size]) + s[size:]
}

func mapText(fn func(string) string) func(any, []any) (any, error) {
	return func(v any, _ []any) (any, error) {
		return fn(Format(v)), nil
	}
}

func textPredicate(fn func(string, string) bool) func(any, []any) (any, error) {
	return func(v any, args []any) (any, error) {
		return fn(Format(v), Format(args[0])), nil
	}
}

func split(v any, args []any) (any, error) {
	parts := strings.Split(Format(v), Format(args[0]))
	out := make([]any, len(parts))

	for i, p := range parts {
		out[i] = p
	}

	return out, nil
}

func substring(v any, args []any) (any, error) {
	r := []rune(Format(v))

	bounds := make([]int, 0, 2)

	for _, arg := range args {
		n, ok := numberOf(arg)
		if !ok || !n.IsIntegral() {
			return nil, invalidOperands("substring", v, arg)
		}

		bounds = append(bounds, int(n.i))
	}

	lo, hi := bounds[0], len(r)
	if len(bounds) > 1 {
		hi = bounds[1]
	}

	if lo < 0 || hi > len(r) || lo > hi {
		return nil, invalidOperands("substring", v, args[0])
	}

	return string(r[lo:hi]), nil
}

func replace(v any, args []any) (any, error) {
	return strings.ReplaceAll(Format(v), Format(args[0]), Format(args[1])), nil
}

func toString(v any, _ []any) (any, error) {
	return Format(v), nil
}
