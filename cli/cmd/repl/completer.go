package repl

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/tmplexpr/lang"
)

// candidate is a completion: a member name, and whether it is called with
// an argument list.
type candidate struct {
	name string
	call bool
}

// candidates implements [fuzzy.Source].
type candidates []candidate

func (c candidates) String(i int) string { return c[i].name }

func (c candidates) Len() int { return len(c) }

func (c candidates) names() []string {
	out := make([]string, len(c))
	for i, cand := range c {
		out[i] = cand.name
	}

	return out
}

// add appends a candidate unless one with the same name exists.
func (c candidates) add(name string, call bool) candidates {
	if name == "" || slices.ContainsFunc(c, func(x candidate) bool { return x.name == name }) {
		return c
	}

	return append(c, candidate{name: name, call: call})
}

// isWordBoundary reports whether r delimits a completion word: whitespace,
// member access, operators, brackets and quotes.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '~', '^',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte offsets within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For "x + server.http.ho" with the word "ho", it returns
// "server.http". A top-level word has no parent.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")

	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(strings.TrimSpace(prefix[pos:end]), ".")
}

// childCandidates returns the completions for members of parent, or the
// top-level names visible in env when parent is empty.
func childCandidates(ctx context.Context, env Environment, parent string) candidates {
	var out candidates

	if parent == "" {
		for _, frame := range slices.Backward(env.Frames()) {
			rv := reflect.ValueOf(frame)
			for _, key := range mapKeys(rv) {
				out = out.add(key, isFunc(rv.MapIndex(reflect.ValueOf(key))))
			}
		}

		for _, name := range slices.Sorted(maps.Keys(env.Named())) {
			out = out.add(name, true)
		}

		return out
	}

	v, ok := env.Lookup(ctx, parent)
	if !ok || v == nil {
		return nil
	}

	return memberCandidates(v)
}

// memberCandidates returns the names a member access on v can resolve: map
// keys, struct fields, Go methods, then builtin methods.
func memberCandidates(v any) candidates {
	var out candidates

	rv := reflect.ValueOf(v)

	for _, key := range mapKeys(rv) {
		out = out.add(key, isFunc(rv.MapIndex(reflect.ValueOf(key))))
	}

	sv := rv
	for sv.Kind() == reflect.Pointer && !sv.IsNil() {
		sv = sv.Elem()
	}

	if sv.Kind() == reflect.Struct {
		t := sv.Type()
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				out = out.add(lowerFirst(f.Name), f.Type.Kind() == reflect.Func)
			}
		}
	}

	for i := range rv.NumMethod() {
		m := rv.Type().Method(i)
		out = out.add(lowerFirst(m.Name), m.Type.NumIn() > 1)
	}

	for _, b := range lang.BuiltinMethods(rv.Type()) {
		out = out.add(b.Name, b.Params > 0 || !b.Property)
	}

	return out
}

// mapKeys returns the sorted string keys of a map value.
func mapKeys(rv reflect.Value) []string {
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}

	slices.Sort(keys)

	return keys
}

func isFunc(v reflect.Value) bool {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	if !v.IsValid() {
		return false
	}

	if v.Kind() == reflect.Func {
		return true
	}

	_, ok := v.Interface().(*lang.Expression)

	return ok
}

func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToLower(r)) + name[size:]
}

// completion is the ranked candidate list for the word under the cursor.
// While cycling, selected indexes matches and origin holds the input as it
// was before the first Tab.
type completion struct {
	matches    fuzzy.Matches
	candidates candidates
	start, end int
	selected   int
	cycling    bool
	origin     buffer
}

func (c completion) empty() bool { return len(c.matches) == 0 }

// complete ranks the candidates for the word at cursor best-first. An empty
// word at the top level matches nothing; after a dot it matches every
// member. In command mode only the leading word completes.
func complete(
	ctx context.Context,
	env Environment,
	mode inputMode,
	input string,
	cursor int,
) completion {
	word, start, end := wordBounds(input, cursor)
	c := completion{start: start, end: end, selected: -1}

	var cands candidates

	switch mode {
	case modeCtrl:
		if word == "" || strings.Contains(input[:start], " ") {
			return c
		}

		for _, name := range ctrlCommands {
			cands = cands.add(name, false)
		}

	default:
		parent := parentPath(input, start)
		cands = childCandidates(ctx, env, parent)

		if word == "" && parent == "" {
			return c
		}
	}

	if len(cands) == 0 {
		return c
	}

	c.candidates = cands

	if word == "" {
		c.matches = make(fuzzy.Matches, len(cands))
		for i, cand := range cands {
			c.matches[i] = fuzzy.Match{Str: cand.name, Index: i}
		}

		return c
	}

	c.matches = fuzzy.FindFrom(word, cands)

	return c
}

// isCall reports whether the i'th match names something invoked with an
// argument list.
func (c completion) isCall(i int) bool {
	idx := c.matches[i].Index

	return idx < len(c.candidates) && c.candidates[idx].call
}

// view renders the completion bar on one line, ellipsized to fit width.
func (c completion) view(width int) string {
	if c.empty() || width <= 0 {
		return ""
	}

	const gap = "  "

	var (
		b        strings.Builder
		used     int
		gapWidth = lipgloss.Width(gap)
		more     = hintStyle.Render("...")
	)

	for i, match := range c.matches {
		item := renderCandidate(match, c.isCall(i), c.cycling && i == c.selected)

		w := lipgloss.Width(item)
		if i > 0 {
			if used+gapWidth+w+lipgloss.Width(more) > width {
				b.WriteString(gap + more)

				break
			}

			b.WriteString(gap)

			w += gapWidth
		}

		b.WriteString(item)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters in bold.
// Callables get a "()" suffix that is not inserted on completion.
func renderCandidate(match fuzzy.Match, call, selected bool) string {
	style := suggestionStyle
	if selected {
		style = selectedStyle
	}

	bold := style.Bold(true)

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(bold.Render(string(r)))
		} else {
			b.WriteString(style.Render(string(r)))
		}
	}

	if call {
		b.WriteString(style.Render("()"))
	}

	return b.String()
}
