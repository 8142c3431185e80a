package repl

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/tmplexpr/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall is a call whose argument list contains the cursor.
type functionCall struct {
	name     string // member path of the callee, e.g. "path.cat"
	argIndex int    // 0-based argument under the cursor
	inCall   bool
}

func isCalleeRune(r rune) bool {
	return r == '.' || r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// detectFunctionCall reports the innermost call whose argument list
// contains cursor. Parentheses of a grouping with no callee name are not
// calls.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	depth := 0
	open := -1

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')', ']':
			depth++
		case '(', '[':
			if depth > 0 {
				depth--
			} else if r == '(' {
				open = i
			} else {
				return functionCall{}
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isCalleeRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature returns the signature of the callee at path and its
// parameter names. It tries, in order: a named expression, a host function
// value, a Go method of the parent value, and a builtin method of the
// parent value. An unknown callee returns "".
func getSignature(
	ctx context.Context,
	env Environment,
	path string,
) (signature string, params []string) {
	parent, name := "", path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		parent, name = path[:i], path[i+1:]
	}

	if parent == "" {
		if _, ok := env.Named()[name]; ok {
			return name + "(...args)", []string{"...args"}
		}
	}

	if v, ok := env.Lookup(ctx, path); ok {
		if t := reflect.TypeOf(v); t != nil && t.Kind() == reflect.Func {
			params = funcParams(t)

			return formatSignature(path, params), params
		}
	}

	if parent == "" {
		return "", nil
	}

	recv, ok := env.Lookup(ctx, parent)
	if !ok || recv == nil {
		return "", nil
	}

	rv := reflect.ValueOf(recv)
	if method := rv.MethodByName(exportName(name)); method.IsValid() {
		params = funcParams(method.Type())

		return formatSignature(path, params), params
	}

	for _, b := range lang.BuiltinMethods(rv.Type()) {
		if b.Name != name {
			continue
		}

		params = make([]string, b.Params)
		for i := range params {
			params[i] = "arg" + strconv.Itoa(i+1)
		}

		return formatSignature(path, params), params
	}

	return "", nil
}

// funcParams names the parameters of function type t by type.
func funcParams(t reflect.Type) []string {
	n := t.NumIn()
	params := make([]string, 0, n)

	for i := range n {
		if t.IsVariadic() && i == n-1 {
			params = append(params, "..."+formatTypeName(t.In(i).Elem()))
		} else {
			params = append(params, formatTypeName(t.In(i)))
		}
	}

	return params
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}

// formatTypeName converts t to a readable parameter name.
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "list"
	case reflect.Map:
		return "map"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint renders signature with the parameter at argIdx
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(
	signature string,
	params []string,
	argIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 || !strings.HasSuffix(signature, ")") {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if (variadic && argIdx >= i) || (!variadic && argIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
