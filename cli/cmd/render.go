package cmd

import (
	"io"
	"log/slog"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/tmplexpr/lang"
)

// Output formats accepted by --output.
const (
	outputNative = "native"
	outputJSON   = "json"
	outputYAML   = "yaml"
)

const outputIndent = "  "

// render writes v to w in the given output format, followed by a newline.
func render(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case outputNative:
		data = []byte(lang.Format(v) + "\n")

	case outputJSON:
		data, err = json.MarshalIndent(export(v), "", outputIndent)
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		data = append(data, '\n')

	case outputYAML:
		data, err = yaml.MarshalWithOptions(export(v), yaml.Indent(len(outputIndent)))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

	default:
		return ErrUnknownOutput.With(slog.String("output", format))
	}

	_, err = w.Write(data)

	return err
}

// export converts evaluation results to values the JSON and YAML encoders
// understand: characters become text, sets and arrays become lists, maps are
// keyed by the textual form of their keys, and values with no data
// representation (functions, channels, compiled expressions) become text.
func export(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int32, int64, float64:
		return v
	case lang.Char:
		return x.String()
	case *lang.Set:
		return exportList(x.Items())
	case lang.Pair:
		return map[string]any{"key": export(x.Key), "value": export(x.Value)}
	case *lang.Expression:
		return x.Source()
	case error:
		return x.Error()
	case []byte:
		return string(x)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())

		for it := rv.MapRange(); it.Next(); {
			out[lang.Format(it.Key().Interface())] = export(it.Value().Interface())
		}

		return out

	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return exportList(items)

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}

		if rv.Elem().Kind() == reflect.Struct {
			return v
		}

		return export(rv.Elem().Interface())

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return lang.Format(v)
	}

	return v
}

func exportList(items []any) []any {
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = export(e)
	}

	return out
}
