package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/tmplexpr/log"
)

// loadFrames opens and decodes each data file in order.
func loadFrames(ctx context.Context, files []dataFile) ([]any, error) {
	frames := make([]any, 0, len(files))

	for _, f := range files {
		frame, err := loadFrame(f)
		if err != nil {
			return nil, err
		}

		log.DebugContext(ctx, "data frame loaded",
			slog.String("file", f.Name),
			slog.String("type", frameTypeName(frame)),
		)

		frames = append(frames, frame)
	}

	return frames, nil
}

func loadFrame(f dataFile) (any, error) {
	var r io.ReadCloser = io.NopCloser(os.Stdin)

	if !f.IsStdin() {
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, ErrReadData.Wrap(err).With(slog.String("file", f.Name))
		}

		r = file
	}

	defer r.Close()

	return decodeData(f.Name, r)
}

// decodeData decodes one YAML or JSON document. JSON is selected by a
// ".json" extension on name; anything else, stdin included, is decoded as
// YAML, which accepts JSON as well. An empty document yields an empty map.
func decodeData(name string, r io.Reader) (any, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("file", name))
	}

	var v any

	if strings.EqualFold(filepath.Ext(name), ".json") {
		v, err = decodeJSON(data)
	} else {
		err = yaml.Unmarshal(data, &v)
	}

	if err != nil {
		return nil, ErrDecodeData.Wrap(err).With(slog.String("file", name))
	}

	if v == nil {
		return map[string]any{}, nil
	}

	return v, nil
}

// decodeJSON decodes data keeping integers integral.
func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return jsonNumbers(v), nil
}

func jsonNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}

		if f, err := x.Float64(); err == nil {
			return f
		}

		return x.String()

	case map[string]any:
		for k, e := range x {
			x[k] = jsonNumbers(e)
		}

	case []any:
		for i, e := range x {
			x[i] = jsonNumbers(e)
		}
	}

	return v
}

func frameTypeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "map"
	case []any:
		return "list"
	case nil:
		return "null"
	}

	return "scalar"
}
