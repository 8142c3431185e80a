package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func useDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, append([]Option{WithFormat(FormatJSON), WithPretty(false)}, opts...)...))

	return &buf
}

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	buf := useDefault(t, WithLevel(LevelTrace))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, "TRACE"},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"ErrorContext", func(m string, a ...slog.Attr) { ErrorContext(context.Background(), m, a...) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{"message", tt.level, `"key":"value"`} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q: %s", want, out)
				}
			}
		})
	}
}

func TestPackage_Config(t *testing.T) {
	buf := useDefault(t)

	Info("hidden")
	Config(WithLevel(LevelInfo))
	Info("shown")
	With(slog.String("k", "v")).Info("tagged")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
