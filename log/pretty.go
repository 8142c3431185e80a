package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

// palette holds the styles used to colorize one output. Styles render
// plainly when the output is not a color terminal.
type palette struct {
	key, text, number, boolTrue, boolFalse, duration, time, null lipgloss.Style
	levels                                                       [4]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:       fg("8"),
		text:      fg("6"),
		number:    fg("3"),
		boolTrue:  fg("2"),
		boolFalse: fg("1"),
		duration:  fg("5"),
		time:      fg("4"),
		null:      fg("8"),
		levels:    [4]lipgloss.Style{fg("4").Bold(true), fg("2").Bold(true), fg("3").Bold(true), fg("1").Bold(true)},
	}
}

func (p *palette) level(l slog.Level) string {
	i := 0

	switch {
	case l >= slog.LevelError:
		i = 3
	case l >= slog.LevelWarn:
		i = 2
	case l >= slog.LevelInfo:
		i = 1
	}

	return p.levels[i].Render(strings.ToUpper(Level(l).String()))
}

// prettyHandler writes colorized records, either as key=value pairs on one
// line or as an indented JSON object.
type prettyHandler struct {
	opts       slog.HandlerOptions
	format     Format
	formatTime FormatTime
	style      *palette
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr
	group      string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	format Format,
	formatTime FormatTime,
) *prettyHandler {
	return &prettyHandler{
		opts:       *opts,
		format:     format,
		formatTime: formatTime,
		style:      newPalette(w),
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			fields = append(fields, slog.String(slog.TimeKey, ts))
		}
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.qualify(a))

		return true
	})

	buf := new(bytes.Buffer)

	if h.format == FormatJSON {
		h.writeJSON(buf, fields)
	} else {
		h.writeText(buf, fields)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.group = h.qualifyKey(name)

	return &c
}

func (h *prettyHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}

	return h.group + "." + key
}

func (h *prettyHandler) qualify(a slog.Attr) slog.Attr {
	a.Key = h.qualifyKey(a.Key)

	return a
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.value(a.Value, false))
	}
}

func (h *prettyHandler) writeJSON(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.style.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")
		buf.WriteString(h.value(a.Value, true))
	}

	buf.WriteString("\n}")
}

// value renders v. Quoted output is valid JSON before colorization.
func (h *prettyHandler) value(v slog.Value, quoted bool) string {
	v = v.Resolve()

	text := func(s string) string {
		if quoted {
			s = strconv.Quote(s)
		}

		return h.style.text.Render(s)
	}

	switch v.Kind() {
	case slog.KindString:
		return text(v.String())

	case slog.KindInt64:
		return h.style.number.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return h.style.number.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return h.style.number.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return h.style.boolTrue.Render("true")
		}

		return h.style.boolFalse.Render("false")

	case slog.KindDuration:
		s := v.Duration().String()
		if quoted {
			s = strconv.Quote(s)
		}

		return h.style.duration.Render(s)

	case slog.KindTime:
		s := h.formatTime(v.Time())
		if quoted {
			s = strconv.Quote(s)
		}

		return h.style.time.Render(s)

	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return h.style.null.Render("null")
		case slog.Level:
			s := h.style.level(x)
			if quoted {
				return `"` + s + `"`
			}

			return s
		case error:
			return text(x.Error())
		case fmt.Stringer:
			return text(x.String())
		}

		if !quoted {
			return text(fmt.Sprint(v.Any()))
		}

		b, err := json.Marshal(v.Any())
		if err != nil {
			return text(fmt.Sprint(v.Any()))
		}

		return h.style.text.Render(string(b))

	default:
		return text(v.String())
	}
}
