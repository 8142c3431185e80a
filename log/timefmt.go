package log

import (
	"slices"
	"strings"
	"time"
)

// FormatTime renders a record timestamp. An empty result omits it.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the timestamp layout of a logger configured without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

// namedLayouts lists the layouts that may be selected by name. The names are
// matched after lowercasing and dropping everything but letters and digits.
var namedLayouts = []struct {
	layout string
	names  []string
}{
	{time.RFC3339, []string{"rfc3339"}},
	{time.RFC3339Nano, []string{"rfc3339nano"}},
	{time.RFC822, []string{"rfc822"}},
	{time.RFC822Z, []string{"rfc822z"}},
	{time.RFC850, []string{"rfc850"}},
	{time.ANSIC, []string{"ansic"}},
	{time.UnixDate, []string{"unixdate"}},
	{time.RubyDate, []string{"rubydate"}},
	{time.Kitchen, []string{"kitchen"}},
	{time.DateTime, []string{"datetime"}},
	{time.TimeOnly, []string{"timeonly"}},
	{time.Stamp, []string{"stamp"}},
	{time.StampMilli, []string{"stampmilli", "ms"}},
	{time.StampMicro, []string{"stampmicro", "us"}},
	{time.StampNano, []string{"stampnano", "ns"}},
	{"", []string{"none"}},
}

func normalizeLayoutName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return r
		default:
			return -1
		}
	}, strings.ToLower(s))
}

// lookupLayout resolves a layout name. Unnamed layouts are returned as given.
func lookupLayout(layout string) string {
	name := normalizeLayoutName(layout)
	if name == "" {
		return ""
	}

	for _, named := range namedLayouts {
		if slices.Contains(named.names, name) {
			return named.layout
		}
	}

	return layout
}

// timeFormatter returns the FormatTime for layout.
func timeFormatter(layout string) FormatTime {
	layout = lookupLayout(layout)
	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
