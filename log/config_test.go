package log

import (
	"slices"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{" TRACE ", LevelTrace},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", Level(2)},
		{"verbose", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" JSON", FormatJSON},
		{"text", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelsAndFormats(t *testing.T) {
	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %v", got)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json"}) {
		t.Errorf("Formats() = %v", got)
	}

	if got := Level(3).String(); got != "Level(3)" {
		t.Errorf("Level(3).String() = %q", got)
	}
}

func TestTimeFormatter(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2024-03-05T14:07:09Z"},
		{"kitchen", "2:07PM"},
		{"DateTime", "2024-03-05 14:07:09"},
		{"ms", "Mar  5 14:07:09.123"},
		{"15:04", "14:07"},
		{"none", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := timeFormatter(tt.layout)(ts); got != tt.want {
			t.Errorf("layout %q = %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestConfig_Clone_Independent(t *testing.T) {
	base := makeConfig(nil)
	copied := base.clone(WithLevel(LevelError), WithCaller(true))

	if base.level != DefaultLevel || base.caller {
		t.Error("clone modified the original")
	}

	if copied.level != LevelError || !copied.caller || copied.mutex == base.mutex {
		t.Error("clone did not apply options to an independent copy")
	}
}
