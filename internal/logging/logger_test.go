package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env  string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tc := range tests {
		if got := parseLevel(tc.env); got != tc.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tc.env, got, tc.want)
		}
	}
}

func TestInitAppliesEnvLevel(t *testing.T) {
	t.Setenv("SNAPGRADE_LOG_LEVEL", "warn")
	Init()
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("global level = %s, want warn", got)
	}

	t.Setenv("SNAPGRADE_LOG_LEVEL", "")
	Init()
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("global level = %s, want info", got)
	}
}
