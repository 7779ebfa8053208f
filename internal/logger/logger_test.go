package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewConsole(buf)

	log.Info().Str("app", "bhim").Msg("console message")

	out := buf.String()
	if !strings.Contains(out, "console message") || !strings.Contains(out, "app=bhim") {
		t.Errorf("Expected console formatted output, got: %s", out)
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestWithLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got := WithLevel(NewWithWriter(&bytes.Buffer{}), tt.level).GetLevel()
			if got != tt.want {
				t.Errorf("WithLevel(%q): got %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_NopWhenMissing(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %v", log.GetLevel())
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"app":  "bhim",
		"role": "transactions",
	})
	log.Info().Msg("parsed")

	output := buf.String()
	if !strings.Contains(output, `"app":"bhim"`) {
		t.Errorf("Expected output to contain app field, got: %s", output)
	}
	if !strings.Contains(output, `"role":"transactions"`) {
		t.Errorf("Expected output to contain role field, got: %s", output)
	}
}
