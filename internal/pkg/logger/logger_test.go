package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZeroLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)

	log.Debug("hidden debug", nil)
	log.Info("hidden info", map[string]interface{}{"k": "v"})
	log.Warn("visible warn", map[string]interface{}{"cwd": "/tmp"})
	log.Error("visible error", errors.New("boom"), nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages written: %s", out)
	}
	for _, want := range []string{"visible warn", "cwd=/tmp", "visible error", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.WarnLevel},
		{in: "DEBUG", want: zerolog.DebugLevel},
		{in: " info ", want: zerolog.InfoLevel},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetOutputKeepsLevel(t *testing.T) {
	var first, second bytes.Buffer
	log := New(&first, zerolog.InfoLevel)
	log.SetOutput(&second)

	log.Debug("dropped", nil)
	log.Info("moved", nil)

	if first.Len() != 0 {
		t.Errorf("old writer received output: %s", first.String())
	}
	if out := second.String(); !strings.Contains(out, "moved") || strings.Contains(out, "dropped") {
		t.Errorf("unexpected output: %s", out)
	}
}
