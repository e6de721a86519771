package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"eodmsdds/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"INFO", zerolog.InfoLevel, false},
		{"bogus", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "nope"})
	if err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestWithFieldChaining(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	child := log.WithField("a", 1).WithField("b", "two")
	if child == nil {
		t.Fatal("Expected chained logger")
	}
	// Parent must not see child fields
	parent, ok := log.(*zerologLogger)
	if !ok {
		t.Fatal("unexpected logger type")
	}
	if len(parent.fields) != 0 {
		t.Errorf("Expected parent fields untouched, got %v", parent.fields)
	}
}

func TestNopLogger(t *testing.T) {
	n := NewNopLogger()
	n.Info("ignored")
	if n.WithField("k", "v") != n {
		t.Error("Expected nop logger to return itself")
	}
	if n.GetZerolog() != nil {
		t.Error("Expected nil zerolog from nop logger")
	}
}
