package logging

import (
	"testing"

	"github.com/milk9111/discmerge/config"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.LoggingConfig
		debugOn bool
	}{
		{"console_debug", config.LoggingConfig{Level: "debug", Format: "console"}, true},
		{"json_warn", config.LoggingConfig{Level: "warn", Format: "json"}, false},
		{"garbage_falls_back_to_info", config.LoggingConfig{Level: "loud"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			log, err := New(c.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != c.debugOn {
				t.Fatalf("debug enabled = %v, want %v", got, c.debugOn)
			}
			if !log.Core().Enabled(zapcore.ErrorLevel) {
				t.Fatalf("error level must always be enabled")
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("OrNop(nil) returned nil")
	}
}
