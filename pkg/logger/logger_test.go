package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"energystats/pkg/config"

	"github.com/rs/zerolog"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger()
	return &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "energystats.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("vendor", "octopus").
		WithFields(map[string]interface{}{"records": 48, "full": false}).
		InfoWithFields("export finished", map[string]interface{}{"partition": "2023/12/01/23-30"})

	output := buf.String()
	for _, want := range []string{
		"export finished",
		`"vendor":"octopus"`,
		`"records":48`,
		`"full":false`,
		`"partition":"2023/12/01/23-30"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output %s", want, output)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	_ = logger.WithField("child", true)
	logger.Info("parent")

	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger picked up child field: %s", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	if logger.WithError(nil) != Logger(logger) {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(errors.New("listing failed")).Error("resolve failed")
	if !strings.Contains(buf.String(), "listing failed") {
		t.Errorf("error not found in output: %s", buf.String())
	}
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithFields(map[string]interface{}{
		"time":     time.Date(2023, 12, 1, 20, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "zappi"},
	}).Info("all types")

	output := buf.String()
	if !strings.Contains(output, `"time":"2023-12-01T20:00:00Z"`) {
		t.Errorf("time field missing: %s", output)
	}
	if !strings.Contains(output, `"Name":"zappi"`) {
		t.Errorf("custom field missing: %s", output)
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}

	Debug("debug message")
	Info("info message")
	WithField("key", "value").Warn("with field")
	WithError(errors.New("boom")).Error("with error")
}

func TestTestLogger(t *testing.T) {
	log := NewTestLogger()

	log.WithField("dir", "2023/12/01").WithError(errors.New("disk")).Warn("listing slow")
	log.Info("done")

	messages := log.GetMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Fields["dir"] != "2023/12/01" || messages[0].Error == nil {
		t.Errorf("child logger lost context: %+v", messages[0])
	}
	if !log.HasMessage("done") || log.HasError() {
		t.Errorf("unexpected capture state: %s", log.String())
	}

	log.Clear()
	if len(log.GetMessages()) != 0 {
		t.Error("Clear() did not reset messages")
	}
}
