package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerSilent(t *testing.T) {
	l := L()
	if l == nil {
		t.Fatal("L() returned nil")
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("default logger should not be enabled")
	}
}

func TestSet(t *testing.T) {
	orig := L()
	t.Cleanup(func() { Set(orig) })

	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	L().Warn("instance overflow", zap.Int("instance", 70000))

	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "instance overflow" {
		t.Errorf("message: got %q", entry.Message)
	}
	if entry.ContextMap()["instance"] != int64(70000) {
		t.Errorf("field instance: got %v", entry.ContextMap()["instance"])
	}
}

func TestSetNilRestoresNop(t *testing.T) {
	orig := L()
	t.Cleanup(func() { Set(orig) })

	Set(nil)
	if L().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Set(nil) should restore the silent logger")
	}
}

func TestInit(t *testing.T) {
	orig := L()
	t.Cleanup(func() { Set(orig) })

	for _, mode := range []string{"debug", "release"} {
		t.Run(mode, func(t *testing.T) {
			if err := Init(mode); err != nil {
				t.Fatalf("Init(%q) failed: %v", mode, err)
			}
			if !L().Core().Enabled(zapcore.InfoLevel) {
				t.Error("initialized logger should log at info")
			}
		})
	}
}
