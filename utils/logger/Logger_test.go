package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log, closer, err := New(Config{Level: "debug", Format: "json",
		Output: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	log.WithField("step", 3).Debug("target network updated")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"step":3`) {
		t.Errorf("log file missing structured field: %s", data)
	}
}

func TestNewLevel(t *testing.T) {
	log, _, err := New(Config{Level: "warn", Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level: want(warn) have(%v)", log.GetLevel())
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []Config{
		{Level: "loud", Format: "text"},
		{Level: "info", Format: "xml"},
		{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "x.log")},
	}
	for _, c := range tests {
		if _, _, err := New(c); err == nil {
			t.Errorf("%+v: expected error", c)
		}
	}
}
