package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"json stdout", Config{Level: "info", Format: "json", Output: "stdout"}},
		{"console stderr", Config{Level: "debug", Format: "console", Output: "stderr"}},
		{"defaults", Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			l, err := New(&cfg)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, defaultTimeFormat, cfg.TimeFormat)
		})
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	l, err := New(&Config{Level: "error", Output: "stderr"}, core)
	require.NoError(t, err)

	l.Info("cart loaded")
	entries := recorded.FilterMessage("cart loaded").All()
	require.Len(t, entries, 1)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestCreateWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("line added")
	require.NoError(t, Sync(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"line added"`))
}

func TestCreateWriterUnwritablePathFallsBack(t *testing.T) {
	w := createWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.NotNil(t, w)
}
