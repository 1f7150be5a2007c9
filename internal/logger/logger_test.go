package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parkingd.log")
	l, err := New(Config{Format: "json", File: FileConfig{Filename: path}})
	require.NoError(t, err)

	l.Info("hello", zap.Int("facility_id", 7))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"facility_id":7`)
}

func TestWithKeyValue(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := BgLogger()
	Replace(zap.New(core))
	defer Replace(prev)

	ctx := WithKeyValue(context.Background(), "run", "backfill")
	Logger(ctx).Info("day complete")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "backfill", logs.All()[0].ContextMap()["run"])
}
