// File: internal/observability/logger_test.go
package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/defiwatchers/rektscope/internal/config"
)

func testLoggerConfig() config.LoggerConfig {
	cfg := config.NewDefaultConfig().Logger
	cfg.Level = "debug"
	return cfg
}

func TestInitializeWritesToConsole(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &zaptest.Buffer{}
	Initialize(testLoggerConfig(), buf)

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("rates refreshed", zap.Int("units", 14))

	out := buf.String()
	assert.Contains(t, out, "rates refreshed")
	assert.Contains(t, out, "rektscope")
	assert.Contains(t, out, "units")
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &zaptest.Buffer{}
	second := &zaptest.Buffer{}
	Initialize(testLoggerConfig(), first)
	Initialize(testLoggerConfig(), second)

	GetLogger().Info("only the first writer wins")

	assert.Contains(t, first.String(), "only the first writer wins")
	assert.Empty(t, second.String())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := testLoggerConfig()
	cfg.Level = "chatty"

	buf := &zaptest.Buffer{}
	Initialize(cfg, buf)

	GetLogger().Debug("suppressed")
	GetLogger().Info("visible")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "visible")
}

func TestJSONFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := testLoggerConfig()
	cfg.Format = "json"

	buf := &zaptest.Buffer{}
	Initialize(cfg, buf)

	GetLogger().Info("structured entry")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"msg":"structured entry"`)
}

func TestFileSinkReceivesEntries(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := testLoggerConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "rektscope.log")

	Initialize(cfg, &zaptest.Buffer{})
	GetLogger().Warn("fallback rates in use")
	Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fallback rates in use")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Must not install itself as the global instance.
	assert.Nil(t, globalLogger.Load())
}
