package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewZapLogger_ValidConfig_CreatesLoggerSuccessfully(t *testing.T) {
	tests := []struct {
		name          string
		config        LoggerConfig
		expectedLevel zapcore.Level
	}{
		{
			name:          "development mode",
			config:        LoggerConfig{ProcessName: TestProcess, IsDevelopment: true},
			expectedLevel: zapcore.DebugLevel,
		},
		{
			name:          "production mode",
			config:        LoggerConfig{ProcessName: TestProcess, IsDevelopment: false},
			expectedLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewZapLogger(tt.config)

			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.NotNil(t, logger.sugarLogger)
			assert.Equal(t, tt.expectedLevel, logger.level)
		})
	}
}

func TestNewZapLogger_ProcessName_CreatesLogDirectory(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewZapLogger(LoggerConfig{
		LogDir:        dir,
		ProcessName:   RegistryProcess,
		IsDevelopment: false,
	})
	require.NoError(t, err)
	logger.Info("registry started", "port", 9000)
	logger.Sync()

	entries, err := os.ReadDir(filepath.Join(dir, LogsDir, string(RegistryProcess)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewZapLogger_InvalidDirectory_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewZapLogger(LoggerConfig{
		LogDir:      blocker,
		ProcessName: RegistryProcess,
	})
	assert.Error(t, err)
}

func TestZapLogger_With_KeepsLevel(t *testing.T) {
	logger, err := NewZapLogger(LoggerConfig{ProcessName: TestProcess, IsDevelopment: true})
	require.NoError(t, err)

	child := logger.With("task_id", 7)
	zl, ok := child.(*ZapLogger)
	require.True(t, ok)
	assert.Equal(t, zapcore.DebugLevel, zl.level)
	assert.NotSame(t, logger, zl)
}

func TestNoOpLogger_AllMethods_DoNotPanic(t *testing.T) {
	logger := NewNoOpLogger()
	assert.NotPanics(t, func() {
		logger.Debug("d", "k", "v")
		logger.Info("i")
		logger.Warnf("w %d", 1)
		logger.Errorf("e %s", "x")
		assert.Equal(t, logger, logger.With("k", "v"))
	})
}

func TestMockLogger_DefaultExpectations_AcceptCalls(t *testing.T) {
	m := &MockLogger{}
	m.SetupDefaultExpectations()

	m.Info("hello", "k", "v")
	m.Errorf("failed: %v", "boom")

	m.AssertCalled(t, "Info", "hello", []interface{}{"k", "v"})
}
