package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	sugarLogger *zap.SugaredLogger
	level       zapcore.Level
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger builds a zap backed logger. Development mode logs at debug level with a
// console encoder, production logs JSON at info level. Both write to stdout and to a daily
// file under <LogDir>/logs/<process>/.
func NewZapLogger(config LoggerConfig) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	zapConfig := zap.NewProductionConfig()
	if config.IsDevelopment {
		level = zapcore.DebugLevel
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeFormat)
	zapConfig.OutputPaths = []string{"stdout"}

	if config.ProcessName != "" && config.ProcessName != TestProcess {
		baseDir := config.LogDir
		if baseDir == "" {
			baseDir = BaseDataDir
		}
		logDir := filepath.Join(baseDir, LogsDir, string(config.ProcessName))
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logPath := filepath.Join(logDir, time.Now().UTC().Format(LogFileFormat))
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logPath)
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return &ZapLogger{
		sugarLogger: logger.Sugar().Named(string(config.ProcessName)),
		level:       level,
	}, nil
}

func (z *ZapLogger) Debug(msg string, tags ...any) {
	z.sugarLogger.Debugw(msg, tags...)
}

func (z *ZapLogger) Info(msg string, tags ...any) {
	z.sugarLogger.Infow(msg, tags...)
}

func (z *ZapLogger) Warn(msg string, tags ...any) {
	z.sugarLogger.Warnw(msg, tags...)
}

func (z *ZapLogger) Error(msg string, tags ...any) {
	z.sugarLogger.Errorw(msg, tags...)
}

func (z *ZapLogger) Fatal(msg string, tags ...any) {
	z.sugarLogger.Fatalw(msg, tags...)
}

func (z *ZapLogger) Debugf(template string, args ...interface{}) {
	z.sugarLogger.Debugf(template, args...)
}

func (z *ZapLogger) Infof(template string, args ...interface{}) {
	z.sugarLogger.Infof(template, args...)
}

func (z *ZapLogger) Warnf(template string, args ...interface{}) {
	z.sugarLogger.Warnf(template, args...)
}

func (z *ZapLogger) Errorf(template string, args ...interface{}) {
	z.sugarLogger.Errorf(template, args...)
}

func (z *ZapLogger) Fatalf(template string, args ...interface{}) {
	z.sugarLogger.Fatalf(template, args...)
}

func (z *ZapLogger) With(tags ...any) Logger {
	return &ZapLogger{
		sugarLogger: z.sugarLogger.With(tags...),
		level:       z.level,
	}
}

// Sync flushes buffered entries. Errors from syncing stdout are expected and ignored.
func (z *ZapLogger) Sync() {
	_ = z.sugarLogger.Sync()
}
