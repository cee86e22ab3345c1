// Package log holds the process-wide zap logger.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

// Init builds the package-level logger. Debug selects zap's development
// config (console encoder, debug level).
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	Replace(zapLogger)
	return nil
}

// InitFile is Init with an additional JSON copy of every entry written to a
// size-rotated file.
func InitFile(debug bool, filename string) error {
	if err := Init(debug); err != nil {
		return err
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), rotated, level)

	Replace(current().WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})))
	return nil
}

// Replace swaps the package-level logger, mainly for tests
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// GetZapLogger returns the base logger without the caller skip that the
// package-level helpers need.
func GetZapLogger() *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1))
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	return GetZapLogger().Sugar()
}

// Named returns a child logger for a component
func Named(name string) *zap.Logger {
	return GetZapLogger().Named(name)
}

func current() *zap.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}

	// Fallback logger if not initialized
	l, _ = zap.NewProduction(zap.AddCallerSkip(1))
	Replace(l)
	return l
}

func s() *zap.SugaredLogger {
	current()
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

func Debug(args ...interface{}) {
	s().Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	s().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	s().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	s().Info(args...)
}

func Infof(template string, args ...interface{}) {
	s().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	s().Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	s().Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	s().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	s().Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	s().Error(args...)
}

func Errorf(template string, args ...interface{}) {
	s().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	s().Errorw(msg, keysAndValues...)
}

// Fatal logs and exits the process
func Fatal(args ...interface{}) {
	s().Fatal(args...)
}

func Fatalf(template string, args ...interface{}) {
	s().Fatalf(template, args...)
}
