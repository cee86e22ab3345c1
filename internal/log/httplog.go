package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// HTTPLogEntry describes one served request
type HTTPLogEntry struct {
	RequestID  string
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
}

// Fields renders the entry as zap fields
func (e HTTPLogEntry) Fields() []zap.Field {
	return []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status", e.Status),
		zap.Float64("duration_ms", float64(e.Duration.Microseconds())/1000),
		zap.Int("size", e.Size),
		zap.String("remote_addr", e.RemoteAddr),
		zap.String("user_agent", e.UserAgent),
	}
}

// Level picks warn for 4xx and error for 5xx responses
func (e HTTPLogEntry) Level() zapcore.Level {
	switch {
	case e.Status >= 500:
		return zapcore.ErrorLevel
	case e.Status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogHTTPRequest writes entry to logger at the level matching its status
func LogHTTPRequest(logger *zap.Logger, entry HTTPLogEntry) {
	if ce := logger.Check(entry.Level(), "http request"); ce != nil {
		ce.Write(entry.Fields()...)
	}
}
