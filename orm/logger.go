package orm

import (
	"context"
	"log/slog"
)

// SlogLogger is a Logger that writes each query as a structured log record.
type SlogLogger struct {
	l     *slog.Logger
	level slog.Level
}

// NewSlogLogger returns a Logger writing to l at debug level.
// A nil l uses slog.Default().
//
//	db = db.Debug(orm.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))))
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l, level: slog.LevelDebug}
}

// WithLevel returns a copy logging at the given level.
func (s *SlogLogger) WithLevel(level slog.Level) *SlogLogger {
	return &SlogLogger{l: s.l, level: level}
}

func (s *SlogLogger) Log(ctx context.Context, query string, args ...any) {
	s.l.LogAttrs(ctx, s.level, "orm: query",
		slog.String("sql", query),
		slog.Any("args", args),
	)
}

var _ Logger = (*SlogLogger)(nil)
