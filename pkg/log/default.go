package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var logger ILogger = newDefaultLogger(os.Stderr)

func SetLevel(lv slog.Level) {
	logger.SetLevel(lv)
}

func DefaultLogger() ILogger {
	return logger
}

func SetLogger(v ILogger) {
	logger = v
}

func Info(format string, v ...any) {
	logger.Info(format, v...)
}

func Error(format string, v ...any) {
	logger.Error(format, v...)
}

func Debug(format string, v ...any) {
	logger.Debug(format, v...)
}

func Warn(format string, v ...any) {
	logger.Warn(format, v...)
}

func CtxInfo(ctx context.Context, format string, v ...any) {
	logger.CtxInfo(ctx, format, v...)
}

func CtxDebug(ctx context.Context, format string, v ...any) {
	logger.CtxDebug(ctx, format, v...)
}

func CtxWarn(ctx context.Context, format string, v ...any) {
	logger.CtxWarn(ctx, format, v...)
}

func CtxError(ctx context.Context, format string, v ...any) {
	logger.CtxError(ctx, format, v...)
}

// defaultLogger slog 之上的 printf 适配, 级别可在运行期调整
type defaultLogger struct {
	sl    *slog.Logger
	level *slog.LevelVar
}

func newDefaultLogger(w io.Writer) *defaultLogger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return &defaultLogger{
		level: level,
		sl: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

func (d *defaultLogger) SetLevel(lv slog.Level) {
	d.level.Set(lv)
}

func (d *defaultLogger) SetOutput(w io.Writer) {
	d.sl = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: d.level}))
}

func (d *defaultLogger) log(ctx context.Context, lv slog.Level, format string, v ...any) {
	if !d.sl.Enabled(ctx, lv) {
		return
	}
	d.sl.Log(ctx, lv, fmt.Sprintf(format, v...))
}

func (d *defaultLogger) Debug(format string, v ...any) {
	d.log(context.Background(), slog.LevelDebug, format, v...)
}

func (d *defaultLogger) Info(format string, v ...any) {
	d.log(context.Background(), slog.LevelInfo, format, v...)
}

func (d *defaultLogger) Warn(format string, v ...any) {
	d.log(context.Background(), slog.LevelWarn, format, v...)
}

func (d *defaultLogger) Error(format string, v ...any) {
	d.log(context.Background(), slog.LevelError, format, v...)
}

func (d *defaultLogger) CtxDebug(ctx context.Context, format string, v ...any) {
	d.log(ctx, slog.LevelDebug, format, v...)
}

func (d *defaultLogger) CtxInfo(ctx context.Context, format string, v ...any) {
	d.log(ctx, slog.LevelInfo, format, v...)
}

func (d *defaultLogger) CtxWarn(ctx context.Context, format string, v ...any) {
	d.log(ctx, slog.LevelWarn, format, v...)
}

func (d *defaultLogger) CtxError(ctx context.Context, format string, v ...any) {
	d.log(ctx, slog.LevelError, format, v...)
}
