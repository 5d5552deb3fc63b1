package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New はprodならJSON、それ以外はテキストで出すloggerを作る。
func New(goEnv string) *slog.Logger {
	return newWithWriter(goEnv, os.Stdout)
}

func newWithWriter(goEnv string, w io.Writer) *slog.Logger {
	switch goEnv {
	case "prod", "production":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

type ctxKey struct{}

// Inject はrequest_id付きのloggerをctxに入れる（ミドルウェアから呼ぶ）。
func Inject(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext はctxのloggerを返す。なければslog.Default()。
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
