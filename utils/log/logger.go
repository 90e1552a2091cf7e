package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value("chat_id"); v != nil {
		fields = append(fields, zap.Any("chat_id", v))
	}
	if v := ctx.Value("username"); v != nil {
		fields = append(fields, zap.Any("username", v))
	}
	if v := ctx.Value("request_id"); v != nil {
		fields = append(fields, zap.Any("request_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
