package logging

import (
	"context"
	"log/slog"

	"tubecast/internal/services"
)

// ContextFields returns the upload ID, file and correlation ID carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	uploadID, _ := services.UploadIDFromContext(ctx)
	file, _ := services.FileFromContext(ctx)
	fields := UploadAttrs(uploadID, file)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger annotated with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
