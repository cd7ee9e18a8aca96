package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// SaleIDKey is the context key for the sale being operated on
	SaleIDKey contextKey = "sale_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithSaleID adds the sale ID to context and returns enriched logger. Every
// ledger mutation is scoped to one sale, so log lines carry it end to end.
func WithSaleID(ctx context.Context, logger *zap.Logger, saleID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, SaleIDKey, saleID)
	enriched := logger.With(zap.String("sale_id", saleID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetSaleID retrieves the sale ID from context
func GetSaleID(ctx context.Context) string {
	if saleID, ok := ctx.Value(SaleIDKey).(string); ok {
		return saleID
	}
	return ""
}
