package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func TestNewGormLogger(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

		assert.NotNil(t, gormLog)
		assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	})

	t.Run("options override threshold and not-found handling", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info,
			WithSlowThreshold(500*time.Millisecond),
			WithIgnoreRecordNotFoundError(false),
		)

		assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
		assert.False(t, gormLog.ignoreRecordNotFoundError)
	})

	t.Run("implements the gorm logger interface", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)
		var _ gormlogger.Interface = gormLog
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	newLogger := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	newGormLog, ok := newLogger.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, newGormLog.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	ctx := context.Background()

	t.Run("info passes through", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)
		gormLog.Info(ctx, "migrating table %s", "receivables")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "migrating table receivables")
	})

	t.Run("silent suppresses info", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Silent)
		gormLog.Info(ctx, "migrating table receivables")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn logs at warn level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn)
		gormLog.Warn(ctx, "pool nearly exhausted, %d in use", 24)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "pool nearly exhausted, 24 in use")
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("error logs at error level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)
		gormLog.Error(ctx, "constraint violation")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed query logs SQL Error", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

		fc := func() (string, int64) {
			return `SELECT * FROM "sales" WHERE id = $1`, 0
		}
		gormLog.Trace(ctx, time.Now(), fc, errors.New("connection reset"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Error")
	})

	t.Run("record not found is ignored when configured", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error,
			WithIgnoreRecordNotFoundError(true))

		fc := func() (string, int64) {
			return `SELECT * FROM "sales" WHERE id = $1`, 0
		}
		gormLog.Trace(ctx, time.Now(), fc, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("queries over the threshold log SLOW SQL", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn,
			WithSlowThreshold(1*time.Nanosecond))

		fc := func() (string, int64) {
			return `SELECT * FROM "receivables" WHERE due_date < $1`, 40
		}
		gormLog.Trace(ctx, time.Now().Add(-1*time.Second), fc, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("normal query logs at debug", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

		fc := func() (string, int64) {
			return `SELECT * FROM "payments" WHERE sale_id = $1`, 3
		}
		gormLog.Trace(ctx, time.Now(), fc, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Query")
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Silent)

		fc := func() (string, int64) {
			return `SELECT * FROM "payments"`, 3
		}
		gormLog.Trace(ctx, time.Now(), fc, nil)

		assert.Empty(t, recorded.All())
	})

	t.Run("carries the request id from the context", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-77")
		fc := func() (string, int64) {
			return `SELECT * FROM "sales" WHERE customer_id = $1`, 5
		}
		gormLog.Trace(ctx, time.Now(), fc, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)

		found := false
		for _, field := range logs[0].Context {
			if field.Key == "request_id" {
				found = true
				assert.Equal(t, "req-77", field.String)
			}
		}
		assert.True(t, found, "request_id should be in log fields")
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
