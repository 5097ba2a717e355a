package zap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, fieldsFromContext(ctx))

	ctx = ContextWithTraceID(ctx, "req-1")
	ctx = ContextWithUsername(ctx, "alice")

	fields := fieldsFromContext(ctx)
	if assert.Len(t, fields, 2) {
		assert.Equal(t, string(TraceIDKey), fields[0].Key)
		assert.Equal(t, "req-1", fields[0].String)
		assert.Equal(t, string(UsernameKey), fields[1].Key)
		assert.Equal(t, "alice", fields[1].String)
	}

	assert.Equal(t, "req-1", TraceIDFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARNING", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, parseLevel(test.in), test.in)
	}
}

func TestLoggerBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Logger().Info(context.Background(), "noop")
	})
}
