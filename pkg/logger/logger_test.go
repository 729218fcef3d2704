package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "carehub/internal/core/context"
	"carehub/internal/core/security"
)

func TestWithContext_AddsIdentityAndTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t1", RequestID: "r1"})
	ctx = appctx.WithIdentity(ctx, &security.Identity{UserID: "u1", Role: security.RoleFrontDesk})

	l.WithContext(ctx).Infow("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t1", fields["trace_id"])
	assert.Equal(t, "r1", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "front_desk", fields["role"])
}

func TestFromContext_UsesStoredLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l.WithComponent("test"))
	Debug(ctx, "stored")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carehub.log")

	l, err := New(Config{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Infow("to file", "k", "v")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}
