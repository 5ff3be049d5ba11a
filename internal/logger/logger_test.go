package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetup_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	Setup("production", FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	t.Cleanup(func() {
		_ = Close()
		Init("test")
	})

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "user-1")
	CtxInfo(ctx, "profile saved", "skills", 3)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"profile saved"`)
	assert.Contains(t, string(data), `"request_id":"req-1"`)
	assert.Contains(t, string(data), `"user_id":"user-1"`)
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithRequestID(ctx, "abc")
	ctx = WithUserID(ctx, "42")
	assert.Equal(t, "abc", GetRequestID(ctx))
	assert.Equal(t, "42", GetUserID(ctx))
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	base := NewGormLogger(false)
	verbose := base.LogMode(gormlogger.Info)

	assert.Equal(t, gormlogger.Warn, base.level)
	assert.Equal(t, gormlogger.Info, verbose.(*GormLogger).level)

	// Trace must not call fc when silenced
	silent := base.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		t.Fatal("fc called in silent mode")
		return "", 0
	}, nil)
}
