package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestShortCaller(t *testing.T) {
	cases := map[string]string{
		"":                                      "",
		"/home/ci/repo/internal/ledger/x.go:12": "internal/ledger/x.go:12",
		"/home/ci/repo/pkg/cycle/cycle.go:7":    "pkg/cycle/cycle.go:7",
		"/a/b/c/d.go:3":                         "b/c/d.go:3",
		"/x.go:1":                               "x.go:1",
	}
	for in, want := range cases {
		assert.Equal(t, want, shortCaller(in), in)
	}
}

func TestTrace_SlowAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), WithSlowThreshold(time.Millisecond))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now(), sql, errors.New("record not found"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "gorm_slow", entries[0].Message)
		assert.Equal(t, "gorm_trace", entries[1].Message)
	}

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Len(t, logs.All(), 2)
}
