package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "profile.update", Subject("", "profile.update"))
	assert.Equal(t, "billing.profile.update", Subject("billing", "profile.update"))
	assert.Equal(t, "billing.profile.update", Subject("billing.", "profile.update"))
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogPublisher(zap.New(core).Sugar())
	require.NoError(t, p.Publish(context.Background(), "profile.update", map[string]any{"userId": "u1"}))
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "profile.update", logs.All()[0].ContextMap()["subject"])
}
