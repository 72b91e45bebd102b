package notification_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
)

func TestSave_ReceivedThenHandled(t *testing.T) {
	store := memory.New()
	svc := New(store, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	row := &models.WebhookLog{ProviderID: "razorpay", EventID: "evt_1", EventType: "invoice.paid", Status: models.WebhookLogStatusReceived}
	svc.Save(ctx, row)
	require.NotEmpty(t, row.ID)
	cancel()
	svc.Wait()

	row.Status = models.WebhookLogStatusHandled
	svc.Save(context.Background(), row)
	svc.Wait()

	logs := store.WebhookLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WebhookLogStatusHandled, logs[0].Status)
	assert.Equal(t, "evt_1", logs[0].EventID)
}

func TestSave_Nil(t *testing.T) {
	store := memory.New()
	svc := New(store, zap.NewNop().Sugar())
	svc.Save(context.Background(), nil)
	svc.Wait()
	assert.Zero(t, store.Writes())
}

func TestClose_FlushesThenDrops(t *testing.T) {
	store := memory.New()
	svc := New(store, zap.NewNop().Sugar())

	for _, id := range []string{"evt_1", "evt_2", "evt_3"} {
		svc.Save(context.Background(), &models.WebhookLog{ProviderID: "razorpay", EventID: id, Status: models.WebhookLogStatusReceived})
	}
	svc.Close()
	assert.Len(t, store.WebhookLogs(), 3)

	select {
	case <-svc.done:
	default:
		t.Fatal("worker still running after Close")
	}

	assert.NotPanics(t, func() {
		svc.Save(context.Background(), &models.WebhookLog{ProviderID: "razorpay", EventID: "evt_4"})
	})
	svc.Close()
	assert.Len(t, store.WebhookLogs(), 3)
}
