package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/ledgertest"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

// Set APP_TEST_MONGO_URI to run against a real server.
func TestStoreContract(t *testing.T) {
	uri := os.Getenv("APP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("APP_TEST_MONGO_URI not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := "billing_test_" + tool.GenerateUUIDV7()[:8]
	s := New(client, db, zap.NewNop().Sugar())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		_ = client.Database(db).Drop(context.Background())
		_ = s.Close(context.Background())
	})

	ledgertest.Run(t, func(*testing.T) ledger.Store { return s })
}

func TestSetDoc_UsesDocumentKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	status := "paid"
	doc := setDoc(&models.Invoice{InvoiceID: "inv_1", Status: &status}, now)
	assert.Equal(t, bson.M{"status": &status, "updatedAt": now}, doc)
}

func TestMigrationIndexes_NaturalKeysAreUnique(t *testing.T) {
	idx := migrationIndexes()
	for _, col := range []string{colSubscription, colPlan, colCustomer, colInvoice, colPayment, colTokenBalance, colTokenLog, colProcessedEvent} {
		require.NotEmpty(t, idx[col], col)
		assert.NotNil(t, idx[col][0].Options, col)
	}
}
