package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

func (s *Store) GetTokenBalance(ctx context.Context, userID string) (*models.TokenBalance, error) {
	var b models.TokenBalance
	if err := s.col(colTokenBalance).FindOne(ctx, bson.M{"userId": userID}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) ReplaceTokenBalance(ctx context.Context, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	var out models.TokenBalance
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		return s.replaceTokenBalance(ctx, bal, log, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ClaimTokenAllocation(ctx context.Context, ev *models.ProcessedEvent, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	if ev.ID == "" {
		ev.ID = tool.GenerateUUIDV7()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	var out models.TokenBalance
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		_, err := s.col(colProcessedEvent).InsertOne(ctx, ev)
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("event %s: %w", ev.EventID, ledger.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("claim event %s: %w", ev.EventID, err)
		}
		return s.replaceTokenBalance(ctx, bal, log, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) replaceTokenBalance(ctx context.Context, bal *models.TokenBalance, log *models.TokenLog, out *models.TokenBalance) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"planId":         bal.PlanID,
			"subscriptionId": bal.SubscriptionID,
			"currentTokens":  bal.CurrentTokens,
			"totalAllocated": bal.TotalAllocated,
			"cycleStart":     bal.CycleStart,
			"cycleEnd":       bal.CycleEnd,
			"lastUpdated":    bal.LastUpdated,
			"updatedAt":      now,
		},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"id": tool.GenerateUUIDV7(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := s.col(colTokenBalance).FindOneAndUpdate(ctx, bson.M{"userId": bal.UserID}, update, opts).Decode(out); err != nil {
		return fmt.Errorf("replace token balance %s: %w", bal.UserID, err)
	}
	return s.insertTokenLog(ctx, log, now)
}

// ApplyTokenDelta matches the balance only when it can absorb delta, so the
// guard and the increment are one atomic document update.
func (s *Store) ApplyTokenDelta(ctx context.Context, userID string, delta int64, log *models.TokenLog) (*models.TokenBalance, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if log != nil {
		set["lastUpdated"] = log.Timestamp
	}
	filter := bson.M{"userId": userID, "currentTokens": bson.M{"$gte": -delta}}
	update := bson.M{"$inc": bson.M{"currentTokens": delta, "version": 1}, "$set": set}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.TokenBalance
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		err := s.col(colTokenBalance).FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cerr := s.col(colTokenBalance).CountDocuments(ctx, bson.M{"userId": userID})
			if cerr != nil {
				return cerr
			}
			if n == 0 {
				return ledger.ErrNotFound
			}
			return ledger.ErrInsufficientTokens
		}
		if err != nil {
			return err
		}
		return s.insertTokenLog(ctx, log, now)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// inTransaction runs fn in a multi-document transaction so a balance never
// moves without its token log. Transactions need a replica set or sharded
// cluster; a standalone mongod rejects them.
func (s *Store) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *Store) insertTokenLog(ctx context.Context, log *models.TokenLog, now time.Time) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	log.CreatedAt = now
	if _, err := s.col(colTokenLog).InsertOne(ctx, log); err != nil {
		return fmt.Errorf("append token log for %s: %w", log.UserID, err)
	}
	return nil
}

func (s *Store) ListTokenLogs(ctx context.Context, userID string, limit int) ([]*models.TokenLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[models.TokenLog](ctx, s.col(colTokenLog), bson.M{"userId": userID}, opts)
}

func (s *Store) ListTokenLogsBetween(ctx context.Context, from, to string) ([]*models.TokenLog, error) {
	filter := bson.M{"timestamp": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "id", Value: 1}})
	return findAll[models.TokenLog](ctx, s.col(colTokenLog), filter, opts)
}

func (s *Store) SaveWebhookLog(ctx context.Context, log *models.WebhookLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now
	_, err := s.col(colWebhookLog).ReplaceOne(ctx, bson.M{"id": log.ID}, log, options.Replace().SetUpsert(true))
	return err
}
