package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

func (s *Store) GetTokenBalance(ctx context.Context, userID string) (*models.TokenBalance, error) {
	var b models.TokenBalance
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) ReplaceTokenBalance(ctx context.Context, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	var out models.TokenBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceTokenBalance(tx, bal, log, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("replace token balance %s: %w", bal.UserID, err)
	}
	return &out, nil
}

func (s *Store) ClaimTokenAllocation(ctx context.Context, ev *models.ProcessedEvent, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	if ev.ID == "" {
		ev.ID = tool.GenerateUUIDV7()
	}
	var out models.TokenBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).Create(ev)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("event %s: %w", ev.EventID, ledger.ErrDuplicate)
		}
		return replaceTokenBalance(tx, bal, log, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("claim allocation for %s: %w", bal.UserID, err)
	}
	return &out, nil
}

func replaceTokenBalance(tx *gorm.DB, bal *models.TokenBalance, log *models.TokenLog, out *models.TokenBalance) error {
	var cur models.TokenBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", bal.UserID).Take(&cur).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := *bal
		row.ID = tool.GenerateUUIDV7()
		row.Version = 1
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		res := tx.Model(&models.TokenBalance{}).Where("id = ?", cur.ID).Updates(map[string]any{
			"plan_id":         bal.PlanID,
			"subscription_id": bal.SubscriptionID,
			"current_tokens":  bal.CurrentTokens,
			"total_allocated": bal.TotalAllocated,
			"cycle_start":     bal.CycleStart,
			"cycle_end":       bal.CycleEnd,
			"last_updated":    bal.LastUpdated,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
	}
	if err := createTokenLog(tx, log); err != nil {
		return err
	}
	return tx.Where("user_id = ?", bal.UserID).Take(out).Error
}

// ApplyTokenDelta relies on a single conditional UPDATE so that concurrent
// writers can never drive the balance below zero.
func (s *Store) ApplyTokenDelta(ctx context.Context, userID string, delta int64, log *models.TokenLog) (*models.TokenBalance, error) {
	var out models.TokenBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := map[string]any{
			"current_tokens": gorm.Expr("current_tokens + ?", delta),
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		}
		if log != nil {
			cols["last_updated"] = log.Timestamp
		}
		res := tx.Model(&models.TokenBalance{}).
			Where("user_id = ? AND current_tokens + ? >= 0", userID, delta).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.TokenBalance{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ledger.ErrNotFound
			}
			return ledger.ErrInsufficientTokens
		}
		if err := createTokenLog(tx, log); err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Take(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func createTokenLog(tx *gorm.DB, log *models.TokenLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	return tx.Create(log).Error
}

func (s *Store) ListTokenLogs(ctx context.Context, userID string, limit int) ([]*models.TokenLog, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*models.TokenLog
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListTokenLogsBetween(ctx context.Context, from, to string) ([]*models.TokenLog, error) {
	var out []*models.TokenLog
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp asc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveWebhookLog(ctx context.Context, log *models.WebhookLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	return s.db.WithContext(ctx).Save(log).Error
}
