// Package gormstore implements ledger.Store on a relational database
// (postgres or mysql) through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

type Store struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

var _ ledger.Store = (*Store)(nil)

func New(db *gorm.DB, l *zap.SugaredLogger) *Store {
	return &Store{db: db, logger: l}
}

// Migrate runs GORM migrations for every ledger table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&models.Subscription{},
		&models.SubscriptionLog{},
		&models.Plan{},
		&models.Customer{},
		&models.Invoice{},
		&models.Payment{},
		&models.Order{},
		&models.TokenBalance{},
		&models.TokenLog{},
		&models.ProcessedEvent{},
		&models.WebhookLog{},
	); err != nil {
		s.logger.Errorf("automigrate failed: %v", err)
		return err
	}
	s.logger.Infow("automigrate completed", "dialect", s.db.Dialector.Name())
	return nil
}

// Close closes the underlying *sql.DB.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		s.logger.Warnw("gorm: get sql.DB failed", "err", err)
		return nil
	}
	s.logger.Infow("closing database connection pool")
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ErrNotFound
	}
	return err
}

// patchColumns turns the present fields of model into a column -> value map.
func patchColumns(model any, now time.Time) map[string]any {
	fields := models.PatchFields(model)
	cols := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		cols[f.Column] = f.Value
	}
	cols["updated_at"] = now
	return cols
}

// upsert inserts row when no record matches where, otherwise updates the
// present fields of patch. The stored row is re-read into out.
func upsert[T any](tx *gorm.DB, out *T, patch any, newRow func() *T, where string, args ...any) (existed bool, err error) {
	var cur T
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(where, args...).Take(&cur).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := newRow()
		if err := tx.Create(row).Error; err != nil {
			return false, err
		}
		*out = *row
		return false, nil
	case err != nil:
		return false, err
	}
	if err := tx.Model(&cur).Where(where, args...).Updates(patchColumns(patch, time.Now())).Error; err != nil {
		return true, err
	}
	*out = cur
	return true, tx.Where(where, args...).Take(out).Error
}

func (s *Store) UpsertSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, *models.Subscription, error) {
	var before, after *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev models.Subscription
		err := tx.Where("user_id = ? AND subscription_id = ?", sub.UserID, sub.SubscriptionID).Take(&prev).Error
		if err == nil {
			before = &prev
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		var out models.Subscription
		if _, err := upsert(tx, &out, sub, func() *models.Subscription {
			row := *sub
			row.ID = tool.GenerateUUIDV7()
			return &row
		}, "user_id = ? AND subscription_id = ?", sub.UserID, sub.SubscriptionID); err != nil {
			return err
		}
		after = &out
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upsert subscription %s: %w", sub.SubscriptionID, err)
	}
	return before, after, nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ? AND subscription_id = ?", userID, subscriptionID).Take(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) FindSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).Order("updated_at desc").Take(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, f ledger.SubscriptionFilter) ([]*models.Subscription, error) {
	q := s.db.WithContext(ctx).Model(&models.Subscription{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []*models.Subscription
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AppendSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *Store) SavePlan(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = tool.GenerateUUIDV7()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"period", "billing_interval", "item", "notes", "updated_at"}),
	}).Create(plan).Error
}

func (s *Store) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	var p models.Plan
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	var out []*models.Plan
	if err := s.db.WithContext(ctx).Order("plan_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpsertCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	var out models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := upsert(tx, &out, c, func() *models.Customer {
			row := *c
			row.ID = tool.GenerateUUIDV7()
			return &row
		}, "customer_id = ?", c.CustomerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert customer %s: %w", c.CustomerID, err)
	}
	return &out, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Take(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, f ledger.CustomerFilter) ([]*models.Customer, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	var out []*models.Customer
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	var out models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := upsert(tx, &out, inv, func() *models.Invoice {
			row := *inv
			row.ID = tool.GenerateUUIDV7()
			return &row
		}, "invoice_id = ?", inv.InvoiceID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert invoice %s: %w", inv.InvoiceID, err)
	}
	return &out, nil
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Take(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, f ledger.InvoiceFilter) ([]*models.Invoice, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.SubscriptionID != "" {
		q = q.Where("subscription_id = ?", f.SubscriptionID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	var out []*models.Invoice
	if err := q.Order("inserted_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	var out models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := upsert(tx, &out, p, func() *models.Payment {
			row := *p
			row.ID = tool.GenerateUUIDV7()
			return &row
		}, "payment_id = ?", p.PaymentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert payment %s: %w", p.PaymentID, err)
	}
	return &out, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, f ledger.PaymentFilter) ([]*models.Payment, error) {
	q := s.db.WithContext(ctx).Model(&models.Payment{})
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.OrderID != "" {
		q = q.Where("order_id = ?", f.OrderID)
	}
	var out []*models.Payment
	if err := q.Order("inserted_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = tool.GenerateUUIDV7()
	}
	err := s.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ledger.ErrDuplicate
	}
	return err
}

func (s *Store) UpdateOrder(ctx context.Context, id string, patch *models.Order) (*models.Order, error) {
	var out models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(patchColumns(patch, time.Now()))
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("id = ?", id).Take(&out).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) FindOrderByGatewayID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Where("order_id = ? OR second_order_id = ?", orderID, orderID).Take(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]*models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	var out []*models.Order
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
