// Package mongostore implements ledger.Store on MongoDB. Documents reuse the
// models' bson tags; the natural keys carry unique indexes created by Migrate.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

const (
	colSubscription    = "subscription"
	colSubscriptionLog = "subscription_log"
	colPlan            = "plan"
	colCustomer        = "customer"
	colInvoice         = "invoice"
	colPayment         = "payment"
	colOrder           = "order_record"
	colTokenBalance    = "token_balance"
	colTokenLog        = "token_log"
	colProcessedEvent  = "processed_event"
	colWebhookLog      = "webhook_log"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.SugaredLogger
}

var _ ledger.Store = (*Store)(nil)

func New(client *mongo.Client, database string, l *zap.SugaredLogger) *Store {
	return &Store{client: client, db: client.Database(database), logger: l}
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Migrate creates the indexes for every ledger collection.
func (s *Store) Migrate(ctx context.Context) error {
	for col, idx := range migrationIndexes() {
		if _, err := s.col(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("ledger: create indexes for %s: %w", col, err)
		}
	}
	s.logger.Infow("mongo indexes ensured", "database", s.db.Name())
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	s.logger.Infow("closing mongo client")
	return s.client.Disconnect(ctx)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	unique := func(keys ...string) mongo.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(true)}
	}
	return map[string][]mongo.IndexModel{
		colSubscription: {
			unique("userId", "subscriptionId"),
			{Keys: bson.D{{Key: "subscriptionId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colSubscriptionLog: {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}}},
		colPlan:            {unique("planId")},
		colCustomer:        {unique("customerId"), {Keys: bson.D{{Key: "userId", Value: 1}}}},
		colInvoice:         {unique("invoiceId"), {Keys: bson.D{{Key: "subscriptionId", Value: 1}}}, {Keys: bson.D{{Key: "customerId", Value: 1}}}},
		colPayment:         {unique("paymentId"), {Keys: bson.D{{Key: "customerId", Value: 1}}}, {Keys: bson.D{{Key: "orderId", Value: 1}}}},
		colOrder:           {unique("id"), unique("orderId"), {Keys: bson.D{{Key: "secondOrderId", Value: 1}}}, {Keys: bson.D{{Key: "userId", Value: 1}}}},
		colTokenBalance:    {unique("userId")},
		colTokenLog: {
			unique("id"),
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		},
		colProcessedEvent: {unique("providerId", "eventId")},
		colWebhookLog:     {unique("id"), {Keys: bson.D{{Key: "eventId", Value: 1}}}},
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.ErrNotFound
	}
	return err
}

// setDoc builds the $set document from the present fields of patch.
func setDoc(patch any, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	for _, f := range models.PatchFields(patch) {
		set[f.Key] = f.Value
	}
	return set
}

// upsert applies a partial update keyed by filter, inserting the document
// when absent. onInsert holds the fields only written on creation.
func (s *Store) upsert(ctx context.Context, col string, filter bson.M, patch any, onInsert bson.M, out any) error {
	update := bson.M{"$set": setDoc(patch, time.Now()), "$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return s.col(col).FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptionsBuilder) ([]*T, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []*T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpsertSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, *models.Subscription, error) {
	filter := bson.M{"userId": sub.UserID, "subscriptionId": sub.SubscriptionID}
	now := time.Now()
	update := bson.M{
		"$set":         setDoc(sub, now),
		"$setOnInsert": bson.M{"id": tool.GenerateUUIDV7(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var before *models.Subscription
	var prev models.Subscription
	err := s.col(colSubscription).FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev)
	switch {
	case err == nil:
		before = &prev
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil, fmt.Errorf("upsert subscription %s: %w", sub.SubscriptionID, err)
	}
	var after models.Subscription
	if err := s.col(colSubscription).FindOne(ctx, filter).Decode(&after); err != nil {
		return nil, nil, fmt.Errorf("reload subscription %s: %w", sub.SubscriptionID, err)
	}
	return before, &after, nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.col(colSubscription).FindOne(ctx, bson.M{"userId": userID, "subscriptionId": subscriptionID}).Decode(&sub)
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) FindSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	if err := s.col(colSubscription).FindOne(ctx, bson.M{"subscriptionId": subscriptionID}, opts).Decode(&sub); err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, f ledger.SubscriptionFilter) ([]*models.Subscription, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if len(f.Statuses) > 0 {
		filter["subscriptionStatus"] = bson.M{"$in": f.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.Subscription](ctx, s.col(colSubscription), filter, opts)
}

func (s *Store) AppendSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := s.col(colSubscriptionLog).InsertOne(ctx, log)
	return err
}

func (s *Store) SavePlan(ctx context.Context, plan *models.Plan) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"period":    plan.Period,
			"interval":  plan.Interval,
			"item":      plan.Item,
			"notes":     plan.Notes,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"id": tool.GenerateUUIDV7(), "createdAt": now},
	}
	_, err := s.col(colPlan).UpdateOne(ctx, bson.M{"planId": plan.PlanID}, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (s *Store) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	var p models.Plan
	if err := s.col(colPlan).FindOne(ctx, bson.M{"planId": planID}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	return findAll[models.Plan](ctx, s.col(colPlan), bson.M{}, options.Find().SetSort(bson.D{{Key: "planId", Value: 1}}))
}

func (s *Store) UpsertCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	var out models.Customer
	err := s.upsert(ctx, colCustomer, bson.M{"customerId": c.CustomerID}, c,
		bson.M{"id": tool.GenerateUUIDV7(), "createdAt": time.Now()}, &out)
	if err != nil {
		return nil, fmt.Errorf("upsert customer %s: %w", c.CustomerID, err)
	}
	return &out, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	var c models.Customer
	if err := s.col(colCustomer).FindOne(ctx, bson.M{"customerId": customerID}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, f ledger.CustomerFilter) ([]*models.Customer, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	return findAll[models.Customer](ctx, s.col(colCustomer), filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *Store) UpsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	var out models.Invoice
	err := s.upsert(ctx, colInvoice, bson.M{"invoiceId": inv.InvoiceID}, inv,
		bson.M{"id": tool.GenerateUUIDV7(), "insertedAt": time.Now()}, &out)
	if err != nil {
		return nil, fmt.Errorf("upsert invoice %s: %w", inv.InvoiceID, err)
	}
	return &out, nil
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.col(colInvoice).FindOne(ctx, bson.M{"invoiceId": invoiceID}).Decode(&inv); err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, f ledger.InvoiceFilter) ([]*models.Invoice, error) {
	filter := bson.M{}
	if f.SubscriptionID != "" {
		filter["subscriptionId"] = f.SubscriptionID
	}
	if f.CustomerID != "" {
		filter["customerId"] = f.CustomerID
	}
	return findAll[models.Invoice](ctx, s.col(colInvoice), filter, options.Find().SetSort(bson.D{{Key: "insertedAt", Value: -1}}))
}

func (s *Store) UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	var out models.Payment
	err := s.upsert(ctx, colPayment, bson.M{"paymentId": p.PaymentID}, p,
		bson.M{"id": tool.GenerateUUIDV7(), "insertedAt": time.Now()}, &out)
	if err != nil {
		return nil, fmt.Errorf("upsert payment %s: %w", p.PaymentID, err)
	}
	return &out, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.col(colPayment).FindOne(ctx, bson.M{"paymentId": paymentID}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, f ledger.PaymentFilter) ([]*models.Payment, error) {
	filter := bson.M{}
	if f.CustomerID != "" {
		filter["customerId"] = f.CustomerID
	}
	if f.OrderID != "" {
		filter["orderId"] = f.OrderID
	}
	return findAll[models.Payment](ctx, s.col(colPayment), filter, options.Find().SetSort(bson.D{{Key: "insertedAt", Value: -1}}))
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = tool.GenerateUUIDV7()
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := s.col(colOrder).InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ledger.ErrDuplicate
	}
	return err
}

func (s *Store) UpdateOrder(ctx context.Context, id string, patch *models.Order) (*models.Order, error) {
	var out models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col(colOrder).FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": setDoc(patch, time.Now())}, opts).Decode(&out)
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.col(colOrder).FindOne(ctx, bson.M{"id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) FindOrderByGatewayID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	filter := bson.M{"$or": bson.A{bson.M{"orderId": orderID}, bson.M{"secondOrderId": orderID}}}
	if err := s.col(colOrder).FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]*models.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	return findAll[models.Order](ctx, s.col(colOrder), filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}
