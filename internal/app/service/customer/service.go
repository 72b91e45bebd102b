package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/profile"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

// ErrNoCustomer is returned when a user has no gateway customer yet.
var ErrNoCustomer = errors.New("customer: no customer for user")

// Identity is what the caller's headers say about them; it fills the
// fields a create request leaves out.
type Identity struct {
	UserID  string
	Name    string
	Email   string
	Contact string
}

type Request struct {
	Name         *string        `json:"name"`
	Contact      *string        `json:"contact"`
	Email        *string        `json:"email" binding:"omitempty,email"`
	Notes        map[string]any `json:"notes"`
	FailExisting bool           `json:"fail_existing"`
}

type Service struct {
	store  ledger.Store
	gw     gateway.Gateway
	mirror profile.Mirror
	log    *zap.SugaredLogger
}

func NewService(store ledger.Store, gw gateway.Gateway, mirror profile.Mirror, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gw: gw, mirror: mirror, log: log}
}

func (s *Service) Create(ctx context.Context, who Identity, req Request) (*models.Customer, error) {
	if who.UserID == "" {
		return nil, fmt.Errorf("%w: user id required", types.ErrInvalidRequest)
	}
	ent, err := s.gw.CreateCustomer(ctx, gateway.CustomerRequest{
		Name:         lo.FromPtrOr(req.Name, who.Name),
		Email:        lo.FromPtrOr(req.Email, who.Email),
		Contact:      lo.FromPtrOr(req.Contact, who.Contact),
		Notes:        req.Notes,
		FailExisting: req.FailExisting,
	})
	if err != nil {
		return nil, err
	}
	c := fromEntity(ent)
	if c.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer create returned no id", gateway.ErrGateway)
	}
	c.UserID = lo.ToPtr(who.UserID)

	saved, err := s.store.UpsertCustomer(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("save customer %s: %w", c.CustomerID, err)
	}
	s.mirror.SyncCustomer(ctx, who.UserID, saved.CustomerID)
	logctx.FromCtx(ctx, s.log).Infow("customer_created", "customer_id", saved.CustomerID, "user_id", who.UserID)
	return saved, nil
}

// Update sends each of name, contact and email: the requested value when
// given, else the stored one. The gateway's answer is stored back.
func (s *Service) Update(ctx context.Context, customerID string, req Request) (*models.Customer, error) {
	cur, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	body := gateway.CustomerRequest{
		Name:    pick(req.Name, cur.Name),
		Contact: pick(req.Contact, cur.Contact),
		Email:   pick(req.Email, cur.Email),
		Notes:   req.Notes,
	}
	if body.Name == "" && body.Contact == "" && body.Email == "" {
		return nil, fmt.Errorf("%w: no fields to update", types.ErrInvalidRequest)
	}
	ent, err := s.gw.EditCustomer(ctx, customerID, body)
	if err != nil {
		return nil, err
	}
	c := fromEntity(ent)
	c.CustomerID = customerID
	saved, err := s.store.UpsertCustomer(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("save customer %s: %w", customerID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("customer_updated", "customer_id", customerID)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (*models.Customer, error) {
	return s.store.GetCustomer(ctx, customerID)
}

// List returns every stored customer, or only userID's when it is set.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Customer, error) {
	return s.store.ListCustomers(ctx, ledger.CustomerFilter{UserID: userID})
}

// ResolveID finds the gateway customer id of a user: the newest stored
// subscription carrying one wins, then the newest stored customer record.
func (s *Service) ResolveID(ctx context.Context, userID string) (string, error) {
	subs, err := s.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{UserID: userID})
	if err != nil {
		return "", err
	}
	if sub, ok := lo.Find(subs, func(sub *models.Subscription) bool { return models.Str(sub.CustomerID) != "" }); ok {
		return *sub.CustomerID, nil
	}
	customers, err := s.store.ListCustomers(ctx, ledger.CustomerFilter{UserID: userID})
	if err != nil {
		return "", err
	}
	if len(customers) > 0 {
		return customers[0].CustomerID, nil
	}
	return "", ErrNoCustomer
}

func pick(req, cur *string) string {
	if req != nil {
		return *req
	}
	return models.Str(cur)
}

func fromEntity(ent gateway.Entity) *models.Customer {
	c := &models.Customer{CustomerID: tool.ToString(ent["id"])}
	if v := tool.ToString(ent["name"]); v != "" {
		c.Name = lo.ToPtr(v)
	}
	if v := tool.ToString(ent["contact"]); v != "" {
		c.Contact = lo.ToPtr(v)
	}
	if v := tool.ToString(ent["email"]); v != "" {
		c.Email = lo.ToPtr(v)
	}
	if notes, ok := ent["notes"].(map[string]any); ok {
		c.Notes = notes
	}
	return c
}
