package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

type ItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
	Description string `json:"description"`
}

// CreateRequest mirrors the gateway plan body. Notes.tokens sets the
// per-cycle token grant.
type CreateRequest struct {
	Period   string         `json:"period" binding:"required,oneof=daily weekly monthly yearly"`
	Interval int            `json:"interval" binding:"required,min=1"`
	Item     ItemRequest    `json:"item" binding:"required"`
	Notes    map[string]any `json:"notes"`
}

type Service struct {
	store ledger.Store
	gw    gateway.Gateway
	log   *zap.SugaredLogger
}

func NewService(store ledger.Store, gw gateway.Gateway, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gw: gw, log: log}
}

func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	return s.store.ListPlans(ctx)
}

func (s *Service) Get(ctx context.Context, planID string) (*models.Plan, error) {
	return s.store.GetPlan(ctx, planID)
}

// Create registers the plan on the gateway and stores the gateway's copy.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Plan, error) {
	if req.Period == "" || req.Interval < 1 || req.Item.Name == "" || req.Item.Amount <= 0 {
		return nil, fmt.Errorf("%w: period, interval and item are required", types.ErrInvalidRequest)
	}
	ent, err := s.gw.CreatePlan(ctx, gateway.PlanRequest{
		Period:      req.Period,
		Interval:    req.Interval,
		Name:        req.Item.Name,
		Amount:      req.Item.Amount,
		Currency:    req.Item.Currency,
		Description: req.Item.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}

	p := fromEntity(ent)
	if p.PlanID == "" {
		return nil, fmt.Errorf("%w: plan create returned no id", gateway.ErrGateway)
	}
	if err := s.store.SavePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("save plan %s: %w", p.PlanID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_created", "plan_id", p.PlanID, "period", p.Period, "interval", p.Interval, "tokens", p.Tokens())
	return p, nil
}

func fromEntity(ent gateway.Entity) *models.Plan {
	p := &models.Plan{
		PlanID:   tool.ToString(ent["id"]),
		Period:   tool.ToString(ent["period"]),
		Interval: int(tool.ToInt64(ent["interval"])),
		Notes:    datatypes.JSONMap{},
	}
	if item, ok := ent["item"].(map[string]any); ok {
		p.Item = models.PlanItem{
			Name:        tool.ToString(item["name"]),
			Amount:      tool.ToInt64(item["amount"]),
			Currency:    tool.ToString(item["currency"]),
			Description: tool.ToString(item["description"]),
		}
	}
	// The gateway answers [] for empty notes.
	if notes, ok := ent["notes"].(map[string]any); ok {
		p.Notes = notes
	}
	return p
}
