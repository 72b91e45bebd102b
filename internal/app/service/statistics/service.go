package statistics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/cycle"
	"github.com/fatflowers/billing/pkg/types"
)

type StatisticType string

const (
	// Subscriptions
	StatisticTypeSubscriptionStatusCount    StatisticType = "subscription_status_count"
	StatisticTypeDailyNewSubscriptionCount  StatisticType = "daily_new_subscription_count"
	StatisticTypeTotalActiveSubscriptionCnt StatisticType = "total_active_subscription_count"

	// Token flow: value is tokens granted, value2 tokens consumed, value3 log count
	StatisticTypeDailyTokenFlow StatisticType = "daily_token_flow"
)

const defaultRangeDays = 30

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

// StatisticRequest bounds daily series by From and To, both YYYY-MM-DD and
// inclusive. Empty bounds mean the last 30 days.
type StatisticRequest struct {
	From      string               `json:"from"`
	To        string               `json:"to"`
	DataItems []*StatisticDataItem `json:"data_items"`
}

type StatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
	Value3 int64  `json:"value3,omitempty"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

// Service computes admin statistics from the ledger.
type Service struct {
	store ledger.Store
	now   func() time.Time
}

func New(store ledger.Store) *Service { return &Service{store: store, now: time.Now} }

// window returns [from, to) in the ledger's timestamp format.
func (s *Service) window(req *StatisticRequest) (string, string, error) {
	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -defaultRangeDays+1)
	var err error
	if req.From != "" {
		if start, err = time.Parse(time.DateOnly, req.From); err != nil {
			return "", "", fmt.Errorf("%w: from: %v", types.ErrInvalidRequest, err)
		}
	}
	if req.To != "" {
		if end, err = time.Parse(time.DateOnly, req.To); err != nil {
			return "", "", fmt.Errorf("%w: to: %v", types.ErrInvalidRequest, err)
		}
	}
	if end.Before(start) {
		return "", "", fmt.Errorf("%w: to before from", types.ErrInvalidRequest)
	}
	return cycle.Format(start), cycle.Format(end.AddDate(0, 0, 1)), nil
}

// day turns a ledger timestamp into YYYY-MM-DD.
func day(ts string) string {
	if len(ts) < 8 {
		return ""
	}
	return ts[0:4] + "-" + ts[4:6] + "-" + ts[6:8]
}

func (s *Service) getSubscriptionStatusCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	subs, err := s.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}
	counts := lo.CountValuesBy(subs, func(sub *models.Subscription) string { return string(sub.StatusValue()) })
	out := make([]StatisticResponseDataItem, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatisticResponseDataItem{Label: lo.CoalesceOrEmpty(status, "unknown"), Value: int64(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Service) getTotalActiveSubscriptionCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	subs, err := s.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{
		Statuses: []types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusAuthenticated},
	})
	if err != nil {
		return nil, err
	}
	users := lo.Uniq(lo.Map(subs, func(sub *models.Subscription, _ int) string { return sub.UserID }))
	return []StatisticResponseDataItem{{Value: int64(len(subs)), Value2: int64(len(users))}}, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, req *StatisticRequest) ([]StatisticResponseDataItem, error) {
	from, to, err := s.window(req)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}
	byDay := map[string]int64{}
	for _, sub := range subs {
		ts := cycle.Format(sub.CreatedAt)
		if ts >= from && ts < to {
			byDay[day(ts)]++
		}
	}
	out := make([]StatisticResponseDataItem, 0, len(byDay))
	for d, n := range byDay {
		out = append(out, StatisticResponseDataItem{Date: d, Value: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Service) getDailyTokenFlow(ctx context.Context, req *StatisticRequest) ([]StatisticResponseDataItem, error) {
	from, to, err := s.window(req)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListTokenLogsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*StatisticResponseDataItem{}
	for _, l := range logs {
		d := day(l.Timestamp)
		item, ok := byDay[d]
		if !ok {
			item = &StatisticResponseDataItem{Date: d}
			byDay[d] = item
		}
		if l.Type == types.TokenLogTypeConsume {
			item.Value2 += l.Tokens
		} else {
			item.Value += l.Tokens
		}
		item.Value3++
	}
	out := lo.Map(lo.Values(byDay), func(it *StatisticResponseDataItem, _ int) StatisticResponseDataItem { return *it })
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeSubscriptionStatusCount:
		return s.getSubscriptionStatusCount(ctx, request)
	case StatisticTypeTotalActiveSubscriptionCnt:
		return s.getTotalActiveSubscriptionCount(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeDailyTokenFlow:
		return s.getDailyTokenFlow(ctx, request)
	default:
		return nil, fmt.Errorf("%w: invalid data item id: %s", types.ErrInvalidRequest, dataItem.ID)
	}
}

// GetStatistic computes every requested data item concurrently. The first
// failure aborts the whole request.
func (s *Service) GetStatistic(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	if request == nil || len(request.DataItems) == 0 {
		return nil, fmt.Errorf("%w: data_items required", types.ErrInvalidRequest)
	}
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}
	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	results := make(map[StatisticType][]StatisticResponseDataItem, len(request.DataItems))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &StatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
