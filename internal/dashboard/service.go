package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/platform/cache"
)

const recentInvoicesLimit = 5

type Service struct {
	repo  Repository
	cache *cache.Cache
	clock func() time.Time
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c, clock: func() time.Time { return time.Now().UTC() }}
}

// Overview assembles the dashboard payload. Summary aggregates and the
// recent-invoice list load concurrently; the assembled result is cached
// under a versioned key so invoice and payment writes invalidate it.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	asOf := s.clock()

	loader := func(ctx context.Context) (any, error) {
		return s.load(ctx, asOf)
	}

	key, err := s.cache.BuildKey(ctx, "freelanceflow", "dashboard", asOf.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("build cache key: %w", err)
	}
	var overview Overview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Warm pre-populates the cache so the first request after an
// invalidation does not pay the aggregation cost.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Overview(ctx)
	return err
}

func (s *Service) load(ctx context.Context, asOf time.Time) (*Overview, error) {
	var (
		totalClients int64
		revenue      float64
		aggregates   []InvoiceAggregate
		recents      []RecentInvoice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalClients, err = s.repo.CountClients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.repo.TotalRevenue(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		aggregates, err = s.repo.InvoiceAggregates(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recents, err = s.repo.RecentInvoices(gctx, recentInvoicesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	summary := Summary{
		TotalClients:  totalClients,
		TotalInvoices: int64(len(aggregates)),
		TotalRevenue:  ledger.Round(revenue),
	}
	outstanding := 0.0
	for _, agg := range aggregates {
		switch ledger.DeriveStatus(agg.Total, agg.Paid, agg.DueDate, asOf) {
		case ledger.StatusPaid:
			summary.StatusCounts.Paid++
		case ledger.StatusOverdue:
			summary.StatusCounts.Overdue++
			outstanding += ledger.AmountDue(agg.Total, agg.Paid)
		default:
			summary.StatusCounts.Pending++
			outstanding += ledger.AmountDue(agg.Total, agg.Paid)
		}
	}
	summary.Outstanding = ledger.Round(outstanding)

	for i := range recents {
		recents[i].AmountDue = ledger.AmountDue(recents[i].Total, recents[i].TotalPaid)
		recents[i].Status = ledger.DeriveStatus(recents[i].Total, recents[i].TotalPaid, recents[i].DueDate, asOf)
	}
	if recents == nil {
		recents = []RecentInvoice{}
	}

	return &Overview{Summary: summary, RecentInvoices: recents}, nil
}
