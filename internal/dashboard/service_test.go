package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/platform/cache"
)

type fakeRepo struct {
	clients    int64
	revenue    float64
	aggregates []InvoiceAggregate
	recents    []RecentInvoice
	loads      int
}

func (f *fakeRepo) CountClients(context.Context) (int64, error) {
	f.loads++
	return f.clients, nil
}

func (f *fakeRepo) TotalRevenue(context.Context) (float64, error) {
	return f.revenue, nil
}

func (f *fakeRepo) InvoiceAggregates(context.Context) ([]InvoiceAggregate, error) {
	return f.aggregates, nil
}

func (f *fakeRepo) RecentInvoices(context.Context, int) ([]RecentInvoice, error) {
	return f.recents, nil
}

func testCache(t *testing.T) (*cache.Cache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCache(client, 5*time.Minute), client
}

func fixedService(repo Repository, c *cache.Cache, asOf time.Time) *Service {
	svc := NewService(repo, c)
	svc.clock = func() time.Time { return asOf }
	return svc
}

func TestOverviewAggregates(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		clients: 4,
		revenue: 1250,
		aggregates: []InvoiceAggregate{
			{ID: 1, DueDate: asOf.AddDate(0, 0, 10), Total: 1000, Paid: 250},
			{ID: 2, DueDate: asOf.AddDate(0, 0, -2), Total: 500, Paid: 0},
			{ID: 3, DueDate: asOf.AddDate(0, 0, -5), Total: 1000, Paid: 1000},
		},
		recents: []RecentInvoice{
			{ID: 1, InvoiceNumber: "INV-2026-0001", ClientName: "Acme", Currency: "USD",
				DueDate: asOf.AddDate(0, 0, 10), Total: 1000, TotalPaid: 250},
		},
	}
	c, _ := testCache(t)
	svc := fixedService(repo, c, asOf)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(4), overview.Summary.TotalClients)
	require.Equal(t, int64(3), overview.Summary.TotalInvoices)
	require.Equal(t, 1250.0, overview.Summary.TotalRevenue)
	require.Equal(t, 1250.0, overview.Summary.Outstanding)
	require.Equal(t, StatusCounts{Paid: 1, Pending: 1, Overdue: 1}, overview.Summary.StatusCounts)

	require.Len(t, overview.RecentInvoices, 1)
	require.Equal(t, 750.0, overview.RecentInvoices[0].AmountDue)
	require.Equal(t, ledger.StatusPending, overview.RecentInvoices[0].Status)
}

func TestOverviewServedFromCacheUntilBump(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{clients: 2}
	c, _ := testCache(t)
	svc := fixedService(repo, c, asOf)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads)

	require.NoError(t, c.Bump(ctx))
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads)
}

func TestOverviewEmptyState(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	c, _ := testCache(t)
	svc := fixedService(&fakeRepo{}, c, asOf)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Zero(t, overview.Summary.TotalInvoices)
	require.Zero(t, overview.Summary.Outstanding)
	require.NotNil(t, overview.RecentInvoices)
	require.Empty(t, overview.RecentInvoices)
}
