package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cityprop/backoffice/internal/retention"
	"github.com/cityprop/backoffice/internal/shared"
)

const (
	recentLimit    = 5
	topClientLimit = 5
)

// Summary is everything the home page shows.
type Summary struct {
	Today         time.Time
	TypeCounts    []TypeCount
	Retained      int
	Pending       int
	NewThisMonth  int
	AlertCounts   retention.Counts
	RecentOrders  []RecentOrder
	TopClients    []TopClient
}

// Service assembles the home page summary.
type Service struct {
	repo      Repository
	retention *retention.Service
	logger    *slog.Logger
}

// NewService wires the dashboard service.
func NewService(repo Repository, retentionSvc *retention.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, retention: retentionSvc, logger: logger}
}

// Summary runs the dashboard queries in parallel; they are independent
// reads and the home page is the most visited one.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.retention.Today()
	out := &Summary{Today: today}
	monthStart := shared.MonthStart(today.Year(), int(today.Month()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TypeCounts, err = s.repo.CountByType(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Retained, out.Pending, err = s.repo.CountRetained(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.NewThisMonth, err = s.repo.CountCreatedSince(gctx, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		out.AlertCounts, err = s.retention.AlertCounts(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentOrders, err = s.repo.RecentOrders(gctx, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		out.TopClients, err = s.repo.TopClients(gctx, topClientLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
