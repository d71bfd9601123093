package services

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
	"golang.org/x/sync/errgroup"
)

const refreshConcurrency = 8

// DashboardService summarizes pin statuses and rewrites stale stored ones.
type DashboardService struct {
	pins  PinRepository
	clock Clock
}

func NewDashboardService(pins PinRepository, clock Clock) *DashboardService {
	return &DashboardService{pins: pins, clock: clock}
}

// Summary counts pins per status under the Dashboard policy, which ignores
// the pest flag. Pins without an installation date are counted as invalid.
func (s *DashboardService) Summary(ctx context.Context) (models.DashboardSummary, error) {
	pins, err := s.pins.List(ctx)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	now := s.clock.now()
	sum := models.DashboardSummary{Counts: make(map[trapstatus.Label]int)}
	for _, p := range pins {
		label := p.Recompute(trapstatus.Dashboard, now)
		if !label.Counted() {
			sum.Invalid++
			continue
		}
		sum.Counts[label]++
		sum.Total++
	}
	return sum, nil
}

// RefreshStatuses recomputes every pin under the PinMap policy and writes
// back the ones whose stored estado no longer matches. Flags are kept as stored.
func (s *DashboardService) RefreshStatuses(ctx context.Context) (models.RefreshResponse, error) {
	pins, err := s.pins.List(ctx)
	if err != nil {
		return models.RefreshResponse{}, err
	}
	now := s.clock.now()

	var updated atomic.Int64
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(refreshConcurrency)
	for _, p := range pins {
		current := p.Recompute(trapstatus.PinMap, now)
		if current == p.Status || !current.Counted() {
			continue
		}
		eg.Go(func() error {
			if err := s.pins.UpdateStatus(gctx, p.ID, current, p.Removed, p.PestDetected); err != nil {
				slog.Error("Failed to refresh pin status.", "pinId", p.ID, "error", err)
				return err
			}
			updated.Add(1)
			return nil
		})
	}
	err = eg.Wait()

	res := models.RefreshResponse{Checked: len(pins), Updated: int(updated.Load())}
	slog.Info("Pin statuses refreshed.", "checked", res.Checked, "updated", res.Updated)
	return res, err
}
