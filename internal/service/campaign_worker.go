package service

import (
	"context"
	"time"

	"github.com/mathieu-neron/adwatch/internal/middleware"
)

// CampaignWorker is a periodic background job that refreshes the cached campaign catalog.
// It only reads campaigns; wallets are never touched by a refresh.
type CampaignWorker struct {
	campaigns *CampaignService
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCampaignWorker creates a worker that ticks every interval.
func NewCampaignWorker(campaigns *CampaignService, interval time.Duration) *CampaignWorker {
	return &CampaignWorker{
		campaigns: campaigns,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the refresh loop. It runs one tick immediately, then every interval.
func (w *CampaignWorker) Start(ctx context.Context) {
	middleware.Logger.Info().Dur("interval", w.interval).Msg("campaign-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			middleware.Logger.Info().Msg("campaign-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			middleware.Logger.Info().Msg("campaign-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *CampaignWorker) Stop() {
	close(w.stopCh)
}

func (w *CampaignWorker) tick(ctx context.Context) {
	start := time.Now()

	campaigns, err := w.campaigns.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			middleware.Logger.Error().Err(err).Msg("campaign-worker: refresh failed")
		}
		return
	}

	middleware.Logger.Debug().
		Int("active", len(campaigns)).
		Dur("elapsed", time.Since(start)).
		Msg("campaign-worker: tick complete")
}
