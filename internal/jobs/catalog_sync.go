package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CatalogSyncer mirrors the external catalog.
type CatalogSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// ConsentReconciler repairs consent flags left unset by an interrupted fill.
type ConsentReconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// CatalogSyncConfig controls the periodic catalog sync.
type CatalogSyncConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// StartCatalogSyncJob runs a sync immediately and then on every interval until ctx is cancelled.
// After each tick it reconciles consent flags. The returned channel closes when the job stops.
func StartCatalogSyncJob(ctx context.Context, cfg CatalogSyncConfig, catalog CatalogSyncer, consents ConsentReconciler, logger zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	log := logger.With().Str("component", "catalog_sync_job").Logger()

	if !cfg.Enabled || catalog == nil {
		log.Info().Msg("catalog sync job disabled")
		close(done)
		return done
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	tick := func() {
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		synced, err := catalog.Sync(tickCtx)
		if err != nil {
			log.Error().Err(err).Int("synced", synced).Msg("catalog sync failed")
		} else {
			log.Info().Int("synced", synced).Msg("catalog sync completed")
		}

		if consents == nil {
			return
		}
		if _, err := consents.Reconcile(tickCtx); err != nil {
			log.Warn().Err(err).Msg("consent reconciliation failed")
		}
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	return done
}
