// Package services holds background work that runs next to the HTTP server.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/store"
)

// FindOrphans returns records whose parent_id points at a record that no longer exists.
// Deleting content never cascades, so these build up after an admin removes a section.
func FindOrphans(ctx context.Context, contents store.ContentStore) ([]models.ContentRecord, error) {
	all, err := contents.List(ctx, store.ContentFilter{})
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(all))
	for _, rec := range all {
		ids[rec.ID] = struct{}{}
	}

	var orphans []models.ContentRecord
	for _, rec := range all {
		if rec.IsTopLevel() {
			continue
		}
		if _, ok := ids[rec.Parent()]; !ok {
			orphans = append(orphans, rec)
		}
	}
	return orphans, nil
}

// StartOrphanReportJob logs orphaned records once at startup and then on every tick until
// ctx is done. It only reports; nothing is deleted.
func StartOrphanReportJob(ctx context.Context, contents store.ContentStore, every time.Duration, logger zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})

	report := func() {
		orphans, err := FindOrphans(ctx, contents)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Stack().Err(err).Msg("orphan report failed")
			}
			return
		}
		if len(orphans) == 0 {
			logger.Debug().Msg("no orphaned content")
			return
		}
		for _, rec := range orphans {
			logger.Warn().Str("id", rec.ID).Str("parent_id", rec.Parent()).Msg("content record has no parent")
		}
		logger.Warn().Int("count", len(orphans)).Msg("orphaned content found")
	}

	go func() {
		defer close(done)
		report()

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report()
			}
		}
	}()
	return done
}
