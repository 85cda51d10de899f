package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/usawrapco/wrapforge/pkg/logger"
	"gorm.io/gorm"
)

// UsageCleanupScheduler prunes ledger rows past the retention window once a
// day. Aggregate stats are untouched; only the detail rows age out.
type UsageCleanupScheduler struct {
	cron          *cron.Cron
	usage         *AIUsageService
	retentionDays int
	log           zerolog.Logger
}

var usageCleanup *UsageCleanupScheduler

// StartUsageCleanupScheduler begins the daily retention sweep.
func StartUsageCleanupScheduler(db *gorm.DB, retentionDays int) {
	usageCleanup = &UsageCleanupScheduler{
		cron:          cron.New(),
		usage:         NewAIUsageService(db),
		retentionDays: retentionDays,
		log:           logger.With("usage_cleanup"),
	}

	// Off-peak daily sweep
	usageCleanup.cron.AddFunc("30 3 * * *", usageCleanup.sweep)
	usageCleanup.cron.Start()

	usageCleanup.log.Info().Int("retention_days", retentionDays).Msg("scheduler started")
}

// StopUsageCleanupScheduler stops the sweep.
func StopUsageCleanupScheduler() {
	if usageCleanup != nil && usageCleanup.cron != nil {
		usageCleanup.cron.Stop()
	}
}

func (s *UsageCleanupScheduler) sweep() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.usage.CleanupBefore(cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Str("cutoff", cutoff.Format("2006-01-02")).Msg("usage rows pruned")
	}
}
