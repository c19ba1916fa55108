package service

import (
	"context"
	"fmt"
	"time"

	"soulfamily/sounds-api/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScheduleConfig holds cron specs, both standard five field expressions
// and descriptors such as "@daily" or "@every 6h" are accepted
type ScheduleConfig struct {
	TokenCleanup     string
	CounterReconcile string
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	db   *gorm.DB
	cron *cron.Cron
}

// cronLogger sends cron's own logging through zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	zap.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	zap.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(db *gorm.DB, cfg ScheduleConfig) (*Scheduler, error) {
	logger := cron.Logger(cronLogger{})

	s := &Scheduler{
		db: db,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"token cleanup", cfg.TokenCleanup, s.CleanupTokens},
		{"account cleanup", cfg.TokenCleanup, s.PurgeUnverified},
		{"counter reconcile", cfg.CounterReconcile, s.ReconcileCounters},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}

		_, err := s.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			if err := j.run(ctx); err != nil {
				zap.L().Error("Scheduled job failed", zap.String("job", j.name), zap.Error(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s, %w", j.name, err)
		}

		zap.L().Debug("Job scheduled", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// CleanupTokens deletes verification tokens past their cleanup date
func (s *Scheduler) CleanupTokens(ctx context.Context) error {
	res := s.db.
		WithContext(ctx).
		Where("cleanup_at < ?", time.Now()).
		Delete(&model.VerificationToken{})
	if res.Error != nil {
		return fmt.Errorf("failed to cleanup tokens, %w", res.Error)
	}

	if res.RowsAffected > 0 {
		zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", res.RowsAffected))
	}

	return nil
}

// PurgeUnverified deletes members that never verified their email before
// their account expired
func (s *Scheduler) PurgeUnverified(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	var ids []string
	err := db.
		Model(&model.User{}).
		Where("verified = ? AND expires_at < ? AND role = ?", false, time.Now(), model.RoleMember).
		Pluck("id", &ids).
		Error
	if err != nil {
		return fmt.Errorf("failed to query users to clean, %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id IN ?", ids).Delete(&model.VerificationToken{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id IN ?", ids).Delete(&model.MemberProfile{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Where("id IN ?", ids).Delete(&model.User{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete unverified users, %w", err)
	}

	zap.L().Info("Purged unverified accounts", zap.Int("count", len(ids)))

	return nil
}

// ReconcileCounters recomputes every like and download counter from the
// join rows
func (s *Scheduler) ReconcileCounters(ctx context.Context) error {
	db := s.db.
		WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true})

	counters := []struct {
		model  any
		column string
		expr   string
	}{
		{&model.AudioFile{}, "likes_count", "(SELECT COUNT(*) FROM likes WHERE likes.audio_file_id = audio_files.id)"},
		{&model.AudioFile{}, "downloads_count", "(SELECT COUNT(*) FROM download_files WHERE download_files.audio_file_id = audio_files.id)"},
		{&model.ContentItem{}, "downloads_count", "(SELECT COUNT(*) FROM downloads WHERE downloads.content_id = content_items.id)"},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range counters {
			err := tx.
				Model(c.model).
				UpdateColumn(c.column, gorm.Expr(c.expr)).
				Error
			if err != nil {
				return fmt.Errorf("failed to reconcile %s, %w", c.column, err)
			}
		}

		return nil
	})
}
