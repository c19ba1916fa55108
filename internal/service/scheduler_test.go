package service

import (
	"context"
	"testing"
	"time"

	"soulfamily/sounds-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	e := newEnv(t)

	_, err := NewScheduler(e.db, ScheduleConfig{TokenCleanup: "every tuesday"})
	require.Error(t, err)

	s, err := NewScheduler(e.db, ScheduleConfig{TokenCleanup: "@hourly", CounterReconcile: "*/5 * * * *"})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestCleanupTokens(t *testing.T) {
	e := newEnv(t)
	createUser(t, e.db, "jo", model.RoleMember)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	require.NoError(t, e.db.Create(&[]model.VerificationToken{
		{UserID: "jo", Token: "old", Purpose: model.PurposeEmailVerify, CleanupAt: &past},
		{UserID: "jo", Token: "fresh", Purpose: model.PurposeEmailVerify, CleanupAt: &future},
	}).Error)

	s, err := NewScheduler(e.db, ScheduleConfig{})
	require.NoError(t, err)
	require.NoError(t, s.CleanupTokens(context.Background()))

	var left []string
	require.NoError(t, e.db.Model(&model.VerificationToken{}).Pluck("token", &left).Error)
	assert.Equal(t, []string{"fresh"}, left)
}

func TestPurgeUnverified(t *testing.T) {
	e := newEnv(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	users := []model.User{
		{ID: "stale", Email: "stale@example.com", Username: "stale", Role: model.RoleMember, ExpiresAt: &past, Member: &model.MemberProfile{UserID: "stale"}},
		{ID: "pending", Email: "pending@example.com", Username: "pending", Role: model.RoleMember, ExpiresAt: &future},
		{ID: "verified", Email: "verified@example.com", Username: "verified", Role: model.RoleMember, Verified: true, ExpiresAt: &past},
		{ID: "supplier", Email: "supplier@example.com", Username: "supplier", Role: model.RoleSupplier, ExpiresAt: &past},
	}
	require.NoError(t, e.db.Create(&users).Error)
	require.NoError(t, e.db.Create(&model.VerificationToken{UserID: "stale", Token: "t", Purpose: model.PurposeEmailVerify}).Error)

	s, err := NewScheduler(e.db, ScheduleConfig{})
	require.NoError(t, err)
	require.NoError(t, s.PurgeUnverified(context.Background()))

	var ids []string
	require.NoError(t, e.db.Model(&model.User{}).Order("id").Pluck("id", &ids).Error)
	assert.Equal(t, []string{"pending", "supplier", "verified"}, ids)

	var n int64
	require.NoError(t, e.db.Model(&model.MemberProfile{}).Where("user_id = ?", "stale").Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, e.db.Model(&model.VerificationToken{}).Where("user_id = ?", "stale").Count(&n).Error)
	assert.Zero(t, n)

	// nothing left to do is not an error
	require.NoError(t, s.PurgeUnverified(context.Background()))
}

func TestReconcileCounters(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	require.NoError(t, f.library.Like(ctx, f.member, model.KindBeat, f.ref()))
	_, err := f.library.Download(ctx, f.member, model.KindBeat, f.ref(), false)
	require.NoError(t, err)

	// drift both counters away from the join rows
	require.NoError(t, f.db.Model(&model.AudioFile{}).Where("id = ?", f.fileID).UpdateColumns(map[string]any{"likes_count": 7, "downloads_count": 0}).Error)
	require.NoError(t, f.db.Model(&model.ContentItem{}).Where("id = ?", f.sub.ContentID).UpdateColumn("downloads_count", 42).Error)

	s, err := NewScheduler(f.db, ScheduleConfig{})
	require.NoError(t, err)
	require.NoError(t, s.ReconcileCounters(ctx))

	af := f.file(t)
	assert.Equal(t, 1, af.LikesCount)
	assert.Equal(t, 1, af.DownloadsCount)

	var item model.ContentItem
	require.NoError(t, f.db.First(&item, f.sub.ContentID).Error)
	assert.Equal(t, 1, item.DownloadsCount)

	var demo model.AudioFile
	require.NoError(t, f.db.First(&demo, *item.DemoFileID).Error)
	assert.Zero(t, demo.LikesCount)
}
