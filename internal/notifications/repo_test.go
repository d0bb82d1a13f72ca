package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM notifications").Error)

	return db
}

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, title string, at time.Time) *models.Notification {
	t.Helper()
	row, err := repo.Create(context.Background(), &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   "isi notifikasi",
		CreatedAt: at,
	})
	require.NoError(t, err)
	return row
}

func TestListByUserNewestFirstAndScoped(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC()
	seedNotification(t, repo, userID, "lama", base.Add(-time.Hour))
	seedNotification(t, repo, userID, "baru", base)
	seedNotification(t, repo, uuid.New(), "milik orang lain", base)

	rows, err := repo.ListByUser(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "baru", rows[0].Title)
	assert.Equal(t, "lama", rows[1].Title)
}

func TestUnreadFilterAndCount(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	read := seedNotification(t, repo, userID, "sudah dibaca", time.Now().UTC())
	seedNotification(t, repo, userID, "belum dibaca", time.Now().UTC())

	affected, err := repo.MarkRead(ctx, userID, read.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, err := repo.ListByUser(ctx, userID, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "belum dibaca", rows[0].Title)

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadIsScopedAndIdempotent(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	row := seedNotification(t, repo, userID, "notifikasi", time.Now().UTC())

	affected, err := repo.MarkRead(ctx, uuid.New(), row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.MarkRead(ctx, userID, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.MarkRead(ctx, userID, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMarkAllReadReturnsAffectedCount(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	seedNotification(t, repo, userID, "satu", time.Now().UTC())
	seedNotification(t, repo, userID, "dua", time.Now().UTC())
	seedNotification(t, repo, uuid.New(), "lain", time.Now().UTC())

	affected, err := repo.MarkAllRead(ctx, userID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExistsChecksOwnership(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	row := seedNotification(t, repo, userID, "notifikasi", time.Now().UTC())

	found, err := repo.Exists(ctx, userID, row.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Exists(ctx, uuid.New(), row.ID)
	require.NoError(t, err)
	assert.False(t, found)
}
