package repository

import (
	"context"
	"testing"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestProfileRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email", "ban_count"}).
			AddRow(1, "player1", "p1@example.com", 0)
		mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email =`).
			WithArgs("p1@example.com", 1).
			WillReturnRows(rows)

		profile, err := repo.GetByEmail(ctx, "p1@example.com")
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, uint(1), profile.ID)
		assert.Equal(t, "player1", profile.Username)
	})

	t.Run("Not found returns nil, nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email =`).
			WithArgs("missing@example.com", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		profile, err := repo.GetByEmail(ctx, "missing@example.com")
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByRiotID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "riot_id", "is_verified"}).
		AddRow(7, "Player#VN2", true)
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE riot_id =`).
		WithArgs("Player#VN2", 1).
		WillReturnRows(rows)

	profile, err := repo.GetByRiotID(context.Background(), "Player#VN2")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isUniqueConstraintError(assert.AnError))
	assert.True(t, isUniqueConstraintError(errDuplicate{}))
}

type errDuplicate struct{}

func (errDuplicate) Error() string {
	return `ERROR: duplicate key value violates unique constraint "profiles_email_key" (SQLSTATE 23505)`
}

func TestProfileModel_BanState(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("Permanent ban", func(t *testing.T) {
		p := models.Profile{BanCount: 2}
		assert.True(t, p.IsBanned(now))
		assert.False(t, p.BanExpired(now))
	})

	t.Run("Active temporary ban", func(t *testing.T) {
		until := now.Add(time.Hour)
		p := models.Profile{BanCount: 1, BannedUntil: &until}
		assert.True(t, p.IsBanned(now))
		assert.False(t, p.BanExpired(now))
	})

	t.Run("Expired temporary ban", func(t *testing.T) {
		until := now.Add(-time.Hour)
		p := models.Profile{BanCount: 1, BannedUntil: &until}
		assert.False(t, p.IsBanned(now))
		assert.True(t, p.BanExpired(now))
	})
}
