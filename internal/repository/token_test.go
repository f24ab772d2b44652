package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"planhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestTokenRepository_Redeem(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		mockBehavior func(mock sqlmock.Sqlmock)
		wantRedeemed bool
		wantErr      bool
	}{
		{
			name: "Consumes active token",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "download_tokens"`)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantRedeemed: true,
		},
		{
			name: "Guard fails when already used or expired",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "download_tokens"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			wantRedeemed: false,
		},
		{
			name: "Database error",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "download_tokens"`)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewTokenRepository(db)
			tt.mockBehavior(mock)

			redeemed, err := repo.Redeem(context.Background(), "tok-value", "203.0.113.10", now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRedeemed, redeemed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTokenRepository_IssueIfNoneActive(t *testing.T) {
	now := time.Now()
	expires := now.Add(2 * time.Hour)

	t.Run("Inserts when no active token", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO download_tokens`)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		inserted, err := repo.IssueIfNoneActive(context.Background(), 7, "fresh-token", expires, now)
		assert.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No-op when an active token exists", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewTokenRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO download_tokens`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.IssueIfNoneActive(context.Background(), 7, "fresh-token", expires, now)
		assert.NoError(t, err)
		assert.False(t, inserted)
	})
}

func TestTokenRepository_GetByValue_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "download_tokens"`)).
		WillReturnError(gorm.ErrRecordNotFound)

	token, err := repo.GetByValue(context.Background(), "unknown")
	assert.Nil(t, token)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
