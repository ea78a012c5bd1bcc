package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/profiles/domain"
)

func setupProfileRepo(t *testing.T) (*ProfileRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProfileRepository(db), mock
}

func TestProfileRepository_GetByUserID(t *testing.T) {
	repo, mock := setupProfileRepo(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT user_id, COALESCE\(email, ''\)`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "display_name", "company", "plan", "created_at", "updated_at"}).
				AddRow("u1", "u1@example.com", "Una", nil, "pro", now, now))

		p, err := repo.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1@example.com", p.Email)
		require.NotNil(t, p.DisplayName)
		assert.Equal(t, "Una", *p.DisplayName)
		assert.Nil(t, p.Company)
		assert.Equal(t, domain.PlanPro, p.Plan)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUserID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileRepository_Upsert(t *testing.T) {
	repo, mock := setupProfileRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs("u1", "u1@example.com", nil, nil, domain.PlanFree).
		WillReturnRows(sqlmock.NewRows([]string{"email", "plan", "created_at", "updated_at"}).
			AddRow("u1@example.com", domain.PlanFree, now, now))

	p := &domain.Profile{UserID: "u1", Email: "u1@example.com"}
	require.NoError(t, repo.Upsert(context.Background(), p))
	assert.Equal(t, domain.PlanFree, p.Plan)
	assert.False(t, p.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_EmailForUser(t *testing.T) {
	repo, mock := setupProfileRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT email FROM profiles`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("u1@example.com"))
	email, err := repo.EmailForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", email)

	mock.ExpectQuery(`SELECT email FROM profiles`).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow(nil))
	_, err = repo.EmailForUser(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	mock.ExpectQuery(`SELECT email FROM profiles`).WithArgs("u3").WillReturnError(sql.ErrNoRows)
	_, err = repo.EmailForUser(ctx, "u3")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
