package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/social/domain"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

var postCols = []string{"id", "user_id", "platform", "content", "hashtags", "scheduled_for", "status", "published_at", "created_at", "updated_at"}

func TestCreatePost(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	now := time.Now()
	when := now.Add(time.Hour)
	mock.ExpectQuery(`INSERT INTO social_posts`).
		WithArgs(sqlmock.AnyArg(), "user-1", "linkedin", "Hello", `{"b2b","growth"}`, when, "scheduled", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &domain.Post{UserID: "user-1", Platform: "linkedin", Content: "Hello", Hashtags: []string{"b2b", "growth"},
		ScheduledFor: &when, Status: domain.StatusScheduled}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPosts_ScansHashtags(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM social_posts WHERE user_id = \$1 AND \(\$2 = '' OR status = \$2\)`).
		WithArgs("user-1", "").
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p-1", "user-1", "twitter", "Launch", "{b2b,saas}", now, "scheduled", nil, now, now).
			AddRow("p-2", "user-1", "facebook", "Draft", nil, nil, "draft", nil, now, now))

	posts, err := repo.List(context.Background(), "user-1", "")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, []string{"b2b", "saas"}, posts[0].Hashtags)
	require.NotNil(t, posts[0].ScheduledFor)
	assert.Equal(t, []string{}, posts[1].Hashtags)
	assert.Nil(t, posts[1].ScheduledFor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPost_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	mock.ExpectQuery(`FROM social_posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs("p-9", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "user-1", "p-9")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_PublishedRowIsFinal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	mock.ExpectQuery(`UPDATE social_posts SET status = \$1`).
		WithArgs("draft", nil, nil, "p-1", "user-1", "published").
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateStatus(context.Background(), &domain.Post{ID: "p-1", UserID: "user-1", Status: domain.StatusDraft})
	assert.ErrorIs(t, err, domain.ErrTransitionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePost(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	mock.ExpectExec(`DELETE FROM social_posts`).WithArgs("p-1", "user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM social_posts`).WithArgs("p-2", "user-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "p-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "user-1", "p-2"), domain.ErrPostNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishDue(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostRepository(db)

	now := time.Now()
	mock.ExpectExec(`UPDATE social_posts SET status = \$1, published_at = \$2, updated_at = NOW\(\) WHERE status = \$3 AND scheduled_for <= \$2`).
		WithArgs("published", now, "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.PublishDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
