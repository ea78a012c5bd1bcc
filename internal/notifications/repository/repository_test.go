package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

var prefColumns = []string{
	"user_id", "email_task_assigned", "email_task_completed", "email_status_changed",
	"email_comments", "email_due_reminders", "in_app_enabled", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPreferenceRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing row", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPreferenceRepository(db)
		now := time.Now()

		mock.ExpectQuery(`SELECT user_id, email_task_assigned`).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(prefColumns).AddRow("u1", false, true, true, true, true, true, now, now))

		p, err := repo.GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, p.EmailTaskAssigned)
		assert.True(t, p.EmailComments)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first use inserts defaults then reads", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPreferenceRepository(db)
		now := time.Now()

		mock.ExpectQuery(`SELECT user_id, email_task_assigned`).WithArgs("u2").WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(`INSERT INTO notification_preferences .* ON CONFLICT \(user_id\) DO NOTHING`).
			WithArgs("u2", true, true, true, true, true, true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT user_id, email_task_assigned`).WithArgs("u2").
			WillReturnRows(sqlmock.NewRows(prefColumns).AddRow("u2", true, true, true, true, true, true, now, now))

		p, err := repo.GetOrCreate(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, "u2", p.UserID)
		assert.True(t, p.EmailDueReminders)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost insert race still reads the winner", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPreferenceRepository(db)
		now := time.Now()

		mock.ExpectQuery(`SELECT user_id`).WithArgs("u3").WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(`INSERT INTO notification_preferences`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT user_id`).WithArgs("u3").
			WillReturnRows(sqlmock.NewRows(prefColumns).AddRow("u3", true, false, true, true, true, true, now, now))

		p, err := repo.GetOrCreate(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, p.EmailTaskCompleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPreferenceRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPreferenceRepository(db)

	p := domain.DefaultPreferences("u1")
	p.EmailComments = false

	mock.ExpectQuery(`UPDATE notification_preferences`).
		WithArgs("u1", true, true, true, false, true, true).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Update(context.Background(), &p))
	assert.False(t, p.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_InsertLog(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(`INSERT INTO notification_logs`).
		WithArgs(sqlmock.AnyArg(), "u1", "task_assigned", "task-1", "", domain.LogStatusSkipped, "", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	e := &domain.LogEntry{RecipientUserID: "u1", Type: domain.TypeTaskAssigned, TaskID: "task-1", Status: domain.LogStatusSkipped}
	require.NoError(t, repo.InsertLog(context.Background(), e))
	assert.NotEmpty(t, e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_InApp(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(sqlmock.AnyArg(), "u1", "task_comment", "New comment", "msg", "task-1", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	n := &domain.InAppNotification{UserID: "u1", Type: domain.TypeTaskComment, Title: "New comment", Message: "msg", TaskID: "task-1"}
	require.NoError(t, repo.InsertInApp(ctx, n))

	mock.ExpectQuery(`SELECT id, user_id, type, title, message`).
		WithArgs("u1", true, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "title", "message", "task_id", "project_id", "read", "created_at"}).
			AddRow("n1", "u1", "task_comment", "New comment", "msg", "task-1", "", false, time.Now()))

	items, err := repo.ListInApp(ctx, "u1", true, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.TypeTaskComment, items[0].Type)

	mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id`).WithArgs("n1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(ctx, "u1", "n1"))

	mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id`).WithArgs("nope", "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkRead(ctx, "u1", "nope"), domain.ErrNotificationMissing)

	mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE user_id`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
	n3, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n3)

	require.NoError(t, mock.ExpectationsWereMet())
}
