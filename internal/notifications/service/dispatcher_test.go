package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/email"
	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

type memPrefs struct {
	mu   sync.Mutex
	rows map[string]*domain.Preferences
}

func newMemPrefs() *memPrefs { return &memPrefs{rows: map[string]*domain.Preferences{}} }

func (m *memPrefs) GetOrCreate(_ context.Context, userID string) (*domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[userID]; ok {
		cp := *p
		return &cp, nil
	}
	p := domain.DefaultPreferences(userID)
	m.rows[userID] = &p
	cp := p
	return &cp, nil
}

func (m *memPrefs) Update(_ context.Context, p *domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.UserID] = &cp
	return nil
}

type memStore struct {
	logs    []domain.LogEntry
	inApp   []domain.InAppNotification
	logErr  error
	inAppEr error
}

func (m *memStore) InsertLog(_ context.Context, e *domain.LogEntry) error {
	if m.logErr != nil {
		return m.logErr
	}
	e.ID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *e)
	return nil
}

func (m *memStore) InsertInApp(_ context.Context, n *domain.InAppNotification) error {
	if m.inAppEr != nil {
		return m.inAppEr
	}
	n.ID = fmt.Sprintf("n-%d", len(m.inApp)+1)
	m.inApp = append(m.inApp, *n)
	return nil
}

func (m *memStore) ListInApp(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.InAppNotification, error) {
	var out []domain.InAppNotification
	for _, n := range m.inApp {
		if n.UserID == userID && (!unreadOnly || !n.Read) && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, userID, id string) error {
	for i := range m.inApp {
		if m.inApp[i].ID == id && m.inApp[i].UserID == userID {
			m.inApp[i].Read = true
			return nil
		}
	}
	return domain.ErrNotificationMissing
}

func (m *memStore) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var n int64
	for i := range m.inApp {
		if m.inApp[i].UserID == userID && !m.inApp[i].Read {
			m.inApp[i].Read = true
			n++
		}
	}
	return n, nil
}

type staticLookup map[string]string

func (s staticLookup) EmailForUser(_ context.Context, userID string) (string, error) {
	if addr, ok := s[userID]; ok {
		return addr, nil
	}
	return "", errors.New("not found")
}

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "email-1", nil
}

type fakePublisher struct {
	published []domain.InAppNotification
}

func (f *fakePublisher) Publish(_ context.Context, n *domain.InAppNotification) error {
	f.published = append(f.published, *n)
	return nil
}

type fixture struct {
	prefs  *memPrefs
	store  *memStore
	mailer *fakeMailer
	pub    *fakePublisher
	d      *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := NewRenderer("https://app.example.com/")
	require.NoError(t, err)

	f := &fixture{
		prefs:  newMemPrefs(),
		store:  &memStore{},
		mailer: &fakeMailer{},
		pub:    &fakePublisher{},
	}
	f.d = NewDispatcher(f.prefs, f.store, staticLookup{"user-1": "ada@example.com"}, f.mailer, f.pub, r, "B2BNest <no-reply@example.com>")
	return f
}

func assignedEvent() domain.Event {
	return domain.Event{
		Type:            domain.TypeTaskAssigned,
		TaskID:          "task-1",
		TaskTitle:       "Prepare Q3 forecast",
		ProjectID:       "proj-1",
		ProjectName:     "Finance",
		RecipientUserID: "user-1",
		ActorName:       "Grace",
	}
}

func TestDispatch_SendsEmailAndInApp(t *testing.T) {
	f := newFixture(t)

	res, err := f.d.Dispatch(context.Background(), assignedEvent())
	require.NoError(t, err)

	assert.Equal(t, domain.LogStatusSent, res.Status)
	assert.Equal(t, "ada@example.com", res.Email)
	assert.Equal(t, "email-1", res.EmailID)
	assert.Equal(t, "n-1", res.NotificationID)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.To)
	assert.Equal(t, "New task assigned: Prepare Q3 forecast", msg.Subject)
	assert.Contains(t, msg.HTML, "https://app.example.com/projects/proj-1/tasks/task-1")

	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.LogStatusSent, f.store.logs[0].Status)
	assert.Equal(t, "email-1", f.store.logs[0].ProviderID)

	require.Len(t, f.pub.published, 1)
	assert.Equal(t, "user-1", f.pub.published[0].UserID)
}

func TestDispatch_DisabledFlagSkipsEmail(t *testing.T) {
	f := newFixture(t)
	off := false
	_, err := f.d.UpdatePreferences(context.Background(), "user-1", domain.PreferencesPatch{EmailTaskAssigned: &off})
	require.NoError(t, err)

	res, err := f.d.Dispatch(context.Background(), assignedEvent())
	require.NoError(t, err)

	assert.Equal(t, domain.LogStatusSkipped, res.Status)
	assert.Empty(t, f.mailer.sent)
	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.LogStatusSkipped, f.store.logs[0].Status)
	assert.Len(t, f.store.inApp, 1, "in-app notification is independent of the email flag")
}

func TestDispatch_DueRemindersShareOneFlag(t *testing.T) {
	f := newFixture(t)
	off := false
	_, err := f.d.UpdatePreferences(context.Background(), "user-1", domain.PreferencesPatch{EmailDueReminders: &off})
	require.NoError(t, err)

	for _, typ := range []domain.NotificationType{domain.TypeTaskDueSoon, domain.TypeTaskOverdue} {
		e := assignedEvent()
		e.Type = typ
		res, err := f.d.Dispatch(context.Background(), e)
		require.NoError(t, err)
		assert.Equal(t, domain.LogStatusSkipped, res.Status)
	}
	assert.Empty(t, f.mailer.sent)
}

func TestDispatch_InAppDisabled(t *testing.T) {
	f := newFixture(t)
	off := false
	_, err := f.d.UpdatePreferences(context.Background(), "user-1", domain.PreferencesPatch{InAppEnabled: &off})
	require.NoError(t, err)

	res, err := f.d.Dispatch(context.Background(), assignedEvent())
	require.NoError(t, err)
	assert.Empty(t, res.NotificationID)
	assert.Empty(t, f.store.inApp)
	assert.Empty(t, f.pub.published)
	assert.Len(t, f.mailer.sent, 1)
}

func TestDispatch_SendFailureWritesFailedRow(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("provider down")

	res, err := f.d.Dispatch(context.Background(), assignedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")

	assert.Equal(t, domain.LogStatusFailed, res.Status)
	assert.Len(t, f.mailer.sent, 1, "no retry")
	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.LogStatusFailed, f.store.logs[0].Status)
	assert.Contains(t, f.store.logs[0].Error, "provider down")
	assert.Len(t, f.store.inApp, 1)
}

func TestDispatch_NoEmail(t *testing.T) {
	f := newFixture(t)
	e := assignedEvent()
	e.RecipientUserID = "stranger"

	res, err := f.d.Dispatch(context.Background(), e)
	require.ErrorIs(t, err, domain.ErrRecipientNoEmail)
	assert.Equal(t, domain.LogStatusFailed, res.Status)
	assert.Empty(t, f.mailer.sent)
	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.LogStatusFailed, f.store.logs[0].Status)
}

func TestDispatch_LogWriteFailureAfterSendIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.store.logErr = errors.New("db down")

	res, err := f.d.Dispatch(context.Background(), assignedEvent())
	require.NoError(t, err)
	assert.Equal(t, domain.LogStatusSent, res.Status)
	assert.Len(t, f.mailer.sent, 1)
}

func TestDispatch_Validation(t *testing.T) {
	f := newFixture(t)

	e := assignedEvent()
	e.Type = "task_deleted"
	_, err := f.d.Dispatch(context.Background(), e)
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	e = assignedEvent()
	e.RecipientUserID = "  "
	_, err = f.d.Dispatch(context.Background(), e)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.store.logs)
}

func TestInAppListingAndMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.d.Dispatch(ctx, assignedEvent())
		require.NoError(t, err)
	}

	require.NoError(t, f.d.MarkRead(ctx, "user-1", "n-2"))
	assert.ErrorIs(t, f.d.MarkRead(ctx, "user-2", "n-1"), domain.ErrNotificationMissing)

	unread, err := f.d.ListInApp(ctx, "user-1", true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := f.d.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = f.d.ListInApp(ctx, "user-1", true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestResolver_FallsBack(t *testing.T) {
	r := Resolver{staticLookup{}, staticLookup{"user-1": "fallback@example.com"}}
	addr, err := r.EmailForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "fallback@example.com", addr)

	_, err = r.EmailForUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrRecipientNoEmail)
}

func TestRenderer_AllTypes(t *testing.T) {
	r, err := NewRenderer("https://app.example.com")
	require.NoError(t, err)

	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for _, typ := range domain.Types() {
		e := assignedEvent()
		e.Type = typ
		e.Comment = "<script>alert(1)</script>"
		e.OldStatus = "in_progress"
		e.NewStatus = "done"
		e.DueDate = &due

		subject, body, err := r.Render(e)
		require.NoError(t, err, typ)
		assert.Contains(t, subject, "Prepare Q3 forecast")
		assert.NotContains(t, body, "<script>")
		assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))

		title, message := InAppText(e)
		assert.NotEmpty(t, title)
		assert.NotEmpty(t, message)
	}

	_, _, err = r.Render(domain.Event{Type: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}
