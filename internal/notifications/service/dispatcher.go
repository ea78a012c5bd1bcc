package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/email"
	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Preferences, error)
	Update(ctx context.Context, p *domain.Preferences) error
}

type NotificationStore interface {
	InsertLog(ctx context.Context, e *domain.LogEntry) error
	InsertInApp(ctx context.Context, n *domain.InAppNotification) error
	ListInApp(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.InAppNotification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// EmailLookup resolves a user's email address.
type EmailLookup interface {
	EmailForUser(ctx context.Context, userID string) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, n *domain.InAppNotification) error
}

// DefaultListLimit and MaxListLimit bound ListInApp.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Dispatcher turns task events into an email, an audit row and an in-app notification.
type Dispatcher struct {
	prefs     PreferenceStore
	store     NotificationStore
	emails    EmailLookup
	mailer    Mailer
	publisher Publisher
	renderer  *Renderer
	from      string
}

func NewDispatcher(
	prefs PreferenceStore,
	store NotificationStore,
	emails EmailLookup,
	mailer Mailer,
	publisher Publisher,
	renderer *Renderer,
	from string,
) *Dispatcher {
	return &Dispatcher{
		prefs:     prefs,
		store:     store,
		emails:    emails,
		mailer:    mailer,
		publisher: publisher,
		renderer:  renderer,
		from:      from,
	}
}

// Dispatch sends at most one email for e and records the outcome. The in-app
// notification is written whatever happened to the email.
func (d *Dispatcher) Dispatch(ctx context.Context, e domain.Event) (*domain.DispatchResult, error) {
	log := logging.NewLogger(ctx)

	if !e.Type.Valid() {
		return nil, domain.ErrInvalidType
	}
	e.RecipientUserID = strings.TrimSpace(e.RecipientUserID)
	if e.RecipientUserID == "" {
		return nil, fmt.Errorf("%w: recipient user id is required", domain.ErrInvalidEvent)
	}

	prefs, err := d.prefs.GetOrCreate(ctx, e.RecipientUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	result, sendErr := d.deliverEmail(ctx, log, e, prefs)

	if prefs.InAppEnabled {
		if id, err := d.notifyInApp(ctx, e); err != nil {
			log.LogError("notifications.in_app", err, zap.String("recipient", e.RecipientUserID))
		} else {
			result.NotificationID = id
		}
	}

	if sendErr != nil {
		return result, sendErr
	}
	return result, nil
}

func (d *Dispatcher) deliverEmail(ctx context.Context, log *logging.Logger, e domain.Event, prefs *domain.Preferences) (*domain.DispatchResult, error) {
	entry := &domain.LogEntry{
		RecipientUserID: e.RecipientUserID,
		Type:            e.Type,
		TaskID:          e.TaskID,
	}

	if !prefs.EmailEnabled(e.Type) {
		entry.Status = domain.LogStatusSkipped
		if err := d.store.InsertLog(ctx, entry); err != nil {
			return &domain.DispatchResult{Status: domain.LogStatusSkipped}, fmt.Errorf("failed to record skipped notification: %w", err)
		}
		log.LogInfo("notifications.dispatch", "email disabled by preferences",
			zap.String("recipient", e.RecipientUserID), zap.String("type", string(e.Type)))
		return &domain.DispatchResult{Status: domain.LogStatusSkipped, LogID: entry.ID}, nil
	}

	to, err := d.emails.EmailForUser(ctx, e.RecipientUserID)
	if err != nil || to == "" {
		cause := domain.ErrRecipientNoEmail
		if err != nil {
			log.LogWarn("notifications.dispatch", "email lookup failed", zap.Error(err))
		}
		return d.fail(ctx, log, entry, cause)
	}
	entry.Email = to

	subject, body, err := d.renderer.Render(e)
	if err != nil {
		return d.fail(ctx, log, entry, err)
	}

	providerID, err := d.mailer.Send(ctx, email.Message{
		From:    d.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return d.fail(ctx, log, entry, fmt.Errorf("failed to send email: %w", err))
	}

	entry.Status = domain.LogStatusSent
	entry.ProviderID = providerID
	if err := d.store.InsertLog(ctx, entry); err != nil {
		log.LogError("notifications.log", err, zap.String("email_id", providerID))
	}

	log.LogInfo("notifications.dispatch", "email sent",
		zap.String("recipient", e.RecipientUserID), zap.String("type", string(e.Type)), zap.String("email_id", providerID))

	return &domain.DispatchResult{
		Status:  domain.LogStatusSent,
		Email:   to,
		EmailID: providerID,
		LogID:   entry.ID,
	}, nil
}

func (d *Dispatcher) fail(ctx context.Context, log *logging.Logger, entry *domain.LogEntry, cause error) (*domain.DispatchResult, error) {
	entry.Status = domain.LogStatusFailed
	entry.Error = cause.Error()
	if err := d.store.InsertLog(ctx, entry); err != nil {
		log.LogError("notifications.log", err)
	}
	log.LogError("notifications.dispatch", cause, zap.String("recipient", entry.RecipientUserID))
	return &domain.DispatchResult{Status: domain.LogStatusFailed, Email: entry.Email, LogID: entry.ID}, cause
}

func (d *Dispatcher) notifyInApp(ctx context.Context, e domain.Event) (string, error) {
	title, message := InAppText(e)
	n := &domain.InAppNotification{
		UserID:    e.RecipientUserID,
		Type:      e.Type,
		Title:     title,
		Message:   message,
		TaskID:    e.TaskID,
		ProjectID: e.ProjectID,
	}
	if err := d.store.InsertInApp(ctx, n); err != nil {
		return "", err
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, n); err != nil {
			logging.NewLogger(ctx).LogWarn("notifications.publish", err.Error(), zap.String("notification_id", n.ID))
		}
	}
	return n.ID, nil
}

func (d *Dispatcher) Preferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	return d.prefs.GetOrCreate(ctx, userID)
}

func (d *Dispatcher) UpdatePreferences(ctx context.Context, userID string, patch domain.PreferencesPatch) (*domain.Preferences, error) {
	p, err := d.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Apply(patch)
	if err := d.prefs.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Dispatcher) ListInApp(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.InAppNotification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return d.store.ListInApp(ctx, userID, unreadOnly, limit)
}

func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) error {
	return d.store.MarkRead(ctx, userID, id)
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return d.store.MarkAllRead(ctx, userID)
}

// Resolver tries each lookup in order and returns the first email found.
type Resolver []EmailLookup

func (r Resolver) EmailForUser(ctx context.Context, userID string) (string, error) {
	var errs []error
	for _, l := range r {
		if l == nil {
			continue
		}
		addr, err := l.EmailForUser(ctx, userID)
		if err == nil && addr != "" {
			return addr, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", domain.ErrRecipientNoEmail
	}
	return "", fmt.Errorf("%w: %w", domain.ErrRecipientNoEmail, errors.Join(errs...))
}
