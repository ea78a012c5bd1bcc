package domain

import "time"

// NotificationType is the closed set of task notification kinds.
type NotificationType string

const (
	TypeTaskAssigned      NotificationType = "task_assigned"
	TypeTaskCompleted     NotificationType = "task_completed"
	TypeTaskStatusChanged NotificationType = "task_status_changed"
	TypeTaskComment       NotificationType = "task_comment"
	TypeTaskDueSoon       NotificationType = "task_due_soon"
	TypeTaskOverdue       NotificationType = "task_overdue"
)

var allTypes = []NotificationType{
	TypeTaskAssigned,
	TypeTaskCompleted,
	TypeTaskStatusChanged,
	TypeTaskComment,
	TypeTaskDueSoon,
	TypeTaskOverdue,
}

// Types returns every supported notification type.
func Types() []NotificationType {
	out := make([]NotificationType, len(allTypes))
	copy(out, allTypes)
	return out
}

func (t NotificationType) Valid() bool {
	for _, v := range allTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Event is one notification request.
type Event struct {
	Type            NotificationType `json:"notification_type"`
	TaskID          string           `json:"task_id"`
	TaskTitle       string           `json:"task_title"`
	TaskDescription string           `json:"task_description,omitempty"`
	ProjectID       string           `json:"project_id,omitempty"`
	ProjectName     string           `json:"project_name,omitempty"`
	RecipientUserID string           `json:"recipient_user_id"`
	ActorUserID     string           `json:"actor_user_id,omitempty"`
	ActorName       string           `json:"actor_name,omitempty"`
	Comment         string           `json:"comment,omitempty"`
	OldStatus       string           `json:"old_status,omitempty"`
	NewStatus       string           `json:"new_status,omitempty"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
}

// Preferences holds a user's notification switches. A missing row means everything on.
type Preferences struct {
	UserID             string    `json:"user_id"`
	EmailTaskAssigned  bool      `json:"email_task_assigned"`
	EmailTaskCompleted bool      `json:"email_task_completed"`
	EmailStatusChanged bool      `json:"email_status_changed"`
	EmailComments      bool      `json:"email_comments"`
	EmailDueReminders  bool      `json:"email_due_reminders"`
	InAppEnabled       bool      `json:"in_app_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:             userID,
		EmailTaskAssigned:  true,
		EmailTaskCompleted: true,
		EmailStatusChanged: true,
		EmailComments:      true,
		EmailDueReminders:  true,
		InAppEnabled:       true,
	}
}

// EmailEnabled reports the email switch governing t.
func (p Preferences) EmailEnabled(t NotificationType) bool {
	switch t {
	case TypeTaskAssigned:
		return p.EmailTaskAssigned
	case TypeTaskCompleted:
		return p.EmailTaskCompleted
	case TypeTaskStatusChanged:
		return p.EmailStatusChanged
	case TypeTaskComment:
		return p.EmailComments
	case TypeTaskDueSoon, TypeTaskOverdue:
		return p.EmailDueReminders
	}
	return false
}

// PreferencesPatch carries the switches a client wants to change.
type PreferencesPatch struct {
	EmailTaskAssigned  *bool `json:"email_task_assigned,omitempty"`
	EmailTaskCompleted *bool `json:"email_task_completed,omitempty"`
	EmailStatusChanged *bool `json:"email_status_changed,omitempty"`
	EmailComments      *bool `json:"email_comments,omitempty"`
	EmailDueReminders  *bool `json:"email_due_reminders,omitempty"`
	InAppEnabled       *bool `json:"in_app_enabled,omitempty"`
}

func (p *Preferences) Apply(patch PreferencesPatch) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.EmailTaskAssigned, patch.EmailTaskAssigned)
	set(&p.EmailTaskCompleted, patch.EmailTaskCompleted)
	set(&p.EmailStatusChanged, patch.EmailStatusChanged)
	set(&p.EmailComments, patch.EmailComments)
	set(&p.EmailDueReminders, patch.EmailDueReminders)
	set(&p.InAppEnabled, patch.InAppEnabled)
}

// Audit statuses written to notification_logs.
const (
	LogStatusSent    = "sent"
	LogStatusSkipped = "skipped"
	LogStatusFailed  = "failed"
)

// LogEntry is one audit row per dispatch.
type LogEntry struct {
	ID              string           `json:"id"`
	RecipientUserID string           `json:"recipient_user_id"`
	Type            NotificationType `json:"notification_type"`
	TaskID          string           `json:"task_id,omitempty"`
	Email           string           `json:"email,omitempty"`
	Status          string           `json:"status"`
	ProviderID      string           `json:"provider_id,omitempty"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// InAppNotification is the row shown in the notification bell.
type InAppNotification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	TaskID    string           `json:"task_id,omitempty"`
	ProjectID string           `json:"project_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// DispatchResult describes what one Dispatch call did.
type DispatchResult struct {
	Status         string `json:"status"`
	Email          string `json:"email,omitempty"`
	EmailID        string `json:"email_id,omitempty"`
	LogID          string `json:"log_id,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
}
