package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

const layoutHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:24px 0;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;">
        <tr><td style="background:{{.Accent}};color:#ffffff;padding:20px 24px;border-radius:8px 8px 0 0;">
          <h1 style="margin:0;font-size:20px;">{{.Heading}}</h1>
        </td></tr>
        <tr><td style="padding:24px;color:#1f2933;font-size:14px;line-height:1.6;">
          {{template "content" .}}
          <p style="margin-top:24px;">
            <a href="{{.TaskURL}}" style="background:{{.Accent}};color:#ffffff;padding:10px 18px;border-radius:4px;text-decoration:none;">View task</a>
          </p>
        </td></tr>
        <tr><td style="padding:16px 24px;color:#7b8794;font-size:12px;border-top:1px solid #e4e7eb;">
          You are receiving this because notifications are enabled for your B2BNest account.
          Manage them in <a href="{{.SettingsURL}}">notification settings</a>.
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

type emailTemplate struct {
	subject string
	heading string
	accent  string
	content string
}

var emailTemplates = map[domain.NotificationType]emailTemplate{
	domain.TypeTaskAssigned: {
		subject: "New task assigned: %s",
		heading: "You have a new task",
		accent:  "#2563eb",
		content: `<p>{{.Actor}} assigned you a task{{if .ProjectName}} in <strong>{{.ProjectName}}</strong>{{end}}.</p>
<h2 style="font-size:16px;">{{.TaskTitle}}</h2>
{{if .TaskDescription}}<p>{{.TaskDescription}}</p>{{end}}
{{if .DueDate}}<p><strong>Due:</strong> {{.DueDate}}</p>{{end}}`,
	},
	domain.TypeTaskCompleted: {
		subject: "Task completed: %s",
		heading: "A task was completed",
		accent:  "#16a34a",
		content: `<p>{{.Actor}} marked <strong>{{.TaskTitle}}</strong> as completed{{if .ProjectName}} in {{.ProjectName}}{{end}}.</p>`,
	},
	domain.TypeTaskStatusChanged: {
		subject: "Task status updated: %s",
		heading: "Task status changed",
		accent:  "#7c3aed",
		content: `<p>{{.Actor}} changed the status of <strong>{{.TaskTitle}}</strong>.</p>
<p>{{if .OldStatus}}<span style="text-decoration:line-through;">{{.OldStatus}}</span> &rarr; {{end}}<strong>{{.NewStatus}}</strong></p>`,
	},
	domain.TypeTaskComment: {
		subject: "New comment on: %s",
		heading: "New comment",
		accent:  "#0891b2",
		content: `<p>{{.Actor}} commented on <strong>{{.TaskTitle}}</strong>:</p>
<blockquote style="border-left:3px solid #0891b2;margin:0;padding:8px 12px;background:#f0f9ff;">{{.Comment}}</blockquote>`,
	},
	domain.TypeTaskDueSoon: {
		subject: "Task due soon: %s",
		heading: "Task due soon",
		accent:  "#d97706",
		content: `<p><strong>{{.TaskTitle}}</strong> is due {{if .DueDate}}on {{.DueDate}}{{else}}soon{{end}}.</p>`,
	},
	domain.TypeTaskOverdue: {
		subject: "Task overdue: %s",
		heading: "Task overdue",
		accent:  "#dc2626",
		content: `<p><strong>{{.TaskTitle}}</strong> is past its due date{{if .DueDate}} ({{.DueDate}}){{end}}.</p>`,
	},
}

type templateData struct {
	Heading         string
	Accent          string
	Actor           string
	TaskTitle       string
	TaskDescription string
	ProjectName     string
	Comment         string
	OldStatus       string
	NewStatus       string
	DueDate         string
	TaskURL         string
	SettingsURL     string
}

// Renderer turns events into email subject and HTML body.
type Renderer struct {
	appURL    string
	templates map[domain.NotificationType]*template.Template
}

func NewRenderer(appURL string) (*Renderer, error) {
	r := &Renderer{
		appURL:    strings.TrimRight(appURL, "/"),
		templates: make(map[domain.NotificationType]*template.Template, len(emailTemplates)),
	}
	for typ, et := range emailTemplates {
		t, err := template.New(string(typ)).Parse(layoutHTML)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.New("content").Parse(et.content); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", typ, err)
		}
		r.templates[typ] = t
	}
	return r, nil
}

// Render returns the subject line and HTML body for e.
func (r *Renderer) Render(e domain.Event) (string, string, error) {
	et, ok := emailTemplates[e.Type]
	if !ok {
		return "", "", domain.ErrInvalidType
	}

	data := templateData{
		Heading:         et.heading,
		Accent:          et.accent,
		Actor:           actorName(e),
		TaskTitle:       e.TaskTitle,
		TaskDescription: e.TaskDescription,
		ProjectName:     e.ProjectName,
		Comment:         e.Comment,
		OldStatus:       humanizeStatus(e.OldStatus),
		NewStatus:       humanizeStatus(e.NewStatus),
		TaskURL:         r.taskURL(e),
		SettingsURL:     r.appURL + "/settings/notifications",
	}
	if e.DueDate != nil {
		data.DueDate = e.DueDate.Format("2 January 2006")
	}

	var buf bytes.Buffer
	if err := r.templates[e.Type].Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", e.Type, err)
	}

	return fmt.Sprintf(et.subject, e.TaskTitle), buf.String(), nil
}

func (r *Renderer) taskURL(e domain.Event) string {
	if e.ProjectID != "" {
		return fmt.Sprintf("%s/projects/%s/tasks/%s", r.appURL, e.ProjectID, e.TaskID)
	}
	return fmt.Sprintf("%s/tasks/%s", r.appURL, e.TaskID)
}

// InAppText returns the title and message of the in-app notification for e.
func InAppText(e domain.Event) (string, string) {
	actor := actorName(e)
	switch e.Type {
	case domain.TypeTaskAssigned:
		return "New task assigned", fmt.Sprintf("%s assigned you %q", actor, e.TaskTitle)
	case domain.TypeTaskCompleted:
		return "Task completed", fmt.Sprintf("%s completed %q", actor, e.TaskTitle)
	case domain.TypeTaskStatusChanged:
		return "Task status changed", fmt.Sprintf("%q moved to %s", e.TaskTitle, humanizeStatus(e.NewStatus))
	case domain.TypeTaskComment:
		return "New comment", fmt.Sprintf("%s commented on %q", actor, e.TaskTitle)
	case domain.TypeTaskDueSoon:
		return "Task due soon", dueText(e, "is due soon")
	case domain.TypeTaskOverdue:
		return "Task overdue", dueText(e, "is overdue")
	}
	return "Notification", e.TaskTitle
}

func dueText(e domain.Event, suffix string) string {
	if e.DueDate != nil {
		return fmt.Sprintf("%q %s (%s)", e.TaskTitle, suffix, e.DueDate.Format(time.DateOnly))
	}
	return fmt.Sprintf("%q %s", e.TaskTitle, suffix)
}

func actorName(e domain.Event) string {
	if strings.TrimSpace(e.ActorName) != "" {
		return e.ActorName
	}
	return "A teammate"
}

func humanizeStatus(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
