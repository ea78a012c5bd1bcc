package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

const (
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusDraft     = "draft"
)

const MaxHashtags = 30

// contentLimits is the maximum post length per platform, in characters.
var contentLimits = map[string]int{
	PlatformLinkedIn:  3000,
	PlatformTwitter:   280,
	PlatformFacebook:  63206,
	PlatformInstagram: 2200,
}

func ValidPlatform(p string) bool {
	_, ok := contentLimits[p]
	return ok
}

func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusPublished, StatusDraft:
		return true
	}
	return false
}

type Post struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     string     `json:"platform"`
	Content      string     `json:"content"`
	Hashtags     []string   `json:"hashtags"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Status       string     `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate normalises p for storage. An empty status means scheduled when a time is
// given and draft otherwise.
func (p *Post) Validate(now time.Time) error {
	p.Platform = strings.ToLower(strings.TrimSpace(p.Platform))
	if !ValidPlatform(p.Platform) {
		return fmt.Errorf("%w: %q", ErrInvalidPlatform, p.Platform)
	}

	p.Content = strings.TrimSpace(p.Content)
	if p.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidPost)
	}
	if n, limit := utf8.RuneCountInString(p.Content), contentLimits[p.Platform]; n > limit {
		return fmt.Errorf("%w: %s posts are limited to %d characters, got %d", ErrInvalidPost, p.Platform, limit, n)
	}

	tags, err := NormalizeHashtags(p.Hashtags)
	if err != nil {
		return err
	}
	p.Hashtags = tags

	if p.Status == "" {
		p.Status = StatusDraft
		if p.ScheduledFor != nil {
			p.Status = StatusScheduled
		}
	}
	return p.applyStatus(p.Status, now)
}

// applyStatus enforces the per-status field rules.
func (p *Post) applyStatus(status string, now time.Time) error {
	switch status {
	case StatusScheduled:
		if p.ScheduledFor == nil || !p.ScheduledFor.After(now) {
			return fmt.Errorf("%w: scheduled posts need a future scheduled_for", ErrInvalidPost)
		}
		p.PublishedAt = nil
	case StatusPublished:
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
	case StatusDraft:
		p.PublishedAt = nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	p.Status = status
	return nil
}

// Transition moves p to status. Published posts are final.
func (p *Post) Transition(status string, scheduledFor *time.Time, now time.Time) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if p.Status == StatusPublished && status != StatusPublished {
		return fmt.Errorf("%w: post is already published", ErrTransitionDenied)
	}
	if scheduledFor != nil {
		p.ScheduledFor = scheduledFor
	}
	return p.applyStatus(status, now)
}

// NormalizeHashtags strips leading '#', drops blanks and repeats (case-insensitive) and
// keeps the first spelling of each tag.
func NormalizeHashtags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimLeft(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, " \t\n#") {
			return nil, fmt.Errorf("%w: hashtag %q contains whitespace or '#'", ErrInvalidPost, t)
		}
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	if len(out) > MaxHashtags {
		return nil, fmt.Errorf("%w: at most %d hashtags", ErrInvalidPost, MaxHashtags)
	}
	return out, nil
}
