package domain

import (
	"strings"
	"time"
)

type ConversationType string

const (
	TypeGeneral          ConversationType = "general"
	TypeBusinessPlanning ConversationType = "business_planning"
	TypeMarketing        ConversationType = "marketing"
	TypeFinance          ConversationType = "finance"
	TypeOperations       ConversationType = "operations"
)

var conversationTypes = []ConversationType{
	TypeGeneral,
	TypeBusinessPlanning,
	TypeMarketing,
	TypeFinance,
	TypeOperations,
}

func ConversationTypes() []ConversationType {
	out := make([]ConversationType, len(conversationTypes))
	copy(out, conversationTypes)
	return out
}

// ParseType maps an empty value to general and rejects anything outside the fixed set.
func ParseType(s string) (ConversationType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeGeneral, nil
	}
	for _, t := range conversationTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

// Advisory reports whether answers of this type produce a business insight.
func (t ConversationType) Advisory() bool {
	return t != TypeGeneral
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Transcript bounds.
const (
	MaxStoredMessages  = 50
	MaxHistoryMessages = 20
)

// Insight defaults.
const (
	InsightConfidence = 0.75
	InsightTTL        = 30 * 24 * time.Hour
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      ConversationType `json:"conversation_type"`
	Title     string           `json:"title"`
	Messages  []Message        `json:"messages"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Append adds msgs and keeps only the newest MaxStoredMessages.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
	if over := len(c.Messages) - MaxStoredMessages; over > 0 {
		kept := make([]Message, MaxStoredMessages)
		copy(kept, c.Messages[over:])
		c.Messages = kept
	}
}

// History returns the newest MaxHistoryMessages messages.
func (c *Conversation) History() []Message {
	if len(c.Messages) <= MaxHistoryMessages {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-MaxHistoryMessages:]
}

// ConversationSummary is the list view without the transcript.
type ConversationSummary struct {
	ID           string           `json:"id"`
	Type         ConversationType `json:"conversation_type"`
	Title        string           `json:"title"`
	MessageCount int              `json:"message_count"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type BusinessInsight struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	ConversationID string           `json:"conversation_id,omitempty"`
	InsightType    ConversationType `json:"insight_type"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Confidence     float64          `json:"confidence_score"`
	ExpiresAt      time.Time        `json:"expires_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

type ChatRequest struct {
	Message          string `json:"message"`
	ConversationType string `json:"conversationType"`
	Context          string `json:"context,omitempty"`
	ConversationID   string `json:"conversationId,omitempty"`
	UserIndustry     string `json:"userIndustry,omitempty"`
	BusinessStage    string `json:"businessStage,omitempty"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	InsightID      string `json:"insightId,omitempty"`
}
