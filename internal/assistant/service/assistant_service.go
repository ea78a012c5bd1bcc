package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/assistant/domain"
	"github.com/b2bnest/b2bnest-api/internal/assistant/llm"
	"github.com/b2bnest/b2bnest-api/internal/assistant/prompts"
	"github.com/b2bnest/b2bnest-api/internal/logging"
)

type Store interface {
	GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error)
	CreateConversation(ctx context.Context, c *domain.Conversation) error
	SaveMessages(ctx context.Context, c *domain.Conversation) error
	ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
	DeleteConversation(ctx context.Context, userID, id string) error
	InsertInsight(ctx context.Context, in *domain.BusinessInsight) error
	ListActiveInsights(ctx context.Context, userID string, now time.Time) ([]domain.BusinessInsight, error)
}

// maxSaveAttempts bounds the optimistic-concurrency retry when appending to a transcript.
const maxSaveAttempts = 5

const (
	titleMaxRunes        = 60
	insightTitleMaxRunes = 80
)

type AssistantService struct {
	store     Store
	completer llm.Completer
	prompts   *prompts.Set
	now       func() time.Time
}

func NewAssistantService(store Store, completer llm.Completer, set *prompts.Set) *AssistantService {
	if set == nil {
		set = prompts.Default()
	}
	return &AssistantService{
		store:     store,
		completer: completer,
		prompts:   set,
		now:       time.Now,
	}
}

// Chat answers req for userID and records the exchange in the conversation transcript.
func (s *AssistantService) Chat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	log := logging.NewLogger(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}
	typ, err := domain.ParseType(req.ConversationType)
	if err != nil {
		return nil, err
	}

	var conv *domain.Conversation
	if req.ConversationID != "" {
		conv, err = s.GetConversation(ctx, userID, req.ConversationID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.ConversationType) == "" {
			typ = conv.Type
		}
	}

	system := s.prompts.SystemPrompt(typ, prompts.UserContext{
		Industry:      req.UserIndustry,
		BusinessStage: req.BusinessStage,
		Notes:         req.Context,
	})

	var history []llm.Message
	if conv != nil {
		for _, m := range conv.History() {
			history = append(history, llm.Message{Role: m.Role, Content: m.Content})
		}
	}

	reply, err := s.completer.Complete(ctx, llm.Request{System: system, History: history, Message: message})
	if err != nil {
		log.LogError("assistant.complete", err, zap.String("conversation_type", string(typ)))
		return nil, fmt.Errorf("failed to get assistant reply: %w", err)
	}

	at := s.now().UTC()
	exchange := []domain.Message{
		{Role: domain.RoleUser, Content: message, Timestamp: at},
		{Role: domain.RoleAssistant, Content: reply, Timestamp: at},
	}

	var convID string
	if conv == nil {
		c := &domain.Conversation{
			UserID: userID,
			Type:   typ,
			Title:  truncate(message, titleMaxRunes),
		}
		c.Append(exchange...)
		if err := s.store.CreateConversation(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to store conversation: %w", err)
		}
		convID = c.ID
	} else {
		if err := s.appendExchange(ctx, userID, conv, exchange); err != nil {
			return nil, err
		}
		convID = conv.ID
	}

	resp := &domain.ChatResponse{Response: reply, ConversationID: convID}

	if typ.Advisory() {
		insight := &domain.BusinessInsight{
			UserID:         userID,
			ConversationID: convID,
			InsightType:    typ,
			Title:          truncate(message, insightTitleMaxRunes),
			Content:        reply,
			Confidence:     domain.InsightConfidence,
			ExpiresAt:      at.Add(domain.InsightTTL),
		}
		if err := s.store.InsertInsight(ctx, insight); err != nil {
			log.LogError("assistant.insight", err, zap.String("conversation_id", convID))
		} else {
			resp.InsightID = insight.ID
		}
	}

	return resp, nil
}

// appendExchange writes the exchange onto the latest stored transcript. On a version
// conflict it reloads and reapplies, so a concurrent append is kept.
func (s *AssistantService) appendExchange(ctx context.Context, userID string, conv *domain.Conversation, exchange []domain.Message) error {
	current := conv
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		current.Append(exchange...)
		err := s.store.SaveMessages(ctx, current)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return fmt.Errorf("failed to store conversation: %w", err)
		}

		logging.NewLogger(ctx).LogWarn("assistant.save", "transcript version conflict, retrying",
			zap.String("conversation_id", conv.ID), zap.Int("attempt", attempt))

		current, err = s.store.GetConversation(ctx, userID, conv.ID)
		if err != nil {
			return fmt.Errorf("failed to reload conversation: %w", err)
		}
	}
	return fmt.Errorf("failed to store conversation after %d attempts: %w", maxSaveAttempts, domain.ErrVersionConflict)
}

func (s *AssistantService) GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrConversationNotFound
	}
	return s.store.GetConversation(ctx, userID, id)
}

func (s *AssistantService) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	return s.store.ListConversations(ctx, userID)
}

func (s *AssistantService) DeleteConversation(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrConversationNotFound
	}
	return s.store.DeleteConversation(ctx, userID, id)
}

// ListInsights returns the user's unexpired insights.
func (s *AssistantService) ListInsights(ctx context.Context, userID string) ([]domain.BusinessInsight, error) {
	return s.store.ListActiveInsights(ctx, userID, s.now())
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
