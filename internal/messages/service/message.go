package service

import (
	"context"
	"errors"
	"strings"

	"fixify/internal/messages/repository"
	"fixify/internal/notifications/templates"
	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"

	"github.com/go-playground/validator/v10"
)

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type Notifier interface {
	Dispatch(ns ...*model.Notification)
}

type MessageService interface {
	Conversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	Thread(ctx context.Context, userID, otherUserID string) ([]*model.Message, error)
	Send(ctx context.Context, senderID, receiverID string, req *model.MessageRequest) (*model.Message, error)
}

type messageService struct {
	repo     repository.MessageRepository
	users    UserDirectory
	notifier Notifier
	validate *validator.Validate
	cfg      *config.Config
}

func NewMessageService(repo repository.MessageRepository, users UserDirectory, notifier Notifier, cfg *config.Config) MessageService {
	return &messageService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *messageService) Conversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	summaries, err := s.repo.Conversations(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list conversations", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve conversations", err)
	}

	others := make([]string, 0, len(summaries))
	for _, c := range summaries {
		others = append(others, otherParty(c.LastMessage, userID))
	}
	users, err := s.users.FindByIDs(ctx, others)
	if err != nil {
		s.cfg.Log.Warn("Failed to expand conversation participants", "user_id", userID, "error", err)
		users = map[string]*model.User{}
	}

	conversations := make([]*model.Conversation, 0, len(summaries))
	for _, c := range summaries {
		conversations = append(conversations, &model.Conversation{
			ConversationID: c.ConversationID,
			OtherUser:      users[otherParty(c.LastMessage, userID)].Summary(),
			LastMessage:    c.LastMessage,
			UnreadCount:    c.UnreadCount,
		})
	}
	return conversations, nil
}

// Thread returns the conversation oldest first and marks what the caller
// received as read. The returned messages reflect the state before marking.
func (s *messageService) Thread(ctx context.Context, userID, otherUserID string) ([]*model.Message, error) {
	conversationID := model.ConversationID(userID, otherUserID)

	messages, err := s.repo.FindThread(ctx, conversationID)
	if err != nil {
		s.cfg.Log.Error("Failed to load conversation", "conversation_id", conversationID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve messages", err)
	}

	if n, err := s.repo.MarkThreadRead(ctx, conversationID, userID); err != nil {
		s.cfg.Log.Warn("Failed to mark conversation read", "conversation_id", conversationID, "error", err)
	} else if n > 0 {
		s.cfg.Log.Debug("Marked messages read", "conversation_id", conversationID, "count", n)
	}

	return messages, nil
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID string, req *model.MessageRequest) (*model.Message, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, apperrors.InvalidInput("Message cannot be empty")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("Message validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if senderID == receiverID {
		return nil, apperrors.InvalidInput("Cannot send a message to yourself")
	}

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to send message", err)
	}

	msg := &model.Message{
		ConversationID: model.ConversationID(senderID, receiverID),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           req.Message,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to store message", "conversation_id", msg.ConversationID, "error", err)
		return nil, apperrors.Internal("Failed to send message", err)
	}

	s.notifier.Dispatch(templates.NewMessage(senderID, receiverID, s.senderName(ctx, senderID))...)
	return msg, nil
}

func (s *messageService) senderName(ctx context.Context, senderID string) string {
	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve sender name", "sender_id", senderID, "error", err)
		return "Someone"
	}
	return sender.Name
}

func otherParty(m *model.Message, userID string) string {
	if m == nil {
		return ""
	}
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
