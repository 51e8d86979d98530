package model

import (
	"sort"
	"strings"
	"time"
)

type Message struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	SenderID       string    `json:"sender_id" bson:"sender_id"`
	ReceiverID     string    `json:"receiver_id" bson:"receiver_id"`
	Body           string    `json:"message" bson:"message"`
	Read           bool      `json:"read" bson:"read"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

type MessageRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

type Conversation struct {
	ConversationID string       `json:"conversation_id"`
	OtherUser      *UserSummary `json:"other_user,omitempty"`
	LastMessage    *Message     `json:"last_message"`
	UnreadCount    int64        `json:"unread_count"`
}

// ConversationID is symmetric in its arguments: both participants derive the
// same id.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
