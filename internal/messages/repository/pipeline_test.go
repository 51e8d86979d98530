package repository

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestConversationsPipeline_ScopesToUser(t *testing.T) {
	p := conversationsPipeline("u1")
	if len(p) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(p))
	}

	match, ok := p[0][0].Value.(bson.M)
	if !ok || p[0][0].Key != "$match" {
		t.Fatalf("first stage must be $match, got %v", p[0][0].Key)
	}
	or, ok := match["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected sender/receiver $or, got %v", match)
	}
	if or[0].(bson.M)["sender_id"] != "u1" || or[1].(bson.M)["receiver_id"] != "u1" {
		t.Errorf("unexpected $or %v", or)
	}

	group := p[2][0].Value.(bson.M)
	if group["_id"] != "$conversation_id" {
		t.Errorf("expected grouping by conversation, got %v", group["_id"])
	}
}
