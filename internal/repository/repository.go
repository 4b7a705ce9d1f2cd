package repository

import (
	"context"

	"shopchat/backend/internal/model"
)

// ConversationRepository persists one conversation per user identity.
// This interface makes it easy to switch database implementations, and lets
// the chat service be tested against a mock.
type ConversationRepository interface {
	// Load returns the user's conversation, or ErrNotFound when the user has
	// never chatted.
	Load(ctx context.Context, userID string) (*model.Conversation, error)

	// Save writes the full conversation snapshot, replacing whatever was
	// stored before.
	Save(ctx context.Context, userID string, conv *model.Conversation) error

	// Delete removes the user's conversation. Deleting an absent
	// conversation is not an error.
	Delete(ctx context.Context, userID string) error
}
