package interfaces

import (
	"context"

	"shopchat/backend/internal/llm"
	"shopchat/backend/internal/model"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows
// for decoupling (e.g., API layer from Service layer) and easier testing via
// mocking.

// ChatService defines the contract for chat-related business logic.
type ChatService interface {
	// Send processes one user message, publishing growing totals on deltas
	// until the assistant reply resolves. deltas is closed on every path.
	Send(ctx context.Context, userID, text, modelName string, deltas chan<- llm.StreamDelta) (*model.Message, error)

	GetConversation(ctx context.Context, userID string) (*model.Conversation, error)
	ClearConversation(ctx context.Context, userID string) error
}
