package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	apperrors "shopchat/backend/internal/errors"
	"shopchat/backend/internal/extract"
	"shopchat/backend/internal/llm"
	"shopchat/backend/internal/model"
	"shopchat/backend/internal/repository"
)

// apologyMessage is the terminal fallback shown when both the stream and the
// non-streaming retry fail. The exchange is still persisted.
const apologyMessage = "Xin lỗi, tôi đang gặp sự cố kết nối. Vui lòng thử lại sau."

// ChatService runs the send pipeline: append the user message, stream the
// assistant reply with fallback, extract entities and persist the snapshot.
type ChatService struct {
	repo         repository.ConversationRepository
	llm          llm.Provider
	defaultModel string

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewChatService(repo repository.ConversationRepository, provider llm.Provider, defaultModel string) *ChatService {
	return &ChatService{
		repo:         repo,
		llm:          provider,
		defaultModel: defaultModel,
		inflight:     make(map[string]struct{}),
	}
}

// streamResult carries the stream goroutine's resolution.
type streamResult struct {
	final string
	err   error
}

// Send processes one user message and resolves the assistant's reply. Growing
// totals are published on deltas while the stream is live; deltas is closed
// before Send returns on every path. The returned message is the finalized
// assistant reply.
//
// A user has at most one send in flight; a concurrent send fails with
// ErrConflict without touching the conversation.
func (s *ChatService) Send(ctx context.Context, userID, text, modelName string, deltas chan<- llm.StreamDelta) (*model.Message, error) {
	if !s.acquire(userID) {
		close(deltas)
		return nil, fmt.Errorf("send already in flight for user %s: %w", userID, apperrors.ErrConflict)
	}
	defer s.release(userID)
	defer close(deltas)

	conv, err := s.repo.Load(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		conv = model.NewConversation(sessionID(userID))
	} else if err != nil {
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}

	conv.AppendUser(text)
	if _, err := conv.AppendAssistantPlaceholder(); err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = s.defaultModel
	}
	req := &llm.ChatRequest{
		Message:   text,
		Model:     modelName,
		SessionID: conv.ID,
		UserID:    userID,
	}

	final, products, orders := s.resolve(ctx, req, conv, deltas)
	if err := conv.FinalizeTrailingAssistant(final, products, orders); err != nil {
		return nil, err
	}

	// The snapshot is persisted even when the client has gone away; a
	// disconnect must not lose the exchange.
	if err := s.repo.Save(context.WithoutCancel(ctx), userID, conv); err != nil {
		return nil, fmt.Errorf("could not save conversation: %w", err)
	}
	return conv.Trailing(), nil
}

// resolve runs the stream-then-fallback chain and returns the final assistant
// text with its extracted entities. At most two upstream attempts are made.
func (s *ChatService) resolve(ctx context.Context, req *llm.ChatRequest, conv *model.Conversation, deltas chan<- llm.StreamDelta) (string, []model.Product, []model.Order) {
	inner := make(chan llm.StreamDelta)
	resCh := make(chan streamResult, 1)
	go func() {
		final, err := s.llm.Stream(ctx, req, inner)
		resCh <- streamResult{final: final, err: err}
	}()

	for d := range inner {
		// The trailing placeholder mirrors the accumulated total so a
		// crash mid-stream still leaves a coherent conversation.
		_ = conv.UpdateTrailingAssistant(d.Content)
		select {
		case deltas <- d:
		case <-ctx.Done():
			// Keep draining inner so the stream goroutine can exit.
		}
	}
	res := <-resCh

	if res.err == nil {
		products, orders, clean := extract.Extract(res.final)
		return clean, products, orders
	}

	if ctx.Err() != nil {
		// The client cancelled; keep whatever streamed so far instead of
		// retrying on a dead connection.
		products, orders, clean := extract.Extract(conv.Trailing().Content)
		return clean, products, orders
	}

	slog.Warn("stream failed, trying non-streaming fallback", "user_id", req.UserID, "error", res.err)

	fb, err := s.llm.Complete(ctx, req)
	if err != nil {
		slog.Error("fallback request failed, serving apology", "user_id", req.UserID, "error", err)
		return apologyMessage, nil, nil
	}
	if len(fb.Products) > 0 {
		// The fallback ships structured products itself; its text needs no
		// extraction pass.
		return fb.Response, fb.Products, nil
	}
	products, orders, clean := extract.Extract(fb.Response)
	return clean, products, orders
}

// GetConversation returns the user's stored conversation.
func (s *ChatService) GetConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	conv, err := s.repo.Load(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("conversation for user %s: %w", userID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}
	return conv, nil
}

// ClearConversation drops the user's history. Clearing a user who never
// chatted succeeds.
func (s *ChatService) ClearConversation(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("could not clear conversation: %w", err)
	}
	return nil
}

func (s *ChatService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return false
	}
	s.inflight[userID] = struct{}{}
	return true
}

func (s *ChatService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID)
}

// sessionID derives the upstream session identity from the user identity, so
// the model service keeps separate RAG memory per user.
func sessionID(userID string) string {
	return "user_" + userID + "_session"
}
