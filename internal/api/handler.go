package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopchat/backend/internal/config"
	app_errors "shopchat/backend/internal/errors"
	"shopchat/backend/internal/interfaces"
	"shopchat/backend/internal/llm"
	"shopchat/backend/internal/model"
)

type ChatHandler struct {
	service interfaces.ChatService
	cfg     *config.Config
}

func NewChatHandler(svc interfaces.ChatService, cfg *config.Config) *ChatHandler {
	return &ChatHandler{service: svc, cfg: cfg}
}

// SendMessageRequest is the DTO for the streaming send endpoint.
type SendMessageRequest struct {
	UserID  string `json:"userId" validate:"required" example:"42"`
	Message string `json:"message" validate:"required,min=1,max=4000" example:"Tôi muốn mua laptop cho văn phòng"`
	Model   string `json:"model" example:"gemini-2.0-flash"`
}

// StreamChunk carries the accumulated assistant text after each upstream
// chunk. Content is the full text so far, not an increment; a client can
// render it directly without reassembly.
type StreamChunk struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamDone closes a successful stream with the finalized message, including
// any extracted products and orders.
type StreamDone struct {
	Type    string         `json:"type"`
	Message *model.Message `json:"message"`
}

// ConfigResponse is the client-facing view of the runtime configuration.
type ConfigResponse struct {
	DefaultModel     string `json:"defaultModel"`
	AllowModelChange bool   `json:"allowModelChange"`
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Sends one user message and streams the assistant reply over SSE. Each data event carries the accumulated text; the final event carries the full message with extracted entities.
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body  SendMessageRequest  true  "Message to send"
// @Success      200  {object}  StreamDone
// @Failure      400  {object}  ErrorResponse
// @Router       /chat/messages [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request body", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	modelName := req.Model
	if !h.cfg.AllowModelChange {
		// Model selection is locked down; the service falls back to the
		// configured default.
		modelName = ""
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	type sendResult struct {
		msg *model.Message
		err error
	}
	deltas := make(chan llm.StreamDelta, 16)
	resCh := make(chan sendResult, 1)
	go func() {
		msg, err := h.service.Send(r.Context(), req.UserID, req.Message, modelName, deltas)
		resCh <- sendResult{msg: msg, err: err}
	}()

	clientGone := false
	for d := range deltas {
		if clientGone || r.Context().Err() != nil {
			// Keep draining so the service can finish and persist.
			clientGone = true
			continue
		}
		if err := writeStreamEvent(w, StreamChunk{Type: "chunk", Content: d.Content}); err != nil {
			slog.Warn("Client disconnected mid-stream", "user_id", req.UserID, "error", err)
			clientGone = true
		}
	}

	res := <-resCh
	if clientGone {
		return
	}
	if res.err != nil {
		sendStreamError(w, streamErrorMessage(res.err))
		return
	}
	if err := writeStreamEvent(w, StreamDone{Type: "done", Message: res.msg}); err != nil {
		slog.Warn("Failed to deliver final stream event", "user_id", req.UserID, "error", err)
	}
}

// streamErrorMessage translates a send failure into the client-facing text
// used on an already-open SSE stream, where HTTP status codes are no longer
// available.
func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, app_errors.ErrConflict):
		return "Another message is already being processed for this user."
	default:
		return "An unexpected internal server error occurred."
	}
}

// GetConversation godoc
// @Summary      Get a user's conversation
// @Tags         chat
// @Produce      json
// @Param        userID  path  string  true  "User identifier"
// @Success      200  {object}  model.Conversation
// @Failure      404  {object}  ErrorResponse
// @Router       /chat/{userID}/conversation [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	conv, err := h.service.GetConversation(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conv)
}

// ClearConversation godoc
// @Summary      Clear a user's conversation
// @Tags         chat
// @Produce      json
// @Param        userID  path  string  true  "User identifier"
// @Success      200  {object}  StatusResponse
// @Router       /chat/{userID}/conversation [delete]
func (h *ChatHandler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.service.ClearConversation(r.Context(), userID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "cleared"})
}

// GetConfig godoc
// @Summary      Get client-facing configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  ConfigResponse
// @Router       /config [get]
func (h *ChatHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, ConfigResponse{
		DefaultModel:     h.cfg.DefaultModel,
		AllowModelChange: h.cfg.AllowModelChange,
	})
}
