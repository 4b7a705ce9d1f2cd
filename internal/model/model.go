package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Price is a product price as extracted from text ("27.990.000 VND") or as
// delivered by the fallback API, which sends a bare number. Both decode into
// the same string form.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty price value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price is neither string nor number: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Product is a structured record recovered from assistant text, or supplied
// directly by the fallback API. Identity is ID when set, otherwise ImageURL.
type Product struct {
	ID           int    `json:"id,omitempty"`
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Price        Price  `json:"price,omitempty"`
	Description  string `json:"description,omitempty"`
	Stock        int    `json:"stock,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
}

// Key returns the dedupe identity of a product.
func (p Product) Key() string {
	if p.ID > 0 {
		return "id:" + strconv.Itoa(p.ID)
	}
	return "url:" + p.ImageURL
}

// Order is the display-facing view of an order recovered from assistant text.
// TotalAmount is in the smallest currency unit (đồng).
type Order struct {
	ID              int    `json:"id"`
	CustomerName    string `json:"customerName"`
	TotalAmount     int64  `json:"totalAmount"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	OrderItemsCount int    `json:"orderItemsCount"`
	ProductName     string `json:"productName,omitempty"`
}

// Message stores a single message in a conversation. Once a later message has
// been appended it is immutable; only the trailing assistant message mutates
// while a stream is live.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Products  []Product `json:"products,omitempty"`
	Orders    []Order   `json:"orders,omitempty"`
}

// Conversation is one user's ordered message history. Insertion order is the
// display order and is never reordered.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`

	// pending is true while an assistant placeholder awaits finalization.
	// It is never persisted: a send runs to completion before the
	// conversation is saved.
	pending bool
}

// ErrPlaceholderPending is returned when a second assistant placeholder is
// requested while one is still streaming.
var ErrPlaceholderPending = errors.New("model: assistant placeholder already pending")

// ErrNoPlaceholder is returned by trailing-message operations when no
// unfinalized assistant placeholder exists.
var ErrNoPlaceholder = errors.New("model: no pending assistant placeholder")

const (
	defaultTitle = "Cuộc hội thoại của bạn"
	titleLimit   = 30
)

// NewConversation creates an empty conversation for one user identity.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		ID:        sessionID,
		Title:     defaultTitle,
		CreatedAt: time.Now(),
	}
}

// AppendUser appends a user message. The first user message also titles the
// conversation.
func (c *Conversation) AppendUser(text string) *Message {
	if len(c.Messages) == 0 {
		c.Title = truncateTitle(text)
	}
	c.Messages = append(c.Messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	return &c.Messages[len(c.Messages)-1]
}

// AppendAssistantPlaceholder appends an empty assistant message that the
// stream fills in. At most one placeholder may be pending at a time.
func (c *Conversation) AppendAssistantPlaceholder() (*Message, error) {
	if c.pending {
		return nil, ErrPlaceholderPending
	}
	c.Messages = append(c.Messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	})
	c.pending = true
	return &c.Messages[len(c.Messages)-1], nil
}

// UpdateTrailingAssistant replaces the pending placeholder's content with the
// latest streamed total.
func (c *Conversation) UpdateTrailingAssistant(text string) error {
	last, err := c.trailingPlaceholder()
	if err != nil {
		return err
	}
	last.Content = text
	return nil
}

// FinalizeTrailingAssistant freezes the placeholder with its final content and
// any extracted entities. After this the message is immutable.
func (c *Conversation) FinalizeTrailingAssistant(text string, products []Product, orders []Order) error {
	last, err := c.trailingPlaceholder()
	if err != nil {
		return err
	}
	last.Content = text
	last.Products = products
	last.Orders = orders
	c.pending = false
	return nil
}

// Clear drops the full message history and resets the title.
func (c *Conversation) Clear() {
	c.Messages = nil
	c.Title = defaultTitle
	c.pending = false
}

// Trailing returns the last message, or nil for an empty conversation.
func (c *Conversation) Trailing() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

func (c *Conversation) trailingPlaceholder() (*Message, error) {
	last := c.Trailing()
	if !c.pending || last == nil || last.Role != RoleAssistant {
		return nil, ErrNoPlaceholder
	}
	return last, nil
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= titleLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:titleLimit]) + "..."
}
