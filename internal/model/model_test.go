package model_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopchat/backend/internal/model"
)

func TestConversation_FirstMessageTitles(t *testing.T) {
	conv := model.NewConversation("user_42_session")
	assert.Equal(t, "Cuộc hội thoại của bạn", conv.Title)

	conv.AppendUser("Tôi muốn mua laptop")
	assert.Equal(t, "Tôi muốn mua laptop", conv.Title)

	// Later messages never retitle.
	conv.AppendUser("Còn chuột thì sao?")
	assert.Equal(t, "Tôi muốn mua laptop", conv.Title)
}

func TestConversation_TitleTruncatesOnRunes(t *testing.T) {
	conv := model.NewConversation("user_42_session")
	long := strings.Repeat("ậ", 40)
	conv.AppendUser(long)

	assert.Equal(t, strings.Repeat("ậ", 30)+"...", conv.Title)
}

func TestConversation_PlaceholderLifecycle(t *testing.T) {
	conv := model.NewConversation("user_42_session")
	conv.AppendUser("hi")

	msg, err := conv.AppendAssistantPlaceholder()
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Empty(t, msg.Content)

	// Only one placeholder may stream at a time.
	_, err = conv.AppendAssistantPlaceholder()
	assert.ErrorIs(t, err, model.ErrPlaceholderPending)

	require.NoError(t, conv.UpdateTrailingAssistant("Hello"))
	require.NoError(t, conv.UpdateTrailingAssistant("Hello world"))
	assert.Equal(t, "Hello world", conv.Trailing().Content)

	products := []model.Product{{ID: 7, Name: "Acer Aspire 5"}}
	require.NoError(t, conv.FinalizeTrailingAssistant("Hello world", products, nil))

	// Finalized messages are immutable.
	assert.ErrorIs(t, conv.UpdateTrailingAssistant("more"), model.ErrNoPlaceholder)
	assert.Equal(t, products, conv.Trailing().Products)
}

func TestConversation_UpdateWithoutPlaceholder(t *testing.T) {
	conv := model.NewConversation("user_42_session")
	conv.AppendUser("hi")

	assert.ErrorIs(t, conv.UpdateTrailingAssistant("x"), model.ErrNoPlaceholder)
}

func TestConversation_Clear(t *testing.T) {
	conv := model.NewConversation("user_42_session")
	conv.AppendUser("Tôi muốn mua laptop")
	_, err := conv.AppendAssistantPlaceholder()
	require.NoError(t, err)

	conv.Clear()

	assert.Empty(t, conv.Messages)
	assert.Equal(t, "Cuộc hội thoại của bạn", conv.Title)

	// A cleared conversation accepts a fresh exchange.
	conv.AppendUser("Xin chào")
	_, err = conv.AppendAssistantPlaceholder()
	assert.NoError(t, err)
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	var p struct {
		Price model.Price `json:"price"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"price":"18.990.000 VND"}`), &p))
	assert.Equal(t, "18.990.000 VND", string(p.Price))

	require.NoError(t, json.Unmarshal([]byte(`{"price":18990000}`), &p))
	assert.Equal(t, "18990000", string(p.Price))
}

func TestProduct_Key(t *testing.T) {
	byID := model.Product{ID: 7, ImageURL: "https://cdn.shop.vn/a.jpg"}
	byURL := model.Product{ImageURL: "https://cdn.shop.vn/a.jpg"}

	assert.Equal(t, "id:7", byID.Key())
	assert.Equal(t, "url:https://cdn.shop.vn/a.jpg", byURL.Key())
}
