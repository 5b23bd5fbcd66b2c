package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FitPulse_V0.1/internal/database"
)

func TestChatSendPersistsBothTurns(t *testing.T) {
	store := &fakeTurnStore{}
	model := &scriptedText{replies: []string{"Drink water after training."}}
	chat := NewChat(store, model, nil, quickInvoker())

	reply, err := chat.Send(context.Background(), "owner-1", "What should I drink?")
	require.NoError(t, err)
	assert.Equal(t, "Drink water after training.", reply)

	require.Len(t, store.turns, 2)
	assert.Equal(t, database.RoleUser, store.turns[0].Role)
	assert.Equal(t, "What should I drink?", store.turns[0].Text)
	assert.Equal(t, database.RoleAssistant, store.turns[1].Role)
	assert.Equal(t, reply, store.turns[1].Text)
}

func TestChatSendWindowsHistoryAndMapsRoles(t *testing.T) {
	store := &fakeTurnStore{}
	for i := 0; i < 11; i++ {
		role := database.RoleUser
		if i%2 == 1 {
			role = database.RoleAssistant
		}
		_, err := store.AppendTurn(context.Background(), database.ConversationTurn{
			OwnerID: "owner-1",
			Role:    role,
			Text:    fmt.Sprintf("old-%d", i),
		})
		require.NoError(t, err)
	}

	model := &scriptedText{replies: []string{"ok"}}
	chat := NewChat(store, model, nil, quickInvoker())

	_, err := chat.Send(context.Background(), "owner-1", "newest question")
	require.NoError(t, err)

	require.Len(t, model.histories, 1)
	window := model.histories[0]

	// 11 prior turns plus the just-appended user turn make 12; the newest is
	// carried as the message, so the window is old-1 through old-10.
	require.Len(t, window, 10)
	assert.Equal(t, "old-1", window[0].Text)
	assert.Equal(t, "model", window[0].Role)
	assert.Equal(t, "old-10", window[9].Text)
	assert.Equal(t, "newest question", model.messages[0])
}

func TestChatSendGenerationFailureLeavesUserTurn(t *testing.T) {
	store := &fakeTurnStore{}
	model := &scriptedText{errs: []error{errors.New("candidate was blocked due to SAFETY")}}
	chat := NewChat(store, model, nil, quickInvoker())

	_, err := chat.Send(context.Background(), "owner-1", "something off-topic")
	require.Error(t, err)

	// The user turn was written before the model call and stays; the client
	// retries by re-sending.
	require.Len(t, store.turns, 1)
	assert.Equal(t, database.RoleUser, store.turns[0].Role)
}

func TestChatSendUsesFallbackWhenPrimaryBusy(t *testing.T) {
	store := &fakeTurnStore{}
	primary := &scriptedText{errs: []error{errors.New("API returned non-200 status: 503 Service Unavailable, Body: The model is overloaded.")}}
	fallback := &scriptedText{replies: []string{"from the bigger model"}}
	chat := NewChat(store, primary, fallback, quickInvoker())

	reply, err := chat.Send(context.Background(), "owner-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "from the bigger model", reply)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestChatHistoryAndClear(t *testing.T) {
	store := &fakeTurnStore{}
	chat := NewChat(store, &scriptedText{replies: []string{"hi", "hi again"}}, nil, quickInvoker())

	_, err := chat.Send(context.Background(), "owner-1", "hello")
	require.NoError(t, err)
	_, err = chat.Send(context.Background(), "owner-2", "hello from someone else")
	require.NoError(t, err)

	history, err := chat.History(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	require.NoError(t, chat.Clear(context.Background(), "owner-1"))

	history, err = chat.History(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Other owners' conversations are untouched.
	other, err := chat.History(context.Background(), "owner-2")
	require.NoError(t, err)
	assert.Len(t, other, 2)
}
