/*
Package assistant orchestrates the three AI use cases: chat, food photo
analysis and plan generation. Each call is a sequential chain of at most two
dependent external calls (retried model call, then persistence); no state is
held across invocations.
*/
package assistant

import (
	"context"

	"github.com/rs/zerolog/log"

	"FitPulse_V0.1/internal/database"
	"FitPulse_V0.1/internal/geminiservice"
)

// TextModel is the slice of the Gemini client chat needs. Kept small so
// tests can substitute a scripted model.
type TextModel interface {
	GenerateText(ctx context.Context, systemPrompt string, history []geminiservice.HistoryTurn, message string, cfg *geminiservice.GenerationConfig) (string, error)
	Model() string
}

// TurnStore is the conversation slice of the persistence gateway.
type TurnStore interface {
	ListTurns(ctx context.Context, ownerID string) ([]database.ConversationTurn, error)
	AppendTurn(ctx context.Context, turn database.ConversationTurn) (database.ConversationTurn, error)
	DeleteTurns(ctx context.Context, ownerID string) error
}

// Chat handles one owner's conversation with the assistant.
type Chat struct {
	turns    TurnStore
	model    TextModel
	fallback TextModel // may be nil
	invoker  *geminiservice.Invoker
}

func NewChat(turns TurnStore, model, fallback TextModel, invoker *geminiservice.Invoker) *Chat {
	return &Chat{turns: turns, model: model, fallback: fallback, invoker: invoker}
}

// Send persists the user's message, generates the assistant's reply with the
// sliding history window as context, persists the reply and returns it.
//
// The user turn is written before the model call. If generation then fails,
// the user turn stays without a reply; the client re-sends the message to
// retry the exchange rather than us rolling the turn back (see DESIGN.md).
func (c *Chat) Send(ctx context.Context, ownerID, message string) (string, error) {
	if _, err := c.turns.AppendTurn(ctx, database.ConversationTurn{
		OwnerID: ownerID,
		Role:    database.RoleUser,
		Text:    message,
	}); err != nil {
		return "", err
	}

	turns, err := c.turns.ListTurns(ctx, ownerID)
	if err != nil {
		return "", err
	}
	window := geminiservice.HistoryWindow(toHistory(turns))

	primary := func(ctx context.Context) (string, error) {
		return c.model.GenerateText(ctx, geminiservice.ChatSystemPrompt, window, message, geminiservice.ChatGenerationConfig())
	}
	var fallback geminiservice.ModelCall
	if c.fallback != nil {
		fallback = func(ctx context.Context) (string, error) {
			return c.fallback.GenerateText(ctx, geminiservice.ChatSystemPrompt, window, message, geminiservice.ChatGenerationConfig())
		}
	}

	reply, err := c.invoker.Invoke(ctx, primary, fallback)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("chat generation failed")
		return "", err
	}

	if _, err := c.turns.AppendTurn(ctx, database.ConversationTurn{
		OwnerID: ownerID,
		Role:    database.RoleAssistant,
		Text:    reply,
	}); err != nil {
		return "", err
	}

	return reply, nil
}

// History returns the owner's full conversation, oldest first.
func (c *Chat) History(ctx context.Context, ownerID string) ([]database.ConversationTurn, error) {
	return c.turns.ListTurns(ctx, ownerID)
}

// Clear deletes the owner's conversation.
func (c *Chat) Clear(ctx context.Context, ownerID string) error {
	return c.turns.DeleteTurns(ctx, ownerID)
}

// toHistory maps stored turns to the wire roles ("assistant" becomes
// "model").
func toHistory(turns []database.ConversationTurn) []geminiservice.HistoryTurn {
	history := make([]geminiservice.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == database.RoleAssistant {
			role = "model"
		}
		history = append(history, geminiservice.HistoryTurn{Role: role, Text: t.Text})
	}
	return history
}
