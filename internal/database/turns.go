package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListTurns returns an owner's full conversation, oldest first.
func (s *service) ListTurns(ctx context.Context, ownerID string) ([]ConversationTurn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, role, body, created_at
		FROM conversation_turns
		WHERE owner_id = $1
		ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Role, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AppendTurn writes one turn and returns it with id and timestamp filled in.
func (s *service) AppendTurn(ctx context.Context, turn ConversationTurn) (ConversationTurn, error) {
	turn.ID = uuid.NewString()
	turn.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversation_turns (id, owner_id, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		turn.ID, turn.OwnerID, turn.Role, turn.Text, turn.CreatedAt)
	if err != nil {
		return ConversationTurn{}, fmt.Errorf("failed to append turn: %w", err)
	}
	return turn, nil
}

// DeleteTurns clears an owner's entire conversation.
func (s *service) DeleteTurns(ctx context.Context, ownerID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM conversation_turns WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	return nil
}
