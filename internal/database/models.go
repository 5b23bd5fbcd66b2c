package database

import (
	"time"

	"FitPulse_V0.1/internal/geminiservice"
)

// Turn roles. The wire role for the model side is "model"; at rest we store
// "assistant".
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message in an owner's chat history. Immutable once
// written; deleted only in bulk by DeleteTurns.
type ConversationTurn struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// FitnessPlan is a generated workout + diet plan. The exercise and diet
// payloads are stored as documents (jsonb); the plan itself is only ever
// mutated to toggle IsActive.
type FitnessPlan struct {
	ID              string                      `json:"id"`
	OwnerID         string                      `json:"ownerId"`
	Name            string                      `json:"name"`
	WorkoutSchedule []string                    `json:"workoutSchedule"`
	Exercises       []geminiservice.ExerciseDay `json:"exercises"`
	DietPlan        geminiservice.DietPlan      `json:"dietPlan"`
	IsActive        bool                        `json:"isActive"`
	CreatedAt       time.Time                   `json:"createdAt"`
}
