package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FitPulse_V0.1/config"
	"FitPulse_V0.1/internal/geminiservice"
)

// newTestService connects to the database named by FITPULSE_TEST_DB, e.g.
//
//	FITPULSE_TEST_DB=fitpulse_test go test ./internal/database/
//
// and skips otherwise so the unit suite stays hermetic.
func newTestService(t *testing.T) Service {
	t.Helper()
	dbName := os.Getenv("FITPULSE_TEST_DB")
	if dbName == "" {
		t.Skip("FITPULSE_TEST_DB not set; skipping database integration tests")
	}

	cfg := &config.Config{}
	cfg.DB.Host = envOr("DB_HOST", "localhost")
	cfg.DB.Port = envOr("DB_PORT", "5432")
	cfg.DB.User = envOr("DB_USER", "postgres")
	cfg.DB.Password = envOr("DB_PASSWORD", "postgres")
	cfg.DB.DBName = dbName
	cfg.DB.SSLMode = "disable"
	cfg.DB.MaxConns = 4

	svc, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestTurnsRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := "it-turns-owner"
	t.Cleanup(func() { _ = svc.DeleteTurns(ctx, owner) })

	for _, text := range []string{"first", "second", "third"} {
		role := RoleUser
		if text == "second" {
			role = RoleAssistant
		}
		_, err := svc.AppendTurn(ctx, ConversationTurn{OwnerID: owner, Role: role, Text: text})
		require.NoError(t, err)
	}

	turns, err := svc.ListTurns(ctx, owner)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Oldest first.
	assert.Equal(t, "first", turns[0].Text)
	assert.Equal(t, "third", turns[2].Text)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	for _, turn := range turns {
		assert.NotEmpty(t, turn.ID)
		assert.False(t, turn.CreatedAt.IsZero())
	}

	require.NoError(t, svc.DeleteTurns(ctx, owner))
	turns, err = svc.ListTurns(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestPlanActivationInvariant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	// Plans have no bulk delete, so each run gets its own owner.
	owner := "it-plans-" + uuid.NewString()

	makePlan := func(name string) *FitnessPlan {
		return &FitnessPlan{
			OwnerID:         owner,
			Name:            name,
			WorkoutSchedule: []string{"Monday", "Thursday"},
			Exercises: []geminiservice.ExerciseDay{
				{Day: "Monday", Routines: []geminiservice.Routine{{Name: "Squats", Sets: 3, Reps: 10}}},
			},
			DietPlan: geminiservice.DietPlan{
				DailyCalories: 2200,
				Meals:         []geminiservice.Meal{{Name: "Breakfast", Foods: []string{"Oatmeal"}}},
			},
			IsActive: true,
		}
	}

	first := makePlan("first plan")
	require.NoError(t, svc.CreatePlan(ctx, first))
	second := makePlan("second plan")
	require.NoError(t, svc.CreatePlan(ctx, second))

	// Creating the second active plan deactivated the first.
	active, err := svc.GetActivePlan(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	plans, err := svc.ListPlans(ctx, owner)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, second.ID, plans[0].ID, "newest first")

	activeCount := 0
	for _, p := range plans {
		if p.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	// Switching back also keeps exactly one active.
	require.NoError(t, svc.ActivatePlan(ctx, owner, first.ID))
	active, err = svc.GetActivePlan(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)

	// The jsonb round trip preserves the nested plan documents.
	assert.Equal(t, 2200, active.DietPlan.DailyCalories)
	require.Len(t, active.Exercises, 1)
	assert.Equal(t, "Squats", active.Exercises[0].Routines[0].Name)

	assert.ErrorIs(t, svc.ActivatePlan(ctx, owner, "1b671a64-40d5-491e-99b0-da01ff1f3341"), ErrPlanNotFound)
}

func TestGetActivePlanNoneIsNilNotError(t *testing.T) {
	svc := newTestService(t)

	plan, err := svc.GetActivePlan(context.Background(), "owner-with-no-plans")
	require.NoError(t, err)
	assert.Nil(t, plan)
}
