package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"FitPulse_V0.1/internal/database"
	"FitPulse_V0.1/internal/geminiservice"
)

// PlanStore is the fitness-plan slice of the persistence gateway.
type PlanStore interface {
	ListPlans(ctx context.Context, ownerID string) ([]database.FitnessPlan, error)
	GetActivePlan(ctx context.Context, ownerID string) (*database.FitnessPlan, error)
	CreatePlan(ctx context.Context, plan *database.FitnessPlan) error
	ActivatePlan(ctx context.Context, ownerID, planID string) error
}

// Planner generates personalized workout and diet plans.
type Planner struct {
	plans    PlanStore
	model    TextModel
	fallback TextModel // may be nil
	invoker  *geminiservice.Invoker
}

func NewPlanner(plans PlanStore, model, fallback TextModel, invoker *geminiservice.Invoker) *Planner {
	return &Planner{plans: plans, model: model, fallback: fallback, invoker: invoker}
}

// Generate builds a workout plan and a diet plan from the profile with two
// sequential model calls, normalizes both outputs and persists the combined
// plan as the owner's new active plan. Nothing is written until both
// generations have succeeded.
func (p *Planner) Generate(ctx context.Context, ownerID string, profile geminiservice.PlanProfile) (*database.FitnessPlan, error) {
	workoutRaw, err := p.generate(ctx, geminiservice.BuildWorkoutPrompt(profile), geminiservice.WorkoutSchema)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("workout generation failed")
		return nil, err
	}
	workout, err := geminiservice.ParseWorkoutPlan(workoutRaw)
	if err != nil {
		return nil, err
	}

	dietRaw, err := p.generate(ctx, geminiservice.BuildDietPrompt(profile), geminiservice.DietSchema)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("diet generation failed")
		return nil, err
	}
	diet, err := geminiservice.ParseDietPlan(dietRaw)
	if err != nil {
		return nil, err
	}

	plan := &database.FitnessPlan{
		OwnerID:         ownerID,
		Name:            planName(profile),
		WorkoutSchedule: workout.Schedule,
		Exercises:       workout.Exercises,
		DietPlan:        *diet,
		IsActive:        true,
	}
	if err := p.plans.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// Plans returns the owner's plans, newest first.
func (p *Planner) Plans(ctx context.Context, ownerID string) ([]database.FitnessPlan, error) {
	return p.plans.ListPlans(ctx, ownerID)
}

// Activate makes one stored plan the owner's active plan.
func (p *Planner) Activate(ctx context.Context, ownerID, planID string) error {
	return p.plans.ActivatePlan(ctx, ownerID, planID)
}

// ActivePlan returns the owner's active plan, or nil when none exists.
func (p *Planner) ActivePlan(ctx context.Context, ownerID string) (*database.FitnessPlan, error) {
	return p.plans.GetActivePlan(ctx, ownerID)
}

func (p *Planner) generate(ctx context.Context, prompt string, schema *geminiservice.GeminiSchema) (string, error) {
	cfg := geminiservice.PlanGenerationConfig(schema)

	primary := func(ctx context.Context) (string, error) {
		return p.model.GenerateText(ctx, "", nil, prompt, cfg)
	}
	var fallback geminiservice.ModelCall
	if p.fallback != nil {
		fallback = func(ctx context.Context) (string, error) {
			return p.fallback.GenerateText(ctx, "", nil, prompt, cfg)
		}
	}

	return p.invoker.Invoke(ctx, primary, fallback)
}

func planName(profile geminiservice.PlanProfile) string {
	goal := profile.Goal
	if goal == "" {
		goal = "general fitness"
	}
	return fmt.Sprintf("%d-day %s plan", profile.DaysPerWeek, goal)
}
