package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrPlanNotFound is returned when a plan id does not exist for the owner.
var ErrPlanNotFound = errors.New("fitness plan not found")

const planColumns = `id, owner_id, name, workout_schedule, exercises, diet_plan, is_active, created_at`

func scanPlan(row pgx.Row) (FitnessPlan, error) {
	var (
		p            FitnessPlan
		exercisesRaw []byte
		dietRaw      []byte
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.WorkoutSchedule, &exercisesRaw, &dietRaw, &p.IsActive, &p.CreatedAt); err != nil {
		return FitnessPlan{}, err
	}
	if err := json.Unmarshal(exercisesRaw, &p.Exercises); err != nil {
		return FitnessPlan{}, fmt.Errorf("failed to decode exercises: %w", err)
	}
	if err := json.Unmarshal(dietRaw, &p.DietPlan); err != nil {
		return FitnessPlan{}, fmt.Errorf("failed to decode diet plan: %w", err)
	}
	return p, nil
}

// ListPlans returns an owner's plans, newest first.
func (s *service) ListPlans(ctx context.Context, ownerID string) ([]FitnessPlan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM fitness_plans
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []FitnessPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetActivePlan returns the owner's single active plan, or nil when none is
// active.
func (s *service) GetActivePlan(ctx context.Context, ownerID string) (*FitnessPlan, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM fitness_plans
		WHERE owner_id = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1`, ownerID)

	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active plan: %w", err)
	}
	return &p, nil
}

// CreatePlan inserts a new plan. When the plan is active, all of the owner's
// prior active plans are deactivated in the same transaction so that at most
// one plan per owner is ever active, even under concurrent requests.
func (s *service) CreatePlan(ctx context.Context, plan *FitnessPlan) error {
	plan.ID = uuid.NewString()
	plan.CreatedAt = time.Now().UTC()

	exercisesRaw, err := json.Marshal(plan.Exercises)
	if err != nil {
		return fmt.Errorf("failed to encode exercises: %w", err)
	}
	dietRaw, err := json.Marshal(plan.DietPlan)
	if err != nil {
		return fmt.Errorf("failed to encode diet plan: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if plan.IsActive {
		if _, err := tx.Exec(ctx, `
			UPDATE fitness_plans SET is_active = FALSE
			WHERE owner_id = $1 AND is_active`, plan.OwnerID); err != nil {
			return fmt.Errorf("failed to deactivate prior plans: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO fitness_plans (id, owner_id, name, workout_schedule, exercises, diet_plan, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		plan.ID, plan.OwnerID, plan.Name, plan.WorkoutSchedule, exercisesRaw, dietRaw, plan.IsActive, plan.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	return tx.Commit(ctx)
}

// ActivatePlan marks one existing plan active and deactivates the rest,
// transactionally.
func (s *service) ActivatePlan(ctx context.Context, ownerID, planID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE fitness_plans SET is_active = FALSE
		WHERE owner_id = $1 AND is_active`, ownerID); err != nil {
		return fmt.Errorf("failed to deactivate prior plans: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE fitness_plans SET is_active = TRUE
		WHERE owner_id = $1 AND id = $2`, ownerID, planID)
	if err != nil {
		return fmt.Errorf("failed to activate plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return tx.Commit(ctx)
}
