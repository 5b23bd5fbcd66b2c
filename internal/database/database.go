/*
Package database is the persistence gateway: conversation turns and fitness
plans live here, behind a small read/write contract. All cross-request state
goes through this package; the concurrency-sensitive transition (only one
active plan per owner) is applied transactionally inside it.
*/
package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"FitPulse_V0.1/config"
)

// Service represents a service that interacts with the database.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the database connection pool.
	Close()

	// Conversation turns. Turns are immutable once written and ordered by
	// creation time per owner; the only delete is the bulk clear.
	ListTurns(ctx context.Context, ownerID string) ([]ConversationTurn, error)
	AppendTurn(ctx context.Context, turn ConversationTurn) (ConversationTurn, error)
	DeleteTurns(ctx context.Context, ownerID string) error

	// Fitness plans, newest first. CreatePlan and ActivatePlan keep the
	// at-most-one-active-plan invariant.
	ListPlans(ctx context.Context, ownerID string) ([]FitnessPlan, error)
	GetActivePlan(ctx context.Context, ownerID string) (*FitnessPlan, error)
	CreatePlan(ctx context.Context, plan *FitnessPlan) error
	ActivatePlan(ctx context.Context, ownerID, planID string) error
}

type service struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id         UUID PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	role       TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_turns_owner_created
	ON conversation_turns (owner_id, created_at);

CREATE TABLE IF NOT EXISTS fitness_plans (
	id               UUID PRIMARY KEY,
	owner_id         TEXT NOT NULL,
	name             TEXT NOT NULL,
	workout_schedule TEXT[] NOT NULL DEFAULT '{}',
	exercises        JSONB NOT NULL DEFAULT '[]',
	diet_plan        JSONB NOT NULL DEFAULT '{}',
	is_active        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_plans_owner_created
	ON fitness_plans (owner_id, created_at DESC);
`

// NewService opens a connection pool from the given configuration and makes
// sure the schema exists. The caller owns the returned Service and must
// Close it; there is no package-level pool.
func NewService(ctx context.Context, cfg *config.Config) (Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName, cfg.DB.SSLMode, cfg.DB.MaxConns)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Info().Str("host", cfg.DB.Host).Str("database", cfg.DB.DBName).Msg("database connected")
	return &service{pool: pool}, nil
}

// Health checks the health of the database connection.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("database health check failed")
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))

	return stats
}

func (s *service) Close() {
	s.pool.Close()
}
