package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FitPulse_V0.1/internal/database"
	"FitPulse_V0.1/internal/geminiservice"
)

// scriptedText replays canned replies (or errors) in order and records what
// it was asked.
type scriptedText struct {
	replies   []string
	errs      []error
	calls     int
	histories [][]geminiservice.HistoryTurn
	messages  []string
}

func (m *scriptedText) GenerateText(_ context.Context, _ string, history []geminiservice.HistoryTurn, message string, _ *geminiservice.GenerationConfig) (string, error) {
	i := m.calls
	m.calls++
	m.histories = append(m.histories, history)
	m.messages = append(m.messages, message)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return "", errors.New("no scripted reply left")
}

func (m *scriptedText) Model() string { return "scripted-text" }

type scriptedVision struct {
	reply string
	err   error
	calls int
}

func (m *scriptedVision) GenerateVision(_ context.Context, _ string, _ geminiservice.InlineImage, _ *geminiservice.GenerationConfig) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *scriptedVision) Model() string { return "scripted-vision" }

// fakeTurnStore is an in-memory TurnStore.
type fakeTurnStore struct {
	turns []database.ConversationTurn
	seq   int
}

func (f *fakeTurnStore) ListTurns(_ context.Context, ownerID string) ([]database.ConversationTurn, error) {
	var out []database.ConversationTurn
	for _, t := range f.turns {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurnStore) AppendTurn(_ context.Context, turn database.ConversationTurn) (database.ConversationTurn, error) {
	f.seq++
	turn.ID = fmt.Sprintf("turn-%d", f.seq)
	turn.CreatedAt = time.Now().UTC()
	f.turns = append(f.turns, turn)
	return turn, nil
}

func (f *fakeTurnStore) DeleteTurns(_ context.Context, ownerID string) error {
	var kept []database.ConversationTurn
	for _, t := range f.turns {
		if t.OwnerID != ownerID {
			kept = append(kept, t)
		}
	}
	f.turns = kept
	return nil
}

// fakePlanStore mirrors the gateway's activation semantics in memory.
type fakePlanStore struct {
	plans []database.FitnessPlan
	seq   int
}

func (f *fakePlanStore) ListPlans(_ context.Context, ownerID string) ([]database.FitnessPlan, error) {
	var out []database.FitnessPlan
	for i := len(f.plans) - 1; i >= 0; i-- {
		if f.plans[i].OwnerID == ownerID {
			out = append(out, f.plans[i])
		}
	}
	return out, nil
}

func (f *fakePlanStore) GetActivePlan(_ context.Context, ownerID string) (*database.FitnessPlan, error) {
	for i := range f.plans {
		if f.plans[i].OwnerID == ownerID && f.plans[i].IsActive {
			p := f.plans[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePlanStore) CreatePlan(_ context.Context, plan *database.FitnessPlan) error {
	f.seq++
	plan.ID = fmt.Sprintf("plan-%d", f.seq)
	plan.CreatedAt = time.Now().UTC()
	if plan.IsActive {
		for i := range f.plans {
			if f.plans[i].OwnerID == plan.OwnerID {
				f.plans[i].IsActive = false
			}
		}
	}
	f.plans = append(f.plans, *plan)
	return nil
}

func (f *fakePlanStore) ActivatePlan(_ context.Context, ownerID, planID string) error {
	found := false
	for i := range f.plans {
		if f.plans[i].OwnerID != ownerID {
			continue
		}
		f.plans[i].IsActive = f.plans[i].ID == planID
		if f.plans[i].ID == planID {
			found = true
		}
	}
	if !found {
		return database.ErrPlanNotFound
	}
	return nil
}

// quickInvoker returns an invoker that records backoff instead of sleeping.
func quickInvoker() *geminiservice.Invoker {
	return geminiservice.NewInvoker(3, time.Millisecond)
}
