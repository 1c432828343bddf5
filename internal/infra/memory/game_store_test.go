package memory

import (
	"context"
	"testing"
	"time"

	"emotech-quiz-service/internal/domain"
)

func TestGameTransitionsAreForwardOnly(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()
	if err := store.Create(ctx, domain.Game{Code: "ABC123", Status: domain.GameWaiting}); err != nil {
		t.Fatalf("create: %v", err)
	}

	started, err := store.Transition(ctx, "ABC123", domain.GameWaiting, domain.GameInProgress, time.Now())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.GameInProgress || started.StartedAt == nil {
		t.Fatalf("expected in_progress with started_at, got %+v", started)
	}

	// Starting again must conflict; the game already left waiting.
	if _, err := store.Transition(ctx, "ABC123", domain.GameWaiting, domain.GameInProgress, time.Now()); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict for repeated start, got %v", err)
	}

	ended, err := store.Transition(ctx, "ABC123", domain.GameInProgress, domain.GameCompleted, time.Now())
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != domain.GameCompleted || ended.EndedAt == nil {
		t.Fatalf("expected completed with ended_at, got %+v", ended)
	}

	// Completed is terminal.
	if _, err := store.Transition(ctx, "ABC123", domain.GameCompleted, domain.GameInProgress, time.Now()); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected terminal state to reject transition, got %v", err)
	}
}

func TestGameTransitionUnknownCode(t *testing.T) {
	store := NewGameStore()
	_, err := store.Transition(context.Background(), "NOPE", domain.GameWaiting, domain.GameInProgress, time.Now())
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGameCreateRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()
	if err := store.Create(ctx, domain.Game{Code: "ABC123"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, domain.Game{Code: "ABC123"}); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
