package memory

import (
	"context"
	"testing"

	"emotech-quiz-service/internal/domain"
)

func TestQuestionStoreListSortsByOrder(t *testing.T) {
	store := NewQuestionStore()
	ctx := context.Background()

	add := func(id string, order int) {
		t.Helper()
		err := store.Add(ctx, domain.Question{ID: id, GameCode: "ABC123", Order: order})
		if err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	add("q3", 3)
	add("q1", 1)
	add("q2a", 2)
	add("q2b", 2)

	questions, err := store.ListByGame(ctx, "ABC123")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, 0, len(questions))
	for _, q := range questions {
		got = append(got, q.ID)
	}
	want := []string{"q1", "q2a", "q2b", "q3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestQuestionStoreDuplicateIDConflicts(t *testing.T) {
	store := NewQuestionStore()
	ctx := context.Background()

	if err := store.Add(ctx, domain.Question{ID: "q1", GameCode: "ABC123"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := store.Add(ctx, domain.Question{ID: "q1", GameCode: "ABC123"})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestQuestionStoreGetUnknown(t *testing.T) {
	store := NewQuestionStore()
	if _, err := store.Get(context.Background(), "missing"); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
