package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"emotech-quiz-service/internal/domain"
)

func TestJournalAppendAndSince(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	j := NewJournal(newClient(mr), time.Minute)

	for _, typ := range []string{"game_started", "leaderboard_update"} {
		if err := j.Append(ctx, "ABC123", domain.Event{Room: "live", Type: typ, At: time.Now()}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, cursor, err := j.Since(ctx, "ABC123", 0)
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(events) != 2 || cursor != 2 {
		t.Fatalf("expected 2 events cursor 2, got %d/%d", len(events), cursor)
	}
	if events[0].Type != "game_started" || events[1].Type != "leaderboard_update" {
		t.Fatalf("expected append order, got %v", events)
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("expected sequential seqs, got %d, %d", events[0].Seq, events[1].Seq)
	}

	tail, next, err := j.Since(ctx, "ABC123", cursor)
	if err != nil {
		t.Fatalf("since tail: %v", err)
	}
	if len(tail) != 0 || next != cursor {
		t.Fatalf("expected empty tail at stable cursor, got %d events cursor %d", len(tail), next)
	}

	if !mr.Exists("quiz:ABC123:events") {
		t.Fatalf("expected journal key in redis")
	}
}

func TestJournalSinceUnknownGameIsEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	j := NewJournal(newClient(mr), time.Minute)
	events, cursor, err := j.Since(context.Background(), "NOPE12", 0)
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(events) != 0 || cursor != 0 {
		t.Fatalf("expected empty feed, got %d events cursor %d", len(events), cursor)
	}
}
