package anticheat

import (
	"testing"

	"emotech-quiz-service/internal/domain"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		cheatType   domain.CheatType
		wantPoints  int
		wantCounter string
	}{
		{domain.CheatTabSwitch, 10, CounterTabSwitches},
		{domain.CheatCopyAttempt, 10, CounterCopyAttempts},
		{domain.CheatDevTools, 20, CounterDevToolsAttempts},
	}

	for _, tt := range tests {
		t.Run(string(tt.cheatType), func(t *testing.T) {
			got := Assess(tt.cheatType)
			if got.Points != tt.wantPoints {
				t.Fatalf("expected %d points, got %d", tt.wantPoints, got.Points)
			}
			if got.Counter != tt.wantCounter {
				t.Fatalf("expected counter %q, got %q", tt.wantCounter, got.Counter)
			}
		})
	}
}

func TestAssessUnknownTypeUsesDevToolsTier(t *testing.T) {
	got := Assess(domain.CheatType("SCREEN_SHARE"))
	if got.Points != 20 || got.Counter != CounterDevToolsAttempts {
		t.Fatalf("expected dev-tools tier for unknown type, got %+v", got)
	}
}
