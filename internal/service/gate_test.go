package service

import (
	"context"
	"testing"
	"time"

	"safewarner"
	"safewarner/internal/notify"
)

func newTestGate(clk *testClock) (*NotificationGate, *LedgerService) {
	cfg := DefaultConfig()
	ledger := NewLedgerService(nil, nil, clk.Now())
	gate := NewNotificationGate(cfg, notify.Nop(), ledger, nil)
	gate.now = clk.Now
	return gate, ledger
}

func TestGate_CooldownSpacing(t *testing.T) {
	ctx := context.Background()
	clk := newTestClock()
	gate, ledger := newTestGate(clk)

	if !gate.Notify(ctx, safewarner.AlertProximity, "t", "m") {
		t.Fatal("first notification should be accepted")
	}

	// Within the cooldown every repeat is dropped.
	clk.Advance(10 * time.Second)
	if gate.Notify(ctx, safewarner.AlertProximity, "t", "m") {
		t.Fatal("notification inside cooldown should be suppressed")
	}
	clk.Advance(19 * time.Second)
	if gate.Notify(ctx, safewarner.AlertProximity, "t", "m") {
		t.Fatal("notification at 29s should be suppressed")
	}

	// At exactly the cooldown the next one is admitted.
	clk.Advance(1 * time.Second)
	if !gate.Notify(ctx, safewarner.AlertProximity, "t", "m") {
		t.Fatal("notification at 30s should be accepted")
	}

	alerts, _ := ledger.Records()
	if len(alerts) != 2 {
		t.Fatalf("ledger should hold only accepted notifications, got %d", len(alerts))
	}
	if gate.Stats()[safewarner.AlertProximity] != 2 {
		t.Fatalf("stats = %v, want proximity=2", gate.Stats())
	}
}

func TestGate_KindsCooldownIndependently(t *testing.T) {
	ctx := context.Background()
	clk := newTestClock()
	gate, _ := newTestGate(clk)

	if !gate.Notify(ctx, safewarner.AlertProximity, "t", "m") {
		t.Fatal("proximity should be accepted")
	}
	// A different kind fires immediately even while proximity is cooling down.
	if !gate.Notify(ctx, safewarner.AlertPosture, "t", "m") {
		t.Fatal("posture should not share proximity's cooldown")
	}
}

func TestGate_ExerciseGuidanceBypassesCooldown(t *testing.T) {
	ctx := context.Background()
	clk := newTestClock()
	gate, ledger := newTestGate(clk)

	for i := 0; i < 3; i++ {
		if !gate.Notify(ctx, safewarner.AlertEyeExercise, "t", "m") {
			t.Fatalf("guidance prompt %d should never be suppressed", i)
		}
	}
	alerts, _ := ledger.Records()
	if len(alerts) != 3 {
		t.Fatalf("all guidance prompts should be recorded, got %d", len(alerts))
	}
}

func TestGate_SuppressedNotificationLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	clk := newTestClock()
	gate, ledger := newTestGate(clk)

	gate.Notify(ctx, safewarner.AlertBlinkRate, "t", "m")
	gate.Notify(ctx, safewarner.AlertBlinkRate, "t", "m")

	alerts, _ := ledger.Records()
	if len(alerts) != 1 {
		t.Fatalf("suppressed notification must not reach the ledger, got %d records", len(alerts))
	}
	if gate.Stats()[safewarner.AlertBlinkRate] != 1 {
		t.Fatalf("suppressed notification must not count in stats: %v", gate.Stats())
	}
}
