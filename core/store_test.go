package core

import (
	"context"
	"testing"
)

func TestMemoryStoreUnknownSessionGetsDefaults(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	state, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.VulnerabilityScore != 100 {
		t.Errorf("fresh session score: expected 100, got %d", state.VulnerabilityScore)
	}
	if state.GameStarted || state.CasualUser.AccountCreated {
		t.Error("fresh session must start from defaults")
	}
	if state.Hacker.Cooldowns == nil || state.Hacker.AttackFlows == nil {
		t.Error("fresh session maps must be initialized")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := NewGameState()
	state.StartRound()
	state.CasualUser.Name = "Alice"
	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RoundID != 1 || loaded.CasualUser.Name != "Alice" {
		t.Errorf("round trip lost data: %+v", loaded.CasualUser)
	}
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := NewGameState()
	a.CasualUser.Name = "Alice"
	if err := store.Save(ctx, "a", a); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := store.Load(ctx, "b")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.CasualUser.Name != "" {
		t.Error("sessions must not leak into each other")
	}
}

func TestMemoryStoreHandsOutClones(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := NewGameState()
	state.CasualUser.PasswordVault = []VaultEntry{{ID: "v1", Title: "Mail", Password: "pw"}}
	if err := store.Save(ctx, "s", state); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the saved original must not affect the stored copy.
	state.CasualUser.PasswordVault[0].Title = "tampered"
	state.Hacker.Cooldowns[AttackPhishing] = 42

	loaded, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CasualUser.PasswordVault[0].Title != "Mail" {
		t.Error("stored state shares vault memory with the caller")
	}
	if len(loaded.Hacker.Cooldowns) != 0 {
		t.Error("stored state shares cooldown map with the caller")
	}

	// Mutating a loaded copy must not affect later loads.
	loaded.CasualUser.Name = "evil"
	again, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again.CasualUser.Name != "" {
		t.Error("loaded state shares memory with the store")
	}
}
