package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	// Mask keys containing "password" or "ssn"
	secureStore := middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlyingStore)

	ctx := context.Background()
	state := domain.State{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
		"safe_data": "public",
	}

	if err := secureStore.Save(ctx, domain.Checkpoint{ThreadID: "pii", Step: 1, State: state}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if state["user_password"] != "secret123" {
		t.Error("Middleware modified original state in memory!")
	}

	stored, err := underlyingStore.Load(ctx, "pii")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.State["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if stored.State["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", stored.State["user_password"])
	}
	details := stored.State["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Address shouldn't be masked, got: %v", details["address"])
	}
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := make([]byte, 32)
	// PII masking runs before encryption, so the sealed payload is already masked.
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware([]string{"token"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	if err := store.Save(ctx, domain.Checkpoint{ThreadID: "c", Step: 1, State: domain.State{"token": "abc"}}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.State["token"] != middleware.Mask {
		t.Errorf("expected masked token, got %v", loaded.State["token"])
	}
}
