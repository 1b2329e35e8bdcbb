package registry

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	party, err := svc.Register(ctx, Credentials{Name: "Alice Corp", Secret: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if party.Key == "" {
		t.Fatalf("expected an owning key to be minted")
	}

	found, err := svc.Lookup(ctx, party.Key)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.Name != "Alice Corp" {
		t.Fatalf("expected Alice Corp, got %s", found.Name)
	}

	token := found.Contract()
	if string(token.Key) != party.Key || token.Name != party.Name {
		t.Fatalf("contract token mismatch: %+v", token)
	}
}

func TestRegisterRejectsShortSecret(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Register(context.Background(), Credentials{Name: "A", Secret: "short"}); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

func TestVerifySecret(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Name: "Bob Ltd", Secret: "battery staple"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Verify(ctx, Credentials{Name: "Bob Ltd", Secret: "battery staple"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.Verify(ctx, Credentials{Name: "Bob Ltd", Secret: "wrong secret"}); err == nil {
		t.Fatalf("expected invalid secret error")
	}
	if _, err := svc.Verify(ctx, Credentials{Name: "Nobody", Secret: "battery staple"}); !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}
}

func TestLookupUnknownKey(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Lookup(context.Background(), "no-such-key"); !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}
}
