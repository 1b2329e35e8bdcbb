package obligations

import (
	"context"
	"errors"
	"testing"

	"github.com/obligo/obligo/internal/contract"
	"github.com/obligo/obligo/internal/events"
	"github.com/obligo/obligo/internal/registry"
	"github.com/obligo/obligo/internal/vault"
)

type testPublisher struct {
	published []events.Event
}

func (p *testPublisher) Publish(_ context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *testPublisher) last() events.Event {
	if len(p.published) == 0 {
		return events.Event{}
	}
	return p.published[len(p.published)-1]
}

type fixture struct {
	svc       *Service
	publisher *testPublisher
	alice     registry.Party
	bob       registry.Party
	carol     registry.Party
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	reg := registry.NewService(registry.NewMemoryRepository())

	alice, err := reg.Register(ctx, registry.Credentials{Name: "Alice", Secret: "alice-secret"})
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := reg.Register(ctx, registry.Credentials{Name: "Bob", Secret: "bobby-secret"})
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	carol, err := reg.Register(ctx, registry.Credentials{Name: "Carol", Secret: "carol-secret"})
	if err != nil {
		t.Fatalf("register carol: %v", err)
	}

	publisher := &testPublisher{}
	svc := NewService(contract.ContractID, vault.NewInMemory(), reg, publisher)
	return fixture{svc: svc, publisher: publisher, alice: alice, bob: bob, carol: carol}
}

func TestIssueSuccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Issue(ctx, IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      10_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res.Record == nil || res.Record.Version != 1 {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
	if res.Record.State.Paid != 0 || res.Record.State.Amount != 10_000 {
		t.Fatalf("unexpected state: %+v", res.Record.State)
	}
	if f.publisher.last().Kind != events.KindIssued {
		t.Fatalf("expected issued event, got %+v", f.publisher.last())
	}
}

func TestIssueRejectsMissingSigner(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Issue(context.Background(), IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      10_000,
		Signers:     []string{f.alice.Key},
	})
	var violation *contract.Violation
	if !errors.As(err, &violation) || violation.Kind != contract.KindInsufficientOrExcessSigners {
		t.Fatalf("expected signer violation, got %v", err)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("rejected transaction must not publish events")
	}
}

func TestIssueUnknownParty(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Issue(context.Background(), IssueInput{
		LenderKey:   "no-such-key",
		BorrowerKey: f.bob.Key,
		Amount:      1_000,
		Signers:     []string{"no-such-key", f.bob.Key},
	})
	if !errors.Is(err, registry.ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}
}

func TestIssueDuplicateClientTx(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	input := IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      5_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
		ClientTxID:  "issue-once",
	}
	if _, err := f.svc.Issue(ctx, input); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := f.svc.Issue(ctx, input); !errors.Is(err, vault.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate transaction, got %v", err)
	}
}

func TestTransferSuccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      10_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	res, err := f.svc.Transfer(ctx, TransferInput{
		LinearID:     issued.Record.LinearID,
		NewLenderKey: f.carol.Key,
		Signers:      []string{f.alice.Key, f.bob.Key, f.carol.Key},
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Record.Version != 2 {
		t.Fatalf("expected version 2, got %d", res.Record.Version)
	}
	if string(res.Record.State.Lender.Key) != f.carol.Key {
		t.Fatalf("lender did not change: %+v", res.Record.State)
	}
	if res.Record.State.Amount != 10_000 || res.Record.State.Paid != 0 {
		t.Fatalf("transfer altered amount or paid: %+v", res.Record.State)
	}
	if f.publisher.last().Kind != events.KindTransferred {
		t.Fatalf("expected transferred event, got %+v", f.publisher.last())
	}
}

func TestSettlePartialThenFull(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      10_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	linearID := issued.Record.LinearID
	both := []string{f.alice.Key, f.bob.Key}

	partial, err := f.svc.Settle(ctx, SettleInput{LinearID: linearID, Amount: 4_000, Signers: both})
	if err != nil {
		t.Fatalf("partial settle: %v", err)
	}
	if partial.Record == nil || partial.Record.State.Paid != 4_000 {
		t.Fatalf("unexpected partial state: %+v", partial.Record)
	}
	if f.publisher.last().Kind != events.KindSettled {
		t.Fatalf("expected settled event, got %+v", f.publisher.last())
	}

	full, err := f.svc.Settle(ctx, SettleInput{LinearID: linearID, Amount: 6_000, Signers: both})
	if err != nil {
		t.Fatalf("full settle: %v", err)
	}
	if full.Record != nil {
		t.Fatalf("full settlement must retire the obligation, got %+v", full.Record)
	}
	if f.publisher.last().Kind != events.KindRetired {
		t.Fatalf("expected retired event, got %+v", f.publisher.last())
	}
	if f.publisher.last().Paid != 10_000 {
		t.Fatalf("retired event should carry the final paid amount, got %d", f.publisher.last().Paid)
	}

	if _, err := f.svc.Get(ctx, linearID); !errors.Is(err, vault.ErrConsumed) {
		t.Fatalf("expected retired obligation to be consumed, got %v", err)
	}

	history, err := f.svc.History(ctx, linearID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 recorded versions, got %d", len(history))
	}
}

func TestSettlePaymentExceedsBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      1_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = f.svc.Settle(ctx, SettleInput{
		LinearID: issued.Record.LinearID,
		Amount:   2_000,
		Signers:  []string{f.alice.Key, f.bob.Key},
	})
	if !errors.Is(err, ErrPaymentExceedsBalance) {
		t.Fatalf("expected ErrPaymentExceedsBalance, got %v", err)
	}
}

func TestSettleRequiresBothSigners(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, IssueInput{
		LenderKey:   f.alice.Key,
		BorrowerKey: f.bob.Key,
		Amount:      1_000,
		Signers:     []string{f.alice.Key, f.bob.Key},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = f.svc.Settle(ctx, SettleInput{
		LinearID: issued.Record.LinearID,
		Amount:   500,
		Signers:  []string{f.bob.Key},
	})
	var violation *contract.Violation
	if !errors.As(err, &violation) || violation.Kind != contract.KindInsufficientOrExcessSigners {
		t.Fatalf("expected signer violation, got %v", err)
	}
}
