package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/contract"
)

var (
	lender   = contract.Party{Name: "Alice", Key: "key-alice"}
	borrower = contract.Party{Name: "Bob", Key: "key-bob"}
)

func testObligation(linearID uuid.UUID, amount, paid int64) contract.Obligation {
	return contract.Obligation{
		Amount:   amount,
		Lender:   lender,
		Borrower: borrower,
		Paid:     paid,
		LinearID: linearID,
	}
}

func TestInMemoryVault_IssueAndHead(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()

	res, err := v.Append(ctx, AcceptedTransaction{
		ClientTxID: "issue-1",
		ContractID: contract.ContractID,
		Intent:     contract.Issue,
		Outputs:    []contract.Obligation{testObligation(linearID, 10_000, 0)},
	})
	if err != nil {
		t.Fatalf("append issue: %v", err)
	}
	if len(res.Heads) != 1 || res.Heads[0].Version != 1 {
		t.Fatalf("unexpected heads: %+v", res.Heads)
	}

	head, err := v.Head(ctx, linearID)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.State.Amount != 10_000 || head.Status != StatusLive {
		t.Fatalf("unexpected head: %+v", head)
	}
}

func TestInMemoryVault_IssueDuplicateLinearID(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()
	SeedState(v, testObligation(linearID, 5_000, 0))

	_, err := v.Append(ctx, AcceptedTransaction{
		Intent:  contract.Issue,
		Outputs: []contract.Obligation{testObligation(linearID, 5_000, 0)},
	})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestInMemoryVault_ConsumeAdvancesVersion(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()
	SeedState(v, testObligation(linearID, 10_000, 0))

	res, err := v.Append(ctx, AcceptedTransaction{
		Intent:   contract.Settle,
		Consumes: []uuid.UUID{linearID},
		Outputs:  []contract.Obligation{testObligation(linearID, 10_000, 4_000)},
	})
	if err != nil {
		t.Fatalf("append settle: %v", err)
	}
	if res.Heads[0].Version != 2 {
		t.Fatalf("expected version 2, got %d", res.Heads[0].Version)
	}

	history, err := v.History(ctx, linearID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(history))
	}
	if history[0].Status != StatusConsumed || history[1].Status != StatusLive {
		t.Fatalf("unexpected statuses: %s, %s", history[0].Status, history[1].Status)
	}
}

func TestInMemoryVault_RetireLeavesNoHead(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()
	SeedState(v, testObligation(linearID, 10_000, 9_000))

	res, err := v.Append(ctx, AcceptedTransaction{
		Intent:   contract.Settle,
		Consumes: []uuid.UUID{linearID},
	})
	if err != nil {
		t.Fatalf("append retirement: %v", err)
	}
	if len(res.Heads) != 0 {
		t.Fatalf("retirement must produce no heads, got %+v", res.Heads)
	}

	if _, err := v.Head(ctx, linearID); !errors.Is(err, ErrConsumed) {
		t.Fatalf("expected ErrConsumed after retirement, got %v", err)
	}
}

func TestInMemoryVault_DoubleSpendRejected(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()
	SeedState(v, testObligation(linearID, 10_000, 0))

	first := AcceptedTransaction{
		ClientTxID: "spend-1",
		Intent:     contract.Settle,
		Consumes:   []uuid.UUID{linearID},
	}
	if _, err := v.Append(ctx, first); err != nil {
		t.Fatalf("first spend: %v", err)
	}

	second := AcceptedTransaction{
		ClientTxID: "spend-2",
		Intent:     contract.Settle,
		Consumes:   []uuid.UUID{linearID},
	}
	if _, err := v.Append(ctx, second); !errors.Is(err, ErrConsumed) {
		t.Fatalf("expected ErrConsumed, got %v", err)
	}
}

func TestInMemoryVault_DuplicateClientTx(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()
	linearID := uuid.New()

	tx := AcceptedTransaction{
		ClientTxID: "dup",
		Intent:     contract.Issue,
		Outputs:    []contract.Obligation{testObligation(linearID, 2_000, 0)},
	}
	first, err := v.Append(ctx, tx)
	if err != nil {
		t.Fatalf("initial append: %v", err)
	}

	replay, err := v.Append(ctx, tx)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if replay.TxID != first.TxID {
		t.Fatalf("replay must return the original transaction id")
	}
}

func TestInMemoryVault_ConcurrentIssues(t *testing.T) {
	v := NewInMemory()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := AcceptedTransaction{
				ClientTxID: fmt.Sprintf("issue-%d", i),
				Intent:     contract.Issue,
				Outputs:    []contract.Obligation{testObligation(uuid.New(), 1_000, 0)},
			}
			if _, err := v.Append(ctx, tx); err != nil {
				t.Errorf("issue %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	live, err := v.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(live) != workers {
		t.Fatalf("expected %d live obligations, got %d", workers, len(live))
	}
}
