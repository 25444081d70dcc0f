package empire

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	apperrors "empires-server/internal/shared/errors"
)

func newTestRegistry(t *testing.T, n int) (*Registry, []*Empire) {
	t.Helper()
	r := NewRegistry(slog.Default())
	var empires []*Empire
	for i := 0; i < n; i++ {
		e := newTestEmpire(t)
		r.Add(e)
		empires = append(empires, e)
	}
	return r, empires
}

func TestRegistryOrderedAndGet(t *testing.T) {
	r, empires := newTestRegistry(t, 3)

	ordered := r.Ordered()
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].ID() >= ordered[i].ID() {
			t.Fatalf("Ordered() not ascending: %d then %d", ordered[i-1].ID(), ordered[i].ID())
		}
	}

	got, err := r.Get(empires[1].ID())
	if err != nil || got != empires[1] {
		t.Errorf("Get = %v, %v", got, err)
	}
	_, err = r.Get(-1)
	if !errors.Is(err, ErrEmpireNotFound) || apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Errorf("err = %v", err)
	}
}

func TestTransferFunds(t *testing.T) {
	r, empires := newTestRegistry(t, 2)
	a, b := empires[0], empires[1]
	_ = a.Update(func(tx *Tx) error { tx.AdjustFunds(100); return nil })

	if err := r.TransferFunds(a.ID(), b.ID(), 40); err != nil {
		t.Fatalf("TransferFunds: %v", err)
	}
	if a.Funds() != 60 || b.Funds() != 40 {
		t.Errorf("balances = %d, %d", a.Funds(), b.Funds())
	}

	tests := []struct {
		name     string
		from, to int
		amount   int64
	}{
		{name: "overdraw", from: a.ID(), to: b.ID(), amount: 61},
		{name: "zero", from: a.ID(), to: b.ID(), amount: 0},
		{name: "self", from: a.ID(), to: a.ID(), amount: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.TransferFunds(tt.from, tt.to, tt.amount)
			if !errors.Is(err, ErrInvalidTransfer) {
				t.Errorf("err = %v, want ErrInvalidTransfer", err)
			}
		})
	}
	if a.Funds() != 60 || b.Funds() != 40 {
		t.Errorf("rejected transfers changed balances: %d, %d", a.Funds(), b.Funds())
	}

	_ = b.Update(func(tx *Tx) error { tx.AdjustFunds(math.MaxInt64); return nil })
	if err := r.TransferFunds(a.ID(), b.ID(), 1); !errors.Is(err, ErrInvalidTransfer) {
		t.Errorf("transfer into a full treasury err = %v", err)
	}
	if a.Funds() != 60 || b.Funds() != math.MaxInt64 {
		t.Errorf("overflowing transfer changed balances: %d, %d", a.Funds(), b.Funds())
	}
}

func TestTransferFundsOppositeDirectionsDoNotDeadlock(t *testing.T) {
	r, empires := newTestRegistry(t, 2)
	a, b := empires[0], empires[1]
	for _, e := range empires {
		_ = e.Update(func(tx *Tx) error { tx.AdjustFunds(1000); return nil })
	}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.TransferFunds(a.ID(), b.ID(), 1)
		}()
		go func() {
			defer wg.Done()
			_ = r.TransferFunds(b.ID(), a.ID(), 1)
		}()
	}
	wg.Wait()

	if total := a.Funds() + b.Funds(); total != 2000 {
		t.Errorf("total funds = %d, want 2000", total)
	}
}
