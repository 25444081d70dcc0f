package empire

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	apperrors "empires-server/internal/shared/errors"
)

// Registry indexes the running empires by id.
type Registry struct {
	mu      sync.RWMutex
	empires map[int]*Empire
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		empires: make(map[int]*Empire),
		logger:  logger.With("component", "empire_registry"),
	}
}

func (r *Registry) Add(e *Empire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.empires[e.ID()] = e
	r.logger.Debug("Empire registered", "empire_id", e.ID(), "empire", e.Name())
}

func (r *Registry) Get(id int) (*Empire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.empires[id]
	if !ok {
		return nil, apperrors.WrapNotFound(fmt.Sprintf("empire %d", id), ErrEmpireNotFound)
	}
	return e, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.empires)
}

// Ordered returns every empire sorted by ascending id. The simulation loop
// visits empires in this order.
func (r *Registry) Ordered() []*Empire {
	r.mu.RLock()
	out := make([]*Empire, 0, len(r.empires))
	for _, e := range r.empires {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// CloseAll closes every inbox.
func (r *Registry) CloseAll() {
	for _, e := range r.Ordered() {
		e.Close()
	}
}

// TransferFunds moves amount from one treasury to another. Both empires are
// write-locked for the duration, lower id first.
func (r *Registry) TransferFunds(fromID, toID int, amount int64) error {
	logger := r.logger.With("operation", "transfer_funds", "from", fromID, "to", toID, "amount", amount)

	if amount <= 0 {
		return apperrors.WrapValidation("transfer amount must be positive", ErrInvalidTransfer)
	}
	if fromID == toID {
		return apperrors.WrapValidation("cannot transfer to the same empire", ErrInvalidTransfer)
	}

	from, err := r.Get(fromID)
	if err != nil {
		return err
	}
	to, err := r.Get(toID)
	if err != nil {
		return err
	}

	first, second := from, to
	if second.ID() < first.ID() {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if from.funds < amount {
		return apperrors.WrapValidation(
			fmt.Sprintf("empire %d holds %d, cannot send %d", fromID, from.funds, amount),
			ErrInvalidTransfer,
		)
	}
	if to.funds > math.MaxInt64-amount {
		return apperrors.WrapValidation(
			fmt.Sprintf("empire %d cannot hold %d more", toID, amount),
			ErrInvalidTransfer,
		)
	}
	from.funds -= amount
	to.funds += amount

	logger.Info("Funds transferred", "from_balance", from.funds, "to_balance", to.funds)
	return nil
}
