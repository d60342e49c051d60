package bank

import (
	"context"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// Provider is one configured bank integration. The aggregator fans out
// over providers in priority order; unconfigured slots are filled with
// Noop so the fan-out never special-cases absence.
type Provider interface {
	Name() string
	FindOpenBills(ctx context.Context, identifier domain.Identifier) ([]domain.Bill, error)
	FetchDuplicatePDF(ctx context.Context, bill domain.Bill) ([]byte, bool, error)
	FetchDuplicateData(ctx context.Context, bill domain.Bill) (*domain.DuplicateData, bool, error)
}

// Noop stands in for a provider without credentials. It always returns
// empty results and never fails.
type Noop struct {
	name string
}

func NewNoop(name string) *Noop { return &Noop{name: name} }

func (n *Noop) Name() string { return n.name }

func (n *Noop) FindOpenBills(context.Context, domain.Identifier) ([]domain.Bill, error) {
	return nil, nil
}

func (n *Noop) FetchDuplicatePDF(context.Context, domain.Bill) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *Noop) FetchDuplicateData(context.Context, domain.Bill) (*domain.DuplicateData, bool, error) {
	return nil, false, nil
}
