package bank

import (
	"context"
	"log/slog"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// Aggregator fans out over the configured providers and implements
// ports.BankGateway. NotFound means "this provider has nothing" and the
// iteration continues; any other failure drops that provider's
// contribution but only surfaces when every provider came up empty.
type Aggregator struct {
	providers []Provider
	log       *slog.Logger
}

func NewAggregator(log *slog.Logger, providers ...Provider) *Aggregator {
	return &Aggregator{providers: providers, log: log}
}

// FindOpenBills unions results across providers rather than
// short-circuiting on the first hit.
func (a *Aggregator) FindOpenBills(ctx context.Context, identifier domain.Identifier) ([]domain.Bill, error) {
	var all []domain.Bill
	var lastErr error

	for _, p := range a.providers {
		bills, err := p.FindOpenBills(ctx, identifier)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			a.log.Warn("provider lookup failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		all = append(all, bills...)
	}

	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func (a *Aggregator) FetchDuplicatePDF(ctx context.Context, bill domain.Bill) ([]byte, bool, error) {
	var lastErr error
	for _, p := range a.providers {
		data, ok, err := p.FetchDuplicatePDF(ctx, bill)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			a.log.Warn("provider pdf fetch failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		if ok {
			return data, true, nil
		}
	}
	if lastErr != nil {
		return nil, false, lastErr
	}
	return nil, false, nil
}

func (a *Aggregator) FetchDuplicateData(ctx context.Context, bill domain.Bill) (*domain.DuplicateData, bool, error) {
	var lastErr error
	for _, p := range a.providers {
		dup, ok, err := p.FetchDuplicateData(ctx, bill)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			a.log.Warn("provider data fetch failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		if ok {
			return dup, true, nil
		}
	}
	if lastErr != nil {
		return nil, false, lastErr
	}
	return nil, false, nil
}
