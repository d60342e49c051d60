package ports

import (
	"context"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// BankGateway is the provider-facing repository consumed by use cases.
// Implemented by the bank aggregator.
type BankGateway interface {
	// FindOpenBills returns the open titles for an identifier across all
	// configured providers.
	FindOpenBills(ctx context.Context, identifier domain.Identifier) ([]domain.Bill, error)
	// FetchDuplicatePDF returns the duplicate document, or ok=false when
	// no provider has one.
	FetchDuplicatePDF(ctx context.Context, bill domain.Bill) (data []byte, ok bool, err error)
	// FetchDuplicateData returns the textual payment encodings, or
	// ok=false when no provider has them.
	FetchDuplicateData(ctx context.Context, bill domain.Bill) (dup *domain.DuplicateData, ok bool, err error)
}
