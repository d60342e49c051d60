package bank

import (
	"context"
	"net/http"
	"testing"

	"github.com/segundavia/boleto_bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider answers from canned data.
type stubProvider struct {
	name    string
	bills   []domain.Bill
	findErr error

	pdf     []byte
	pdfOK   bool
	pdfErr  error
	data    *domain.DuplicateData
	dataOK  bool
	dataErr error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FindOpenBills(context.Context, domain.Identifier) ([]domain.Bill, error) {
	return s.bills, s.findErr
}

func (s *stubProvider) FetchDuplicatePDF(context.Context, domain.Bill) ([]byte, bool, error) {
	return s.pdf, s.pdfOK, s.pdfErr
}

func (s *stubProvider) FetchDuplicateData(context.Context, domain.Bill) (*domain.DuplicateData, bool, error) {
	return s.data, s.dataOK, s.dataErr
}

func notFoundErr(provider string) error {
	return &domain.BankError{Kind: domain.KindNotFound, Provider: provider, Status: http.StatusNotFound}
}

func authErr(provider string) error {
	return &domain.BankError{Kind: domain.KindAuthFailed, Provider: provider, Status: http.StatusUnauthorized}
}

func TestAggregator_NotFoundIsEmptyNotFailure(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a", findErr: notFoundErr("a")},
		&stubProvider{name: "b", bills: []domain.Bill{{ID: "1"}, {ID: "2"}}},
	)

	bills, err := a.FindOpenBills(context.Background(), domain.Identifier{Digits: "52998224725"})
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}

func TestAggregator_UnionsAcrossProviders(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a", bills: []domain.Bill{{ID: "a1"}}},
		&stubProvider{name: "b", bills: []domain.Bill{{ID: "b1"}}},
	)

	bills, err := a.FindOpenBills(context.Background(), domain.Identifier{Digits: "52998224725"})
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}

func TestAggregator_AllProvidersFailRaisesLastError(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a", findErr: authErr("a")},
		NewNoop("b"),
	)

	_, err := a.FindOpenBills(context.Background(), domain.Identifier{Digits: "52998224725"})
	require.Error(t, err)

	var be *domain.BankError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, domain.KindAuthFailed, be.Kind)
}

func TestAggregator_PartialFailureStillReturnsBills(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a", findErr: authErr("a")},
		&stubProvider{name: "b", bills: []domain.Bill{{ID: "b1"}}},
	)

	bills, err := a.FindOpenBills(context.Background(), domain.Identifier{Digits: "52998224725"})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestAggregator_PDFFallsThroughToNextProvider(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a"},
		&stubProvider{name: "b", pdf: []byte("%PDF-1.4"), pdfOK: true},
	)

	data, ok, err := a.FetchDuplicatePDF(context.Background(), domain.Bill{ID: "1"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestAggregator_PDFAbsentEverywhere(t *testing.T) {
	a := NewAggregator(discardLogger(), &stubProvider{name: "a"}, NewNoop("b"))

	_, ok, err := a.FetchDuplicatePDF(context.Background(), domain.Bill{ID: "1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAggregator_DataErrorSurfacesWhenNothingFound(t *testing.T) {
	a := NewAggregator(discardLogger(),
		&stubProvider{name: "a", dataErr: authErr("a")},
		NewNoop("b"),
	)

	_, ok, err := a.FetchDuplicateData(context.Background(), domain.Bill{ID: "1"})
	assert.False(t, ok)
	require.Error(t, err)
}
