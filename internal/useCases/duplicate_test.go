package useCases

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"
	"github.com/segundavia/boleto_bot/internal/kvstore"
	"github.com/segundavia/boleto_bot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "5511999990000"
	validCPF = "529.982.247-25"
)

// --- stubs ---

type stubMessenger struct {
	mu    sync.Mutex
	texts []string
	docs  []string
}

func (m *stubMessenger) SendText(_ context.Context, _, text, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *stubMessenger) UploadMedia(_ context.Context, _ []byte, _, _, _ string) (string, error) {
	return "media-1", nil
}

func (m *stubMessenger) SendDocument(_ context.Context, _, _, filename, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, filename)
	return nil
}

func (m *stubMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type stubBank struct {
	bills   []domain.Bill
	findErr error
	pdf     []byte
	pdfOK   bool
	data    *domain.DuplicateData
	dataOK  bool
}

func (b *stubBank) FindOpenBills(context.Context, domain.Identifier) ([]domain.Bill, error) {
	return b.bills, b.findErr
}

func (b *stubBank) FetchDuplicatePDF(context.Context, domain.Bill) ([]byte, bool, error) {
	return b.pdf, b.pdfOK, nil
}

func (b *stubBank) FetchDuplicateData(context.Context, domain.Bill) (*domain.DuplicateData, bool, error) {
	return b.data, b.dataOK, nil
}

type stubStorage struct{}

func (stubStorage) Save(context.Context, []byte, string) (string, error) { return "file-1", nil }
func (stubStorage) Delete(context.Context, string) error                 { return nil }

type stubAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *stubAudit) AppendEvent(_ context.Context, eventType string, _ map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, eventType)
}

// --- harness ---

type fixture struct {
	svc       *Service
	sessions  *session.Store
	messenger *stubMessenger
	audit     *stubAudit
}

func newFixture(t *testing.T, bank *stubBank) *fixture {
	t.Helper()
	mem := kvstore.NewMemory()
	t.Cleanup(mem.Close)
	log := discardLogger()

	sessions := session.NewStore(mem, time.Minute, log)
	limiter := kvstore.NewRateLimiter(nil, log)
	messenger := &stubMessenger{}
	audit := &stubAudit{}

	svc := NewService(log, sessions, limiter, bank, messenger, stubStorage{}, audit, Config{
		Pepper:       "test-pepper",
		LookupLimit:  3,
		LookupWindow: time.Minute,
		SiteURL:      "https://example.com.br",
		ContactText:  "Fale com a gente: 0800 000 0000",
	})
	return &fixture{svc: svc, sessions: sessions, messenger: messenger, audit: audit}
}

func (f *fixture) send(text string) {
	f.svc.Process(context.Background(), domain.InboundMessage{From: testUser, Text: text, RequestID: "req-1"})
}

func (f *fixture) state(t *testing.T) (*session.State, bool) {
	t.Helper()
	return f.sessions.Get(context.Background(), testUser)
}

func twoBills() []domain.Bill {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return []domain.Bill{
		{ID: "1", OurNumber: "1001", Amount: 100.50, DueDate: due, Status: domain.BillOpen},
		{ID: "2", OurNumber: "1002", Amount: 220.00, DueDate: due.AddDate(0, 1, 0), Status: domain.BillOpen},
	}
}

// --- tests ---

func TestProcess_UnknownCommandShowsMenu(t *testing.T) {
	f := newFixture(t, &stubBank{})

	f.send("bom dia")
	assert.Equal(t, msgMenu, f.messenger.lastText())

	_, ok := f.state(t)
	assert.False(t, ok)
}

func TestProcess_StartDuplicateOpensSession(t *testing.T) {
	f := newFixture(t, &stubBank{})

	f.send("segunda via")
	assert.Equal(t, msgAskIdentifier, f.messenger.lastText())

	st, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.FlowDuplicate, st.ActiveFlow)
	assert.Equal(t, session.StepWaitingIdentifier, st.Step)
}

func TestFlow_InvalidIdentifierReprompts(t *testing.T) {
	f := newFixture(t, &stubBank{})

	f.send("1")
	f.send("123")
	assert.Equal(t, msgInvalidIdentifier, f.messenger.lastText())

	st, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingIdentifier, st.Step)
}

func TestFlow_ZeroBillsClearsSession(t *testing.T) {
	f := newFixture(t, &stubBank{})

	f.send("1")
	f.send(validCPF)

	assert.Contains(t, f.messenger.lastText(), "Não encontramos boletos")
	assert.Contains(t, f.messenger.lastText(), "***.982.247-**")

	_, ok := f.state(t)
	assert.False(t, ok, "no state may linger after the no-results path")
}

func TestFlow_LookupErrorClearsSessionAndApologizes(t *testing.T) {
	f := newFixture(t, &stubBank{
		findErr: &domain.BankError{Kind: domain.KindAuthFailed, Provider: "norte", Status: 401},
	})

	f.send("1")
	f.send(validCPF)

	assert.Equal(t, msgGenericError, f.messenger.lastText())
	_, ok := f.state(t)
	assert.False(t, ok)
	assert.Contains(t, f.audit.events, "lookup_failed")
}

func TestFlow_SingleBillShortCircuitsToFormat(t *testing.T) {
	f := newFixture(t, &stubBank{bills: twoBills()[:1]})

	f.send("1")
	f.send(validCPF)

	st, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingFormat, st.Step)
	assert.Equal(t, 0, st.Data.Selected)
	assert.Contains(t, f.messenger.lastText(), "1 boleto em aberto")
}

func TestFlow_SelectionThenBackKeepsBillList(t *testing.T) {
	f := newFixture(t, &stubBank{bills: twoBills()})

	f.send("1")
	f.send(validCPF)

	st, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingSelection, st.Step)

	f.send("2")
	st, ok = f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingFormat, st.Step)
	assert.Equal(t, 1, st.Data.Selected)

	f.send("0")
	st, ok = f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingSelection, st.Step)
	assert.Len(t, st.Data.Bills, 2, "back must not drop the fetched list")

	// the session never holds the raw document
	assert.NotEmpty(t, st.Data.IdentifierHash)
	assert.NotContains(t, st.Data.IdentifierMasked, "52998224725")
}

func TestFlow_InvalidSelectionReprompts(t *testing.T) {
	f := newFixture(t, &stubBank{bills: twoBills()})

	f.send("1")
	f.send(validCPF)
	f.send("9")

	st, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, session.StepWaitingSelection, st.Step)
	assert.Contains(t, f.messenger.lastText(), "Opção inválida")
}

func TestFlow_PDFDelivered(t *testing.T) {
	f := newFixture(t, &stubBank{
		bills: twoBills()[:1],
		pdf:   []byte("%PDF-1.4"),
		pdfOK: true,
	})

	f.send("1")
	f.send(validCPF)
	f.send("1")

	f.messenger.mu.Lock()
	docs := f.messenger.docs
	f.messenger.mu.Unlock()
	require.Len(t, docs, 1)
	assert.Equal(t, "boleto-1001.pdf", docs[0])

	_, ok := f.state(t)
	assert.False(t, ok, "delivery is terminal")
	assert.Contains(t, f.audit.events, "duplicate_sent")
}

func TestFlow_PDFUnavailableFallsBackAndClears(t *testing.T) {
	f := newFixture(t, &stubBank{
		bills:  twoBills()[:1],
		pdfOK:  false,
		data:   &domain.DuplicateData{DigitLine: "0019...", Barcode: "00191..."},
		dataOK: true,
	})

	f.send("1")
	f.send(validCPF)
	f.send("1")

	assert.Equal(t, msgPDFUnavailable, f.messenger.lastText())
	_, ok := f.state(t)
	assert.False(t, ok, "session must be cleared even on the fallback path")
}

func TestFlow_DigitLineDelivered(t *testing.T) {
	due := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, &stubBank{
		bills:  twoBills()[:1],
		data:   &domain.DuplicateData{DigitLine: "00190.00009 01234.567890", Amount: 100.50, DueDate: due},
		dataOK: true,
	})

	f.send("1")
	f.send(validCPF)
	f.send("3")

	last := f.messenger.lastText()
	assert.Contains(t, last, "Linha digitável")
	assert.Contains(t, last, "00190.00009 01234.567890")

	_, ok := f.state(t)
	assert.False(t, ok)
}

func TestFlow_RateLimitedClearsSession(t *testing.T) {
	f := newFixture(t, &stubBank{})

	// limit is 3 lookups per window; invalid identifiers do not count,
	// so burn the budget with valid ones
	for i := 0; i < 3; i++ {
		f.send("1")
		f.send(validCPF)
	}
	f.send("1")
	f.send(validCPF)

	assert.Equal(t, msgRateLimited, f.messenger.lastText())
	_, ok := f.state(t)
	assert.False(t, ok)
	assert.Contains(t, f.audit.events, "lookup_rate_limited")
}

func TestProcess_DeleteDataClearsEverything(t *testing.T) {
	f := newFixture(t, &stubBank{bills: twoBills()})

	f.send("1")
	f.send(validCPF)

	// erasure is a global command: it must work even while a selection
	// step is active
	f.send("apagar meus dados")
	assert.Equal(t, msgDataDeleted, f.messenger.lastText())

	_, ok := f.state(t)
	assert.False(t, ok)
	assert.Contains(t, f.audit.events, "data_erasure")
}

func TestProcess_ContactAndSite(t *testing.T) {
	f := newFixture(t, &stubBank{})

	f.send("contato")
	assert.Contains(t, f.messenger.lastText(), "0800")

	f.send("site")
	assert.True(t, strings.HasSuffix(f.messenger.lastText(), "https://example.com.br"))
}
