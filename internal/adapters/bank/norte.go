package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// NorteConfig configures the Banco Norte integration
// (client-credentials grant, plain TLS).
type NorteConfig struct {
	BaseURL      string `yaml:"base_url" env:"NORTE_BASE_URL"`
	TokenURL     string `yaml:"token_url" env:"NORTE_TOKEN_URL"`
	ClientID     string `yaml:"client_id" env:"NORTE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"NORTE_CLIENT_SECRET"`
	Scope        string `yaml:"scope" env:"NORTE_SCOPE"`
}

// Configured reports whether the provider has credentials.
func (c NorteConfig) Configured() bool {
	return c.BaseURL != "" && c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Norte talks to the Banco Norte billing API.
type Norte struct {
	baseURL string
	tokens  tokenSource
	client  *http.Client
	log     *slog.Logger
}

func NewNorte(cfg NorteConfig, log *slog.Logger) *Norte {
	client := newHTTPClient(nil)
	log = log.With("provider", "norte")
	return &Norte{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  newClientCredentialsSource("norte", cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scope, client, log),
		client:  client,
		log:     log,
	}
}

func (n *Norte) Name() string { return "norte" }

type norteBill struct {
	ID             string  `json:"id"`
	NossoNumero    string  `json:"nossoNumero"`
	Contrato       string  `json:"contrato"`
	Valor          float64 `json:"valor"`
	DataVencimento string  `json:"dataVencimento"`
	Situacao       string  `json:"situacao"`
}

type norteBillList struct {
	Boletos []norteBill `json:"boletos"`
}

func (n *Norte) FindOpenBills(ctx context.Context, identifier domain.Identifier) ([]domain.Bill, error) {
	endpoint := fmt.Sprintf("%s/v1/boletos?documento=%s&situacao=aberto", n.baseURL, url.QueryEscape(identifier.Digits))

	var list norteBillList
	if err := n.getJSON(ctx, endpoint, &list); err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(list.Boletos))
	for _, b := range list.Boletos {
		bills = append(bills, domain.Bill{
			ID:             b.ID,
			OurNumber:      b.NossoNumero,
			ContractNumber: b.Contrato,
			Amount:         b.Valor,
			DueDate:        parseDate(b.DataVencimento),
			Status:         domain.BillOpen,
		})
	}
	return bills, nil
}

type nortePDF struct {
	PDF string `json:"pdf"`
}

func (n *Norte) FetchDuplicatePDF(ctx context.Context, bill domain.Bill) ([]byte, bool, error) {
	endpoint := fmt.Sprintf("%s/v1/boletos/%s/pdf", n.baseURL, url.PathEscape(bill.ID))

	var payload nortePDF
	if err := n.getJSON(ctx, endpoint, &payload); err != nil {
		if domain.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	data, ok := decodePDF(payload.PDF)
	return data, ok, nil
}

type norteDuplicate struct {
	LinhaDigitavel string  `json:"linhaDigitavel"`
	CodigoBarras   string  `json:"codigoBarras"`
	Valor          float64 `json:"valor"`
	DataVencimento string  `json:"dataVencimento"`
}

func (n *Norte) FetchDuplicateData(ctx context.Context, bill domain.Bill) (*domain.DuplicateData, bool, error) {
	endpoint := fmt.Sprintf("%s/v1/boletos/%s/segunda-via", n.baseURL, url.PathEscape(bill.ID))

	var payload norteDuplicate
	if err := n.getJSON(ctx, endpoint, &payload); err != nil {
		if domain.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if payload.LinhaDigitavel == "" && payload.CodigoBarras == "" {
		return nil, false, nil
	}
	return &domain.DuplicateData{
		DigitLine: payload.LinhaDigitavel,
		Barcode:   payload.CodigoBarras,
		Amount:    payload.Valor,
		DueDate:   parseDate(payload.DataVencimento),
	}, true, nil
}

func (n *Norte) getJSON(ctx context.Context, endpoint string, out any) error {
	token, err := n.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Error("request failed", "url", endpoint, "error", err)
		return transportError("norte", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify("norte", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
