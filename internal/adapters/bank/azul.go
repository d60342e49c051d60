package bank

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// AzulConfig configures the Banco Azul integration (JWT-bearer
// assertion grant over mutual TLS). The client certificate comes either
// from a PEM pair or from a PKCS#12 bundle plus its passphrase.
type AzulConfig struct {
	BaseURL  string `yaml:"base_url" env:"AZUL_BASE_URL"`
	TokenURL string `yaml:"token_url" env:"AZUL_TOKEN_URL"`
	ClientID string `yaml:"client_id" env:"AZUL_CLIENT_ID"`
	Ver      string `yaml:"ver" env:"AZUL_VER" env-default:"1.1"`

	CertFile    string `yaml:"cert_file" env:"AZUL_CERT_FILE"`
	KeyFile     string `yaml:"key_file" env:"AZUL_KEY_FILE"`
	PFXFile     string `yaml:"pfx_file" env:"AZUL_PFX_FILE"`
	PFXPassword string `yaml:"pfx_password" env:"AZUL_PFX_PASSWORD"`
}

// Configured reports whether the provider has credentials.
func (c AzulConfig) Configured() bool {
	if c.BaseURL == "" || c.TokenURL == "" || c.ClientID == "" {
		return false
	}
	return c.PFXFile != "" || (c.CertFile != "" && c.KeyFile != "")
}

// Azul talks to the Banco Azul collection API.
type Azul struct {
	baseURL string
	tokens  tokenSource
	client  *http.Client
	log     *slog.Logger
}

func NewAzul(cfg AzulConfig, log *slog.Logger) (*Azul, error) {
	var (
		cert tls.Certificate
		key  *rsa.PrivateKey
		err  error
	)
	if cfg.PFXFile != "" {
		cert, key, err = loadPKCS12(cfg.PFXFile, cfg.PFXPassword)
		if err != nil {
			return nil, err
		}
	} else {
		cert, err = loadCertificatePEM(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		key, err = loadPrivateKeyPEM(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
	}

	client := newHTTPClient(&cert)
	log = log.With("provider", "azul")
	return &Azul{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  newAssertionSource("azul", cfg.TokenURL, cfg.ClientID, cfg.Ver, key, client, log),
		client:  client,
		log:     log,
	}, nil
}

func (a *Azul) Name() string { return "azul" }

type azulTitle struct {
	NossoNumero        string  `json:"nossoNumero"`
	NumeroContrato     string  `json:"numeroContrato"`
	CodigoBeneficiario string  `json:"codigoBeneficiario"`
	ValorNominal       float64 `json:"valorNominal"`
	DataVencimento     string  `json:"dataVencimento"`
	SituacaoTitulo     string  `json:"situacaoTitulo"`
}

type azulTitleList struct {
	Titulos []azulTitle `json:"titulos"`
}

func (a *Azul) FindOpenBills(ctx context.Context, identifier domain.Identifier) ([]domain.Bill, error) {
	body := map[string]string{
		"documento": identifier.Digits,
		"situacao":  "EMABERTO",
	}

	var list azulTitleList
	if err := a.postJSON(ctx, a.baseURL+"/cobranca/v2/titulos/consulta", body, &list); err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(list.Titulos))
	for _, t := range list.Titulos {
		bills = append(bills, domain.Bill{
			ID:              t.NossoNumero,
			OurNumber:       t.NossoNumero,
			ContractNumber:  t.NumeroContrato,
			BeneficiaryCode: t.CodigoBeneficiario,
			Amount:          t.ValorNominal,
			DueDate:         parseDate(t.DataVencimento),
			Status:          domain.BillOpen,
		})
	}
	return bills, nil
}

type azulDuplicate struct {
	Documento      string  `json:"documento"` // base64 PDF
	LinhaDigitavel string  `json:"linhaDigitavel"`
	CodigoBarras   string  `json:"codigoBarras"`
	ValorNominal   float64 `json:"valorNominal"`
	DataVencimento string  `json:"dataVencimento"`
}

// fetchDuplicate hits the single segunda-via endpoint; the two public
// operations pick the fields they need.
func (a *Azul) fetchDuplicate(ctx context.Context, bill domain.Bill) (*azulDuplicate, bool, error) {
	body := map[string]string{
		"nossoNumero":        bill.OurNumber,
		"codigoBeneficiario": bill.BeneficiaryCode,
	}

	var dup azulDuplicate
	if err := a.postJSON(ctx, a.baseURL+"/cobranca/v2/titulos/segunda-via", body, &dup); err != nil {
		if domain.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &dup, true, nil
}

func (a *Azul) FetchDuplicatePDF(ctx context.Context, bill domain.Bill) ([]byte, bool, error) {
	dup, ok, err := a.fetchDuplicate(ctx, bill)
	if err != nil || !ok {
		return nil, false, err
	}
	data, ok := decodePDF(dup.Documento)
	return data, ok, nil
}

func (a *Azul) FetchDuplicateData(ctx context.Context, bill domain.Bill) (*domain.DuplicateData, bool, error) {
	dup, ok, err := a.fetchDuplicate(ctx, bill)
	if err != nil || !ok {
		return nil, false, err
	}
	if dup.LinhaDigitavel == "" && dup.CodigoBarras == "" {
		return nil, false, nil
	}
	return &domain.DuplicateData{
		DigitLine: dup.LinhaDigitavel,
		Barcode:   dup.CodigoBarras,
		Amount:    dup.ValorNominal,
		DueDate:   parseDate(dup.DataVencimento),
	}, true, nil
}

func (a *Azul) postJSON(ctx context.Context, endpoint string, body any, out any) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Error("request failed", "url", endpoint, "error", err)
		return transportError("azul", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify("azul", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
