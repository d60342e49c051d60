package bank

import (
	"crypto/rsa"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pkcs12"
)

const httpTimeout = 30 * time.Second

// newHTTPClient returns the outbound client used for token and API
// calls. When cert is non-nil every call presents the client
// certificate; server verification is always left on.
func newHTTPClient(cert *tls.Certificate) *http.Client {
	client := &http.Client{Timeout: httpTimeout}
	if cert != nil {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{*cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	}
	return client
}

// loadCertificatePEM reads a client certificate from separate PEM files.
func loadCertificatePEM(certFile, keyFile string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return cert, nil
}

// loadPKCS12 extracts the client certificate and its RSA private key
// from a .pfx bundle.
func loadPKCS12(path, password string) (tls.Certificate, *rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("read pkcs12 bundle: %w", err)
	}

	blocks, err := pkcs12.ToPEM(raw, password)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("decode pkcs12 bundle: %w", err)
	}

	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}

	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("assemble key pair: %w", err)
	}

	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return tls.Certificate{}, nil, fmt.Errorf("pkcs12 bundle holds a %T, want RSA key", cert.PrivateKey)
	}
	return cert, key, nil
}

// loadPrivateKeyPEM reads a PEM-encoded RSA private key used for
// assertion signing.
func loadPrivateKeyPEM(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
