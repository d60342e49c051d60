// Package bank integrates the configured bill providers: credential
// exchange, token caching, mutual TLS and the fan-out aggregator that
// normalizes every provider behind ports.BankGateway.
package bank

import (
	"net/http"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// classify maps a transport status code into the shared error taxonomy.
func classify(provider string, status int, msg string) *domain.BankError {
	kind := domain.KindUnknown
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.KindAuthFailed
	case http.StatusNotFound:
		kind = domain.KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = domain.KindBadRequest
	case http.StatusTooManyRequests:
		kind = domain.KindRateLimited
	}
	return &domain.BankError{Kind: kind, Provider: provider, Status: status, Msg: msg}
}

// transportError wraps a failure that never reached the provider
// (connection refused, timeout) as Unknown with no status code.
func transportError(provider string, err error) *domain.BankError {
	return &domain.BankError{Kind: domain.KindUnknown, Provider: provider, Msg: err.Error()}
}
