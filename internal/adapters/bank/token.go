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
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// defaultExpiryMargin keeps a token from being presented so close to
// expiry that an in-flight request could be rejected mid-call.
const defaultExpiryMargin = 60 * time.Second

// tokenSource produces a bearer token for provider calls.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

func (c cachedToken) valid(now time.Time) bool {
	return c.token != "" && now.Before(c.expiresAt)
}

// tokenCache holds the shared caching and refresh-deduplication logic
// for both grant strategies. Refresh replaces the cell, it never
// mutates a token in place; concurrent refreshes collapse into one
// upstream call via singleflight.
type tokenCache struct {
	margin time.Duration

	mu     sync.Mutex
	cached cachedToken
	group  singleflight.Group
}

func (c *tokenCache) token(ctx context.Context, fetch func(ctx context.Context) (string, time.Duration, error)) (string, error) {
	c.mu.Lock()
	cur := c.cached
	c.mu.Unlock()
	if cur.valid(time.Now()) {
		return cur.token, nil
	}

	val, err, _ := c.group.Do("token", func() (any, error) {
		c.mu.Lock()
		cur := c.cached
		c.mu.Unlock()
		if cur.valid(time.Now()) {
			return cur.token, nil
		}

		token, expiresIn, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.cached = cachedToken{token: token, expiresAt: time.Now().Add(expiresIn - c.margin)}
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// postTokenForm exchanges form-encoded credentials at tokenURL and
// returns the access token with its lifetime.
func postTokenForm(ctx context.Context, client *http.Client, log *slog.Logger, provider, tokenURL string, form url.Values) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("new token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		log.Error("token request failed", "provider", provider, "error", err)
		return "", 0, transportError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error("token endpoint returned error",
			"provider", provider,
			"status", resp.StatusCode,
			"body", string(body),
		)
		// credential exchange failures are auth failures regardless of the
		// exact 4xx the endpoint picked
		be := classify(provider, resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			be.Kind = domain.KindAuthFailed
		}
		return "", 0, be
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, transportError(provider, fmt.Errorf("empty access_token"))
	}
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}

// clientCredentialsSource implements the OAuth2 client-credentials grant.
type clientCredentialsSource struct {
	provider     string
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	client       *http.Client
	log          *slog.Logger
	cache        tokenCache
}

func newClientCredentialsSource(provider, tokenURL, clientID, clientSecret, scope string, client *http.Client, log *slog.Logger) *clientCredentialsSource {
	return &clientCredentialsSource{
		provider:     provider,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		client:       client,
		log:          log,
		cache:        tokenCache{margin: defaultExpiryMargin},
	}
}

func (s *clientCredentialsSource) Token(ctx context.Context) (string, error) {
	return s.cache.token(ctx, func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {s.clientID},
			"client_secret": {s.clientSecret},
		}
		if s.scope != "" {
			form.Set("scope", s.scope)
		}
		return postTokenForm(ctx, s.client, s.log, s.provider, s.tokenURL, form)
	})
}
