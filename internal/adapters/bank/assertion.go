package bank

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime = time.Hour
)

// assertionSource implements the OAuth2 JWT-bearer grant: a signed
// RS256 assertion proves client identity instead of a client secret.
type assertionSource struct {
	provider string
	tokenURL string
	clientID string
	ver      string
	key      *rsa.PrivateKey
	client   *http.Client
	log      *slog.Logger
	cache    tokenCache
}

func newAssertionSource(provider, tokenURL, clientID, ver string, key *rsa.PrivateKey, client *http.Client, log *slog.Logger) *assertionSource {
	return &assertionSource{
		provider: provider,
		tokenURL: tokenURL,
		clientID: clientID,
		ver:      ver,
		key:      key,
		client:   client,
		log:      log,
		cache:    tokenCache{margin: defaultExpiryMargin},
	}
}

func (s *assertionSource) Token(ctx context.Context) (string, error) {
	return s.cache.token(ctx, func(ctx context.Context) (string, time.Duration, error) {
		assertion, err := s.buildAssertion(time.Now())
		if err != nil {
			return "", 0, fmt.Errorf("build assertion: %w", err)
		}
		form := url.Values{
			"grant_type": {jwtBearerGrant},
			"assertion":  {assertion},
			"client_id":  {s.clientID},
		}
		return postTokenForm(ctx, s.client, s.log, s.provider, s.tokenURL, form)
	})
}

func (s *assertionSource) buildAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"aud": s.tokenURL,
		"sub": s.clientID,
		"iat": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
		"jti": uuid.NewString(),
	}
	if s.ver != "" {
		claims["ver"] = s.ver
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.key)
}
