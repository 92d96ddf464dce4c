package ups

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cybership/rating/pkg/carrier"
	"golang.org/x/sync/singleflight"
)

const grantType = "client_credentials"

// refreshBuffer keeps a token from being handed out so close to expiry
// that it could lapse mid-flight on a slow network.
const refreshBuffer = 60 * time.Second

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// AuthClient manages the OAuth bearer credential for one UPS account.
// It holds a one-slot cache: this client handles exactly one configured
// credential pair, so there is nothing else to key on. The cache is
// replaced wholesale on refresh and only ever written after a successful
// exchange, so a failed or timed-out exchange cannot poison it.
type AuthClient struct {
	config    Config
	transport Transport
	timeout   time.Duration

	mu    sync.Mutex
	cache *cachedToken
	group singleflight.Group
}

// NewAuthClient creates an auth client over the given transport.
func NewAuthClient(cfg Config, transport Transport, timeout time.Duration) *AuthClient {
	return &AuthClient{
		config:    cfg,
		transport: transport,
		timeout:   timeout,
	}
}

// TokenURL derives the token endpoint from the configured base URL. The
// rating base URL ends in /api; the security endpoints live beside it,
// not under it.
func (a *AuthClient) TokenURL() string {
	base := strings.TrimSuffix(a.config.BaseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return base + "/security/v1/oauth/token"
}

// Token returns a bearer token, reusing the cached one while its expiry
// is more than refreshBuffer in the future. Concurrent callers needing
// an exchange coalesce into a single outbound call.
func (a *AuthClient) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.cache != nil && a.cache.expiresAt.After(time.Now().Add(refreshBuffer)) {
		token := a.cache.accessToken
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	return a.exchange(ctx)
}

// Refresh unconditionally discards the cache and re-exchanges. Use only
// after an observed 401 downstream; the rejected token must not be
// trusted again.
func (a *AuthClient) Refresh(ctx context.Context) (string, error) {
	a.mu.Lock()
	a.cache = nil
	a.mu.Unlock()

	return a.exchange(ctx)
}

// ClearCache drops the cached token without exchanging.
func (a *AuthClient) ClearCache() {
	a.mu.Lock()
	a.cache = nil
	a.mu.Unlock()
}

func (a *AuthClient) exchange(ctx context.Context) (string, error) {
	token, err, _ := a.group.Do("exchange", func() (any, error) {
		return a.doExchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (a *AuthClient) doExchange(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {grantType}}
	basic := base64.StdEncoding.EncodeToString(
		[]byte(a.config.ClientID + ":" + a.config.ClientSecret))

	resp, err := a.transport.PostForm(ctx, a.TokenURL(), form, RequestOptions{
		Headers: map[string]string{"Authorization": "Basic " + basic},
		Timeout: a.timeout,
	})
	if err != nil {
		if isTimeout(err) {
			return "", carrier.NewTimeout("UPS OAuth token request timed out")
		}
		return "", carrier.NewNetworkError("UPS OAuth token request failed", err)
	}

	if resp.Status == 401 {
		return "", carrier.NewAuthFailed("invalid UPS client id or secret", nil)
	}
	if resp.Status != 200 {
		msg := fmt.Sprintf("UPS OAuth returned %d", resp.Status)
		var body tokenErrorResponse
		if err := json.Unmarshal(resp.Body, &body); err == nil && body.ErrorDescription != "" {
			msg = body.ErrorDescription
		}
		return "", carrier.NewAuthFailed(msg, nil)
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", carrier.NewAuthFailed("invalid UPS token response shape", err)
	}
	expiresIn, err := body.ExpiresIn.Int64()
	if body.AccessToken == "" || err != nil || expiresIn <= 0 {
		return "", carrier.NewAuthFailed("invalid UPS token response shape", nil)
	}

	a.mu.Lock()
	a.cache = &cachedToken{
		accessToken: body.AccessToken,
		expiresAt:   time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
	a.mu.Unlock()

	return body.AccessToken, nil
}
