package ups_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/cybership/rating/pkg/carrier"
	"github.com/cybership/rating/pkg/carrier/ups"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig() ups.Config {
	return ups.Config{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		BaseURL:      "https://wwwcie.ups.com/api",
		Timeout:      5 * time.Second,
	}
}

func TestTokenURL(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://wwwcie.ups.com/api", "https://wwwcie.ups.com/security/v1/oauth/token"},
		{"https://wwwcie.ups.com/api/", "https://wwwcie.ups.com/security/v1/oauth/token"},
		{"https://onlinetools.ups.com", "https://onlinetools.ups.com/security/v1/oauth/token"},
	}
	for _, tt := range tests {
		cfg := authConfig()
		cfg.BaseURL = tt.baseURL
		auth := ups.NewAuthClient(cfg, ups.NewMockTransport(), cfg.Timeout)
		assert.Equal(t, tt.want, auth.TokenURL(), "base %q", tt.baseURL)
	}
}

func TestToken_ExchangesWithClientCredentials(t *testing.T) {
	transport := ups.NewMockTransport()
	var gotForm url.Values
	var gotAuth string
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		gotForm = form
		gotAuth = opts.Headers["Authorization"]
		return ups.JSONResponse(200, ups.MockTokenResponseBody), nil
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	token, err := auth.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "mock_token_abc123", token)
	assert.Equal(t, "client_credentials", gotForm.Get("grant_type"))

	basic := base64.StdEncoding.EncodeToString([]byte("test_client:test_secret"))
	assert.Equal(t, "Basic "+basic, gotAuth)
}

func TestToken_ReusesCachedToken(t *testing.T) {
	transport := ups.NewMockTransport()
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	for i := 0; i < 3; i++ {
		token, err := auth.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "mock_token_abc123", token)
	}

	assert.Equal(t, 1, transport.PostFormCalls())
}

func TestToken_ReExchangesInsideExpiryBuffer(t *testing.T) {
	// A 30s lifetime is shorter than the 60s refresh buffer, so the
	// cached token is never considered fresh.
	transport := ups.NewMockTransport()
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		return ups.JSONResponse(200, `{"access_token": "short_lived", "token_type": "Bearer", "expires_in": 30}`), nil
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())
	require.NoError(t, err)
	_, err = auth.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, transport.PostFormCalls())
}

func TestToken_InvalidCredentials(t *testing.T) {
	transport := ups.NewMockTransport()
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		return ups.JSONResponse(401, `{"error": "invalid_client"}`), nil
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())

	assert.Equal(t, carrier.ErrorAuthFailed, carrier.KindOf(err))
	assert.False(t, carrier.IsRetryable(err))
}

func TestToken_ErrorDescriptionSurfaced(t *testing.T) {
	transport := ups.NewMockTransport()
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		return ups.JSONResponse(400, `{"error": "invalid_request", "error_description": "Grant type is required"}`), nil
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())

	require.Error(t, err)
	assert.Equal(t, carrier.ErrorAuthFailed, carrier.KindOf(err))
	assert.Contains(t, err.Error(), "Grant type is required")
}

func TestToken_MalformedSuccessBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing access token", `{"token_type": "Bearer", "expires_in": 3600}`},
		{"non-numeric expiry", `{"access_token": "tok", "expires_in": "soon"}`},
		{"zero expiry", `{"access_token": "tok", "expires_in": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := ups.NewMockTransport()
			transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
				return ups.JSONResponse(200, tt.body), nil
			}
			auth := ups.NewAuthClient(authConfig(), transport, time.Second)

			_, err := auth.Token(context.Background())

			assert.Equal(t, carrier.ErrorAuthFailed, carrier.KindOf(err))
		})
	}
}

func TestToken_NetworkAndTimeoutClassification(t *testing.T) {
	transport := ups.NewMockTransport()
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())
	assert.Equal(t, carrier.ErrorNetwork, carrier.KindOf(err))
	assert.True(t, carrier.IsRetryable(err))

	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		return nil, context.DeadlineExceeded
	}
	_, err = auth.Token(context.Background())
	assert.Equal(t, carrier.ErrorTimeout, carrier.KindOf(err))
}

func TestRefresh_DiscardsCachedToken(t *testing.T) {
	transport := ups.NewMockTransport()
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, transport.PostFormCalls())
}

func TestClearCache_ForcesReExchange(t *testing.T) {
	transport := ups.NewMockTransport()
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	auth.ClearCache()

	_, err = auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, transport.PostFormCalls())
}

func TestToken_FailedExchangeDoesNotPoisonCache(t *testing.T) {
	transport := ups.NewMockTransport()
	fail := false
	transport.OnPostForm = func(ctx context.Context, endpoint string, form url.Values, opts ups.RequestOptions) (*ups.Response, error) {
		if fail {
			return ups.JSONResponse(500, `{}`), nil
		}
		return ups.JSONResponse(200, ups.MockTokenResponseBody), nil
	}
	auth := ups.NewAuthClient(authConfig(), transport, time.Second)

	fail = true
	_, err := auth.Token(context.Background())
	require.Error(t, err)

	// The failure left no cache entry behind; the next call exchanges
	// again and succeeds.
	fail = false
	token, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock_token_abc123", token)
}
