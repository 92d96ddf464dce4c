package ups

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// MockTransport is a canned Transport for testing and for running the
// service without UPS credentials. The default behavior answers the
// token endpoint with a long-lived token and the rating endpoint with a
// three-service Shop response; hooks override either call per test.
type MockTransport struct {
	OnPost     func(ctx context.Context, endpoint string, body any, opts RequestOptions) (*Response, error)
	OnPostForm func(ctx context.Context, endpoint string, form url.Values, opts RequestOptions) (*Response, error)

	mu            sync.Mutex
	postCalls     int
	postFormCalls int
}

// NewMockTransport creates a mock transport with default behavior.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// PostCalls returns how many rating (JSON) calls were made.
func (m *MockTransport) PostCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postCalls
}

// PostFormCalls returns how many token (form) calls were made.
func (m *MockTransport) PostFormCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postFormCalls
}

// Post answers a rating call.
func (m *MockTransport) Post(ctx context.Context, endpoint string, body any, opts RequestOptions) (*Response, error) {
	m.mu.Lock()
	m.postCalls++
	m.mu.Unlock()

	if m.OnPost != nil {
		return m.OnPost(ctx, endpoint, body, opts)
	}
	return JSONResponse(200, MockRateResponseBody), nil
}

// PostForm answers a token exchange.
func (m *MockTransport) PostForm(ctx context.Context, endpoint string, form url.Values, opts RequestOptions) (*Response, error) {
	m.mu.Lock()
	m.postFormCalls++
	m.mu.Unlock()

	if m.OnPostForm != nil {
		return m.OnPostForm(ctx, endpoint, form, opts)
	}
	return JSONResponse(200, MockTokenResponseBody), nil
}

// JSONResponse builds a transport response with a JSON content type.
func JSONResponse(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(body),
	}
}

// MockTokenResponseBody is a successful OAuth exchange with an hour of
// validity.
const MockTokenResponseBody = `{
  "access_token": "mock_token_abc123",
  "token_type": "Bearer",
  "expires_in": 3600,
  "issued_at": "2024-01-01T00:00:00Z"
}`

// MockRateResponseBody is a Shop response with ground, second-day and
// next-day services.
var MockRateResponseBody = strings.TrimSpace(`
{
  "RateResponse": {
    "Response": {"TransactionReference": {"CustomerContext": "mock"}},
    "RatedShipment": [
      {
        "Service": {"Code": "03", "Description": "UPS Ground"},
        "TotalCharge": {"CurrencyCode": "USD", "MonetaryValue": "12.45"},
        "GuaranteedDelivery": {"BusinessDaysInTransit": "3"}
      },
      {
        "Service": {"Code": "02", "Description": "2nd Day Air"},
        "TotalCharge": {"CurrencyCode": "USD", "MonetaryValue": "24.99"},
        "GuaranteedDelivery": {"BusinessDaysInTransit": "2"}
      },
      {
        "Service": {"Code": "01", "Description": "Next Day Air"},
        "TotalCharge": {"CurrencyCode": "USD", "MonetaryValue": "48.00"},
        "GuaranteedDelivery": {"BusinessDaysInTransit": "1"}
      }
    ]
  }
}`)

var _ Transport = (*MockTransport)(nil)
