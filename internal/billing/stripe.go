package billing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultStripeBase = "https://api.stripe.com"

// StripeClient talks to the Stripe REST API directly; only payment intents
// are needed.
type StripeClient struct {
	SecretKey string
	BaseURL   string
	HTTP      *http.Client
}

func NewStripeClient(secretKey, baseURL string) *StripeClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultStripeBase
	}
	return &StripeClient{
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// ProviderError is a non-2xx answer from the payment provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment provider returned %d", e.Status)
	}
	return fmt.Sprintf("payment provider returned %d: %s", e.Status, e.Message)
}

// CreatePaymentIntent creates a card-only intent for amount minor units.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error) {
	if c.SecretKey == "" {
		return nil, &ProviderError{Status: http.StatusServiceUnavailable, Message: "payment provider not configured"}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Add("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, &ProviderError{Status: res.StatusCode, Message: gjson.GetBytes(body, "error.message").String()}
	}

	parsed := gjson.ParseBytes(body)
	secret := parsed.Get("client_secret").String()
	if secret == "" {
		return nil, &ProviderError{Status: res.StatusCode, Message: "response has no client_secret"}
	}
	return &PaymentIntent{
		ID:           parsed.Get("id").String(),
		ClientSecret: secret,
		Amount:       parsed.Get("amount").Int(),
		Currency:     parsed.Get("currency").String(),
	}, nil
}

func (c *StripeClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
