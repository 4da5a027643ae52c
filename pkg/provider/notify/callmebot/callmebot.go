// Package callmebot provides a CallMeBot-backed notify provider that delivers
// WhatsApp messages through the CallMeBot HTTP gateway.
//
// The gateway expects a single GET request per message:
//
//	GET {base}/whatsapp.php?phone={phone}&text={text}&apikey={key}
//
// and answers 200 with a human-readable body. Anything other than a 2xx
// status is treated as a delivery failure.
package callmebot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
)

// Compile-time interface assertion.
var _ notify.Provider = (*Provider)(nil)

const (
	defaultBaseURL = "https://api.callmebot.com"
	defaultTimeout = 5 * time.Second

	// maxErrorBody caps how much of an error response body is included in
	// returned errors.
	maxErrorBody = 256
)

// Option is a functional option for configuring the CallMeBot Provider.
type Option func(*Provider)

// WithBaseURL overrides the default gateway base URL. Useful in tests.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 5 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements notify.Provider backed by the CallMeBot gateway.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a new CallMeBot Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("callmebot: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Send implements notify.Provider.
func (p *Provider) Send(ctx context.Context, phone, text string) error {
	if phone == "" {
		return errors.New("callmebot: phone must not be empty")
	}
	if text == "" {
		return errors.New("callmebot: text must not be empty")
	}

	q := url.Values{}
	q.Set("phone", phone)
	q.Set("text", text)
	q.Set("apikey", p.apiKey)
	endpoint := p.baseURL + "/whatsapp.php?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("callmebot: build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callmebot: send HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("callmebot: send: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
