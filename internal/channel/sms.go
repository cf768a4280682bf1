package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"docexpiry/internal/config"
)

// maxSMSRunes bounds the text sent to the provider.
const maxSMSRunes = 480

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// SMS posts messages to an HTTP SMS provider.
type SMS struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewSMS creates an SMS channel. Requests are bounded by timeout and throttled to cfg.RatePerSec.
func NewSMS(cfg config.SMSConfig, timeout time.Duration) *SMS {
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return newSMS(cfg, client)
}

func newSMS(cfg config.SMSConfig, client *http.Client) *SMS {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	return &SMS{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		sender:   cfg.Sender,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

var _ Channel = (*SMS)(nil)

func (s *SMS) Name() string { return NameSMS }

func (s *SMS) Configured() bool { return s.endpoint != "" && s.apiKey != "" && s.sender != "" }

// Send posts one message to the recipient's phone number.
func (s *SMS) Send(ctx context.Context, to *Recipient, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if to == nil || to.Phone == "" {
		return ErrNoAddress
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(smsRequest{From: s.sender, To: to.Phone, Text: smsText(msg)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func smsText(msg Message) string {
	text := msg.Body
	if msg.Title != "" {
		text = msg.Title + ": " + msg.Body
	}
	r := []rune(text)
	if len(r) > maxSMSRunes {
		return string(r[:maxSMSRunes-1]) + "…"
	}
	return text
}
