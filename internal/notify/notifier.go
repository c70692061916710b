// Package notify delivers transactional email through an HTTP email provider.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

const confirmationSubject = "Welcome!"

const confirmationTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Confirm your subscription</h2>
  <p>Welcome{{if .Name}}, {{.Name}}{{end}}! Click the button below to confirm your newsletter subscription:</p>
  <p style="margin-top:24px">
    <a href="{{.ConfirmationLink}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Confirm subscription</a>
  </p>
  <p style="color:#999;font-size:12px">If you did not subscribe, you can ignore this email.</p>
</div>
</body>
</html>`

var confirmationTemplate = template.Must(template.New("confirmation").Parse(confirmationTpl))

// Config holds the provider settings for the HTTP email API.
type Config struct {
	BaseURL   string
	Sender    string
	AuthToken string
	Timeout   time.Duration
}

// Client sends email through the provider's REST API. Safe for concurrent use.
type Client struct {
	baseURL string
	sender  string
	token   string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sender:  cfg.Sender,
		token:   cfg.AuthToken,
		http:    &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// SendConfirmation emails the confirmation link to a new subscriber. Any
// non-2xx provider response is an error; the caller decides what that means
// for the request in flight.
func (c *Client) SendConfirmation(ctx context.Context, to, name, confirmationLink string) error {
	var htmlBody bytes.Buffer
	err := confirmationTemplate.Execute(&htmlBody, struct {
		Name             string
		ConfirmationLink string
	}{Name: name, ConfirmationLink: confirmationLink})
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}

	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		confirmationLink,
	)

	return c.send(ctx, sendRequest{
		From:     c.sender,
		To:       to,
		Subject:  confirmationSubject,
		HTMLBody: htmlBody.String(),
		TextBody: textBody,
	})
}

func (c *Client) send(ctx context.Context, body sendRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var provider struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&provider)
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, provider.Message)
	}
	return nil
}
