package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const resendAPIURL = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "noreply@samsepassi.com"
	fromName   string // e.g. "Sam Sepassi"
	ownerAddr  string // where owner notifications land
	baseURL    string // overridden in tests
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
// ownerAddr is the site owner's personal inbox — NotifyNewContact and
// NotifyUnknownQuestion go there; the sequence emails go to the visitor.
func NewResendClient(apiKey, fromAddr, fromName, ownerAddr string) Sender {
	return &resendClient{
		apiKey:    apiKey,
		fromAddr:  fromAddr,
		fromName:  fromName,
		ownerAddr: ownerAddr,
		baseURL:   resendAPIURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendWelcome sends the immediate thank-you email to a new contact.
func (c *resendClient) SendWelcome(ctx context.Context, to, name string) error {
	subject := fmt.Sprintf("Thanks for reaching out, %s", displayName(name))
	return c.send(ctx, to, subject, welcomeHTML(displayName(name), c.fromName))
}

// SendFollowUp sends the N-day check-in email.
func (c *resendClient) SendFollowUp(ctx context.Context, to, name string, days int) error {
	subject := "Following up on your message"
	if days >= 7 {
		subject = "Still happy to connect"
	}
	return c.send(ctx, to, subject, followUpHTML(displayName(name), c.fromName, days))
}

// NotifyNewContact emails the site owner about a fresh lead.
func (c *resendClient) NotifyNewContact(ctx context.Context, n ContactNotification) error {
	name := n.Name
	if name == "" {
		name = "Unknown"
	}
	subject := fmt.Sprintf("New contact submission from %s", name)
	return c.send(ctx, c.ownerAddr, subject, contactNotificationHTML(name, n.Email, n.Message))
}

// NotifyUnknownQuestion emails the site owner a question the assistant could
// not answer.
func (c *resendClient) NotifyUnknownQuestion(ctx context.Context, question string) error {
	return c.send(ctx, c.ownerAddr, "AI assistant — unknown question recorded",
		unknownQuestionHTML(question))
}

// displayName falls back to the generic salutation the sequence copy uses
// when the visitor never gave a name.
func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, htmlBody string) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	reqBody := resendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func welcomeHTML(name, fromName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Thanks for reaching out</h2>
  <p>Hi %s,</p>
  <p>Thank you for getting in touch through my portfolio site. I read every
  message personally and will get back to you within a day or two.</p>
  <p>In the meantime, feel free to reply to this email with anything you would
  like to add.</p>
  <p style="margin-top: 32px;">Best,<br>%s</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    You received this because you shared your email on my portfolio site.
  </p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(fromName))
}

func followUpHTML(name, fromName string, days int) string {
	lead := "Just checking in a few days after your message — did you get everything you were looking for?"
	if days >= 7 {
		lead = "It has been a week since you reached out. If the timing was off, no worries at all — my inbox is always open."
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <p>Hi %s,</p>
  <p>%s</p>
  <p>If you would like to talk through a project, a role, or anything
  security-related, just reply to this email.</p>
  <p style="margin-top: 32px;">Best,<br>%s</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    You received this because you shared your email on my portfolio site.
  </p>
</body>
</html>`, html.EscapeString(name), lead, html.EscapeString(fromName))
}

func contactNotificationHTML(name, addr, message string) string {
	if message == "" {
		message = "No message provided"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">New Contact Submission</h2>
  <p>Someone submitted the contact form on your portfolio website:</p>
  <ul>
    <li><strong>Name:</strong> %s</li>
    <li><strong>Email:</strong> <a href="mailto:%s">%s</a></li>
    <li><strong>Message:</strong> %s</li>
  </ul>
  <p>Reply to the visitor directly at their address above.</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(addr), html.EscapeString(addr), html.EscapeString(message))
}

func unknownQuestionHTML(question string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Unknown Question Recorded</h2>
  <p>Your AI assistant encountered a question it could not answer:</p>
  <blockquote style="background: #f5f5f5; padding: 10px; border-left: 3px solid #0f172a;">
    %s
  </blockquote>
  <p>Consider adding this information to your profile text to improve future
  responses.</p>
</body>
</html>`, html.EscapeString(question))
}
