package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestClient points a resendClient at a local httptest server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *resendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewResendClient("re_test", "noreply@example.com", "Sam Sepassi", "owner@example.com").(*resendClient)
	c.baseURL = srv.URL
	return c
}

func captureRequest(t *testing.T, got *resendRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("authorization header: got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resendResponse{ID: "email_123"})
	}
}

func TestSendWelcome(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, captureRequest(t, &got))

	if err := c.SendWelcome(context.Background(), "alice@example.com", "Alice"); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}

	if got.From != "Sam Sepassi <noreply@example.com>" {
		t.Errorf("from: %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "alice@example.com" {
		t.Errorf("to: %v", got.To)
	}
	if !strings.Contains(got.Subject, "Alice") {
		t.Errorf("subject should greet by name: %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "Hi Alice,") {
		t.Errorf("body should greet by name")
	}
}

func TestSendWelcome_NoNameFallsBackToThere(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, captureRequest(t, &got))

	if err := c.SendWelcome(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}
	if !strings.Contains(got.HTML, "Hi there,") {
		t.Errorf("body should use the generic salutation, got: %.120s", got.HTML)
	}
}

func TestSendFollowUp_SubjectVariesByDay(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, captureRequest(t, &got))

	if err := c.SendFollowUp(context.Background(), "alice@example.com", "Alice", 3); err != nil {
		t.Fatalf("SendFollowUp(3): %v", err)
	}
	threeDay := got.Subject

	if err := c.SendFollowUp(context.Background(), "alice@example.com", "Alice", 7); err != nil {
		t.Fatalf("SendFollowUp(7): %v", err)
	}
	if got.Subject == threeDay {
		t.Errorf("3-day and 7-day subjects should differ, both %q", got.Subject)
	}
}

func TestNotifyNewContact_GoesToOwner(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, captureRequest(t, &got))

	err := c.NotifyNewContact(context.Background(), ContactNotification{
		Name:    "Alice",
		Email:   "alice@example.com",
		Message: "Let's talk.",
	})
	if err != nil {
		t.Fatalf("NotifyNewContact: %v", err)
	}

	if len(got.To) != 1 || got.To[0] != "owner@example.com" {
		t.Errorf("owner notification went to %v", got.To)
	}
	if !strings.Contains(got.HTML, "alice@example.com") {
		t.Error("notification body should include the lead's address")
	}
}

func TestNotifyUnknownQuestion_EscapesHTML(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, captureRequest(t, &got))

	question := `<script>alert("x")</script> what is your rate?`
	if err := c.NotifyUnknownQuestion(context.Background(), question); err != nil {
		t.Fatalf("NotifyUnknownQuestion: %v", err)
	}

	if strings.Contains(got.HTML, "<script>") {
		t.Error("question must be HTML-escaped in the notification body")
	}
	if !strings.Contains(got.HTML, "what is your rate?") {
		t.Error("question text should survive escaping")
	}
}

func TestSend_ResendErrorBodyIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"name":"validation_error","message":"invalid to address","statusCode":422}}`))
	})

	err := c.SendWelcome(context.Background(), "not-an-address", "Alice")
	if err == nil {
		t.Fatal("expected error from Resend failure response")
	}
	if !strings.Contains(err.Error(), "validation_error") {
		t.Errorf("error should carry the provider's error name: %v", err)
	}
}

func TestSend_Non2xxWithoutErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.SendWelcome(context.Background(), "alice@example.com", "Alice"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestSend_ContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.SendWelcome(ctx, "alice@example.com", "Alice"); err == nil {
		t.Fatal("expected error with a cancelled context")
	}
}
