package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	gomail "gopkg.in/gomail.v2"

	"veestributes/config"
	"veestributes/core/distribution"
	"veestributes/model"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (s *captureSender) DialAndSend(messages ...*gomail.Message) error {
	s.messages = append(s.messages, messages...)
	return s.err
}

func sampleOutcomes() []distribution.Outcome {
	return []distribution.Outcome{
		{Platform: "spotify", Status: model.AttemptStatusDistributed, URL: "https://open.spotify.com/album/42"},
		{Platform: "apple music", Status: model.AttemptStatusFailed, Error: "gateway timeout"},
	}
}

func TestMailerSendsSummary(t *testing.T) {
	sender := &captureSender{}
	mailer := &Mailer{from: "noreply@veestributes.com", dashboardURL: "http://localhost:8080/dashboard", sender: sender}

	err := mailer.NotifyDistributionComplete(context.Background(), "artist@example.com", "First Light", sampleOutcomes())
	if err != nil {
		t.Fatalf("NotifyDistributionComplete failed: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.messages))
	}

	msg := sender.messages[0]
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "artist@example.com" {
		t.Fatalf("To = %v", got)
	}
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != "Veestributes - First Light Distribution Complete" {
		t.Fatalf("Subject = %v", got)
	}
}

func TestMailerWrapsSendError(t *testing.T) {
	sendErr := errors.New("connection refused")
	mailer := &Mailer{from: "noreply@veestributes.com", sender: &captureSender{err: sendErr}}

	err := mailer.NotifyDistributionComplete(context.Background(), "artist@example.com", "First Light", nil)
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestMailerRespectsCancelledContext(t *testing.T) {
	sender := &captureSender{}
	mailer := &Mailer{from: "noreply@veestributes.com", sender: sender}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mailer.NotifyDistributionComplete(ctx, "artist@example.com", "First Light", nil); err == nil {
		t.Fatal("expected context error")
	}
	if len(sender.messages) != 0 {
		t.Fatal("no message should be sent after cancellation")
	}
}

func TestBuildDistributionBody(t *testing.T) {
	body := buildDistributionBody("Night <Drive>", "http://localhost:8080/dashboard", sampleOutcomes())

	for _, want := range []string{
		"Night &lt;Drive&gt;",
		`<a href="https://open.spotify.com/album/42">View</a>`,
		"<strong>spotify:</strong> Successfully distributed",
		"<strong>apple music:</strong> Failed - gateway timeout",
		`<a href="http://localhost:8080/dashboard">dashboard</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildDistributionBodyUnknownError(t *testing.T) {
	body := buildDistributionBody("X", "", []distribution.Outcome{
		{Platform: "spotify", Status: model.AttemptStatusFailed},
	})
	if !strings.Contains(body, "Failed - Unknown error") {
		t.Fatalf("expected fallback error text, got:\n%s", body)
	}
}

func TestNewServiceFallsBackToNoop(t *testing.T) {
	svc := NewService(&config.Config{})
	if _, ok := svc.(*noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyDistributionComplete(context.Background(), "a@b.c", "X", nil); err != nil {
		t.Fatalf("noop must not error: %v", err)
	}

	svc = NewService(&config.Config{MailHost: "smtp.example.com", MailFrom: "noreply@example.com"})
	if _, ok := svc.(*Mailer); !ok {
		t.Fatalf("expected mailer, got %T", svc)
	}
}
