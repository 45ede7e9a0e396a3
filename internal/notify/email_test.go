package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Clinic Calendar" {
		t.Errorf("expected default from name 'Clinic Calendar', got %q", sender.fromName)
	}
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "Custom Name",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Custom Name" {
		t.Errorf("expected from name 'Custom Name', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{
		client: nil,
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
	if sent := sender.SentMessages(); len(sent) != 1 || sent[0].To != "recipient@example.com" {
		t.Errorf("expected one recorded message, got %+v", sent)
	}
}

type recordingSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (r *recordingSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	r.input = params
	if r.err != nil {
		return nil, r.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &recordingSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "front@clinic.example"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "pat@example.com",
		Subject: "Booked",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != "Clinic Calendar <front@clinic.example>" {
		t.Errorf("unexpected from address %q", got)
	}
	if got := client.input.Destination.ToAddresses; len(got) != 1 || got[0] != "pat@example.com" {
		t.Errorf("unexpected recipients %v", got)
	}
	if aws.ToString(client.input.Content.Simple.Body.Html.Data) != "<p>html</p>" {
		t.Errorf("expected html body to be set")
	}
}

func TestSESSender_SendError(t *testing.T) {
	client := &recordingSES{err: errors.New("throttled")}
	sender := NewSESSender(client, SESConfig{FromEmail: "front@clinic.example"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "pat@example.com"}); err == nil {
		t.Fatal("expected error from SES failure")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Fatal("expected nil sender without client")
	}
}

func TestSESSender_SendTagsCategory(t *testing.T) {
	client := &recordingSES{}
	sender := NewSESSender(client, SESConfig{
		FromEmail:        "front@clinic.example",
		FromName:         "Front Desk",
		ConfigurationSet: "bookings",
	}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:       "pat@example.com",
		ToName:   "Pat Doe",
		Subject:  "Booked",
		Body:     "plain",
		Category: CategoryBookingConfirmation,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.input.Destination.ToAddresses[0]; got != "Pat Doe <pat@example.com>" {
		t.Errorf("unexpected recipient %q", got)
	}
	if got := aws.ToString(client.input.ConfigurationSetName); got != "bookings" {
		t.Errorf("expected configuration set, got %q", got)
	}
	if len(client.input.EmailTags) != 1 || aws.ToString(client.input.EmailTags[0].Value) != CategoryBookingConfirmation {
		t.Errorf("expected category tag, got %+v", client.input.EmailTags)
	}
	if client.input.Content.Simple.Body.Html != nil {
		t.Errorf("expected no html body")
	}
}

func TestSendersRejectMissingRecipient(t *testing.T) {
	ses := NewSESSender(&recordingSES{}, SESConfig{FromEmail: "front@clinic.example"}, nil)
	if err := ses.Send(context.Background(), EmailMessage{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("ses: expected ErrNoRecipient, got %v", err)
	}
	stub := NewStubEmailSender(nil)
	if err := stub.Send(context.Background(), EmailMessage{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("stub: expected ErrNoRecipient, got %v", err)
	}
	if len(stub.SentMessages()) != 0 {
		t.Errorf("stub should not record rejected messages")
	}
}
