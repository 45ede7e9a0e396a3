package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Visit describes a booked or cancelled appointment for an email.
type Visit struct {
	PatientName  string
	PatientEmail string
	Title        string
	Start        time.Time
	End          time.Time
}

const visitLayout = "Monday, January 2 at 3:04 PM"

// BookingConfirmation renders the email sent after a booking.
func BookingConfirmation(v Visit) EmailMessage {
	what := strings.TrimSpace(v.Title)
	if what == "" {
		what = "appointment"
	}
	minutes := int(v.End.Sub(v.Start) / time.Minute)
	when := v.Start.Format(visitLayout)

	body := fmt.Sprintf("Hi %s,\n\nYour %s is booked for %s (%d minutes).\n\nIf you need to change it, cancel from your dashboard and pick a new time.",
		greetingName(v.PatientName), what, when, minutes)
	htmlBody := fmt.Sprintf("<p>Hi %s,</p><p>Your %s is booked for <strong>%s</strong> (%d minutes).</p><p>If you need to change it, cancel from your dashboard and pick a new time.</p>",
		html.EscapeString(greetingName(v.PatientName)), html.EscapeString(what), html.EscapeString(when), minutes)

	return EmailMessage{
		To:       v.PatientEmail,
		ToName:   v.PatientName,
		Subject:  fmt.Sprintf("Booked: %s on %s", what, v.Start.Format("Jan 2")),
		Body:     body,
		HTML:     htmlBody,
		Category: CategoryBookingConfirmation,
	}
}

// CancellationNotice renders the email sent after a cancellation.
func CancellationNotice(v Visit) EmailMessage {
	what := strings.TrimSpace(v.Title)
	if what == "" {
		what = "appointment"
	}
	when := v.Start.Format(visitLayout)
	return EmailMessage{
		To:       v.PatientEmail,
		ToName:   v.PatientName,
		Subject:  fmt.Sprintf("Cancelled: %s on %s", what, v.Start.Format("Jan 2")),
		Body:     fmt.Sprintf("Hi %s,\n\nYour %s on %s has been cancelled.", greetingName(v.PatientName), what, when),
		Category: CategoryBookingCancellation,
	}
}

// ApprovalNotice renders the email sent when a practitioner confirms a booking.
func ApprovalNotice(v Visit) EmailMessage {
	what := strings.TrimSpace(v.Title)
	if what == "" {
		what = "appointment"
	}
	when := v.Start.Format(visitLayout)
	return EmailMessage{
		To:       v.PatientEmail,
		ToName:   v.PatientName,
		Subject:  fmt.Sprintf("Confirmed: %s on %s", what, v.Start.Format("Jan 2")),
		Body:     fmt.Sprintf("Hi %s,\n\nYour %s on %s has been confirmed by the clinic. See you then.", greetingName(v.PatientName), what, when),
		Category: CategoryBookingApproval,
	}
}

func greetingName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	if first, _, ok := strings.Cut(name, " "); ok {
		return first
	}
	return name
}
