// Package services provides external service integrations and technical concerns like mail delivery and tokens
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkov/robocontest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMailerRecordsSends(t *testing.T) {
	mailer := NewMockMailer()
	ctx := context.Background()

	err := mailer.Send(ctx, &OutgoingMail{
		To:      "captain@example.com",
		ToName:  "Jane Captain",
		Subject: "Venue details",
		Body:    "See you at the arena.",
	})
	require.NoError(t, err)

	err = mailer.Send(ctx, &OutgoingMail{
		To:      "second@example.com",
		Subject: "Venue details",
		Body:    "See you at the arena.",
	})
	require.NoError(t, err)

	mails := mailer.GetSentMails()
	require.Len(t, mails, 2)
	assert.Equal(t, "captain@example.com", mails[0].To)
	assert.Equal(t, "Jane Captain", mails[0].ToName)
	assert.Equal(t, "Venue details", mails[0].Subject)
	assert.Equal(t, "See you at the arena.", mails[0].Body)
	assert.False(t, mails[0].SentAt.IsZero())

	mailer.ClearSentMails()
	assert.Empty(t, mailer.GetSentMails())
}

func TestMockMailerInjectedFailure(t *testing.T) {
	mailer := NewMockMailer()
	ctx := context.Background()

	bounce := errors.New("smtp: mailbox unavailable")
	mailer.FailFor("broken@example.com", bounce)

	err := mailer.Send(ctx, &OutgoingMail{To: "broken@example.com", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, bounce)

	err = mailer.Send(ctx, &OutgoingMail{To: "fine@example.com", Subject: "x", Body: "y"})
	require.NoError(t, err)

	// The failed attempt leaves no trace in the sent list
	mails := mailer.GetSentMails()
	require.Len(t, mails, 1)
	assert.Equal(t, "fine@example.com", mails[0].To)
}

func TestSMTPMailerWithoutCredentials(t *testing.T) {
	mailer := NewSMTPMailer(&config.EmailConfig{})

	err := mailer.Send(context.Background(), &OutgoingMail{
		To:      "captain@example.com",
		Subject: "Venue details",
		Body:    "See you at the arena.",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMailerNotConfigured)
}

func TestBuildMailHTML(t *testing.T) {
	out := BuildMailHTML("Results <final>", "Line one\nLine <two> & three")

	assert.Contains(t, out, "Results &lt;final&gt;")
	assert.Contains(t, out, "Line one<br>Line &lt;two&gt; &amp; three")
	assert.NotContains(t, out, "<two>")
	// The layout placeholders must all be substituted
	assert.NotContains(t, out, "{{subject}}")
	assert.NotContains(t, out, "{{body}}")
}

func TestTeamStatusUpdateMail(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		subjectPrefix string
		bodyContains  string
	}{
		{
			name:          "approved",
			status:        "approved",
			subjectPrefix: "Application approved",
			bodyContains:  "has been approved",
		},
		{
			name:          "rejected",
			status:        "rejected",
			subjectPrefix: "Application rejected",
			bodyContains:  "has been rejected",
		},
		{
			name:          "withdrawn",
			status:        "withdrawn",
			subjectPrefix: "Application withdrawn",
			bodyContains:  "has been withdrawn",
		},
		{
			name:          "unknown status falls back to generic wording",
			status:        "on_hold",
			subjectPrefix: "Application status changed",
			bodyContains:  "changed to: on_hold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := TeamStatusUpdateMail("Circuit Breakers", "captain@example.com", tt.status, "info@robocontest.app")

			assert.Equal(t, "captain@example.com", mail.To)
			assert.Contains(t, mail.Subject, tt.subjectPrefix)
			assert.Contains(t, mail.Subject, "Circuit Breakers")
			assert.Contains(t, mail.Body, tt.bodyContains)
			assert.Contains(t, mail.Body, "info@robocontest.app")
			assert.NotEmpty(t, mail.HTML)
		})
	}
}

func TestRegistrationConfirmationMail(t *testing.T) {
	mail := RegistrationConfirmationMail("Circuit Breakers", "captain@example.com")

	assert.Equal(t, "captain@example.com", mail.To)
	assert.Contains(t, mail.Subject, "Circuit Breakers")
	assert.Contains(t, mail.Body, "Circuit Breakers")
	assert.Contains(t, mail.HTML, "Circuit Breakers")
}
