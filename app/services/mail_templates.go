// Package services provides external service integrations and technical concerns like mail delivery and tokens
package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/avolkov/robocontest/utils"
)

// mailerName is the X-Mailer header value on outgoing messages
const mailerName = "RoboContest Mailer"

// mailLayout is the branded wrapper for messages without an explicit HTML
// body. {{subject}} and {{body}} are substituted with escaped content.
const mailLayout = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{subject}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f5f5f5;">
        <tr>
            <td align="center" style="padding: 40px 20px;">
                <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="background: linear-gradient(135deg, #1e3a8a 0%, #3b82f6 100%); padding: 30px; border-radius: 8px 8px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 24px; font-weight: 600;">
                                RoboContest
                            </h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <h2 style="margin: 0 0 20px 0; color: #1e3a8a; font-size: 20px;">
                                {{subject}}
                            </h2>
                            <div style="color: #374151; font-size: 16px; line-height: 1.6;">
                                {{body}}
                            </div>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f9fafb; padding: 20px 30px; border-radius: 0 0 8px 8px; border-top: 1px solid #e5e7eb;">
                            <p style="margin: 0; color: #6b7280; font-size: 14px;">
                                Best regards,<br>
                                <strong>The RoboContest team</strong>
                            </p>
                            <p style="margin: 10px 0 0 0; color: #9ca3af; font-size: 12px;">
                                This message was sent automatically. If you received it by mistake, simply ignore it.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

// BuildMailHTML wraps plain text in the branded HTML layout. The body is
// HTML-escaped and newlines become <br> so literal campaign text renders
// the way it was written.
func BuildMailHTML(subject, body string) string {
	escapedSubject := html.EscapeString(subject)
	escapedBody := strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
	r := strings.NewReplacer("{{subject}}", escapedSubject, "{{body}}", escapedBody)
	return r.Replace(mailLayout)
}

// RegistrationConfirmationMail builds the message sent to a team captain
// right after the team registers
func RegistrationConfirmationMail(teamName, to string) *OutgoingMail {
	subject := fmt.Sprintf("Team %s registration - RoboContest", teamName)
	body := fmt.Sprintf(`Hello!

Your team %q has been registered for the RoboContest competition.

We will contact you to confirm your participation.

Best regards,
The RoboContest team`, teamName)

	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Team %s registration</h2>
    <p>Hello!</p>
    <p>Your team <strong>%q</strong> has been registered for the RoboContest competition.</p>
    <p>We will contact you to confirm your participation.</p>
    <hr>
    <p>Best regards,<br>The RoboContest team</p>
</body>
</html>`, html.EscapeString(teamName), html.EscapeString(teamName))

	return &OutgoingMail{
		To:      to,
		Subject: subject,
		Body:    body,
		HTML:    htmlBody,
	}
}

var statusMailWording = map[string]struct{ Title, Message string }{
	"approved":  {"Application approved", "Your team's application for the RoboContest competition has been approved!"},
	"rejected":  {"Application rejected", "Unfortunately, your team's application for the RoboContest competition has been rejected."},
	"withdrawn": {"Application withdrawn", "Your team's application for the RoboContest competition has been withdrawn."},
}

// TeamStatusUpdateMail builds the message sent to a team captain when an
// admin changes the team's status. contactAddr is the address shown for
// follow-up questions.
func TeamStatusUpdateMail(teamName, to, newStatus, contactAddr string) *OutgoingMail {
	wording, ok := statusMailWording[newStatus]
	if !ok {
		wording.Title = "Application status changed"
		wording.Message = fmt.Sprintf("The status of your application has changed to: %s", newStatus)
	}

	subject := fmt.Sprintf("%s - %s - RoboContest", wording.Title, teamName)
	body := fmt.Sprintf(`Hello!

%s

Team: %s

If you have any questions, contact us at %s

Best regards,
The RoboContest team`, wording.Message, teamName, contactAddr)

	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif;">
    <h2>%s</h2>
    <p>Hello!</p>
    <p>%s</p>
    <p><strong>Team:</strong> %s</p>
    <p>If you have any questions, contact us at <a href="mailto:%s">%s</a></p>
    <hr>
    <p>Best regards,<br>The RoboContest team</p>
</body>
</html>`, html.EscapeString(wording.Title), html.EscapeString(wording.Message), html.EscapeString(teamName), contactAddr, contactAddr)

	return &OutgoingMail{
		To:      to,
		Subject: subject,
		Body:    body,
		HTML:    htmlBody,
	}
}

// ContactNotificationMail builds the message that alerts the site admin
// about a new contact form submission. The HTML part falls back to the
// branded layout. The received timestamp is shown in Moscow time, the
// organizers' wall clock; UTC when tzdata is unavailable.
func ContactNotificationMail(adminTo, name, fromEmail, topic, message string) *OutgoingMail {
	receivedAt := utils.UTCNow()
	zone := "UTC"
	if msk, err := utils.MoscowNow(); err == nil {
		receivedAt = msk
		zone = "MSK"
	}

	subject := fmt.Sprintf("New message: %s - from %s", topic, name)
	body := fmt.Sprintf(`New message from the RoboContest website

Received: %s (%s)
From: %s (%s)
Topic: %s

Message:
%s`, receivedAt.Format("2006-01-02 15:04"), zone, name, fromEmail, topic, message)

	return &OutgoingMail{
		To:      adminTo,
		Subject: subject,
		Body:    body,
	}
}
