package pkg

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender abstracts outbound email. Services depend on this interface,
// not on the Resend client, so tests swap in a recorder and a missing API
// key swaps in the no-op sender.
type EmailSender interface {
	// SendInvite mails a group invite code to toEmail.
	SendInvite(ctx context.Context, toEmail, groupName, code string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds the Resend-backed sender. fromEmail must live under
// a domain verified in the Resend dashboard.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendInvite(ctx context.Context, toEmail, groupName, code string) error {
	inviteLink := fmt.Sprintf("%s/invite/%s", s.appURL, code)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f8f5f0;font-family:Georgia,serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f8f5f0;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#2d2a26;font-size:24px;margin:0 0 8px 0;">shelftalk</h1>
              <h2 style="color:#2d2a26;font-size:18px;margin:0 0 24px 0;">You're invited to %s</h2>
              <p style="color:#6b6560;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                A reader invited you to join their discussion group. Click below to accept.
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#8b5e3c;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      Join the group
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#9b948c;font-size:13px;line-height:1.6;margin:0;word-break:break-all;">
                If the button doesn't work, copy and paste this link:<br>
                <a href="%s" style="color:#8b5e3c;">%s</a>
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, groupName, inviteLink, inviteLink, inviteLink)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("shelftalk <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Invitation to %s on shelftalk", groupName),
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

type noopSender struct{}

// NewNoopSender is used when no Resend API key is configured; invites still
// work, the code just has to travel out of band.
func NewNoopSender() EmailSender {
	return noopSender{}
}

func (noopSender) SendInvite(context.Context, string, string, string) error {
	return nil
}
