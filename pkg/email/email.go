// Package email sends the storefront's transactional mail.
//
// Services depend on the Sender interface; the Resend implementation is
// wired in main only when RESEND_API_KEY and EMAIL_FROM are configured.
package email

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"
)

type Sender interface {
	// SendPasswordReset mails a reset link carrying the plaintext token.
	SendPasswordReset(ctx context.Context, toEmail, name, token string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds a Sender backed by the Resend API.
// appURL is the public storefront address used in links.
func NewResendSender(apiKey, fromEmail, appURL string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background:#faf8f5;font-family:Georgia,serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr><td align="center">
      <table width="480" cellpadding="0" cellspacing="0" style="background:#ffffff;border:1px solid #e7e1d8;padding:40px;">
        <tr><td>
          <h1 style="color:#1f1b16;font-size:24px;margin:0 0 8px 0;letter-spacing:2px;">LUXE</h1>
          <p style="color:#4a443c;font-size:15px;line-height:1.6;">Hello {{.Name}},</p>
          <p style="color:#4a443c;font-size:15px;line-height:1.6;">
            We received a request to reset the password for your account.
          </p>
          <p><a href="{{.Link}}" style="background:#1f1b16;color:#ffffff;padding:12px 28px;text-decoration:none;">Reset password</a></p>
          <p style="color:#8a8276;font-size:13px;">This link expires in 20 minutes. If you did not ask for it, ignore this email.</p>
          <p style="color:#8a8276;font-size:13px;word-break:break-all;">{{.Link}}</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))

	var body strings.Builder
	if err := resetTemplate.Execute(&body, struct{ Name, Link string }{name, link}); err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Luxe <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Reset your Luxe password",
		Html:    body.String(),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}
