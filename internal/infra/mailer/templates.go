package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<div style="font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;line-height:1.6;color:#111">
	<h2>Reset your password</h2>
	<p>We received a request to reset your Linxify password.</p>
	<p>This link will expire in <strong>{{.Expiry}}</strong>:</p>
	<p>
		<a href="{{.URL}}" style="display:inline-block;padding:10px 16px;border-radius:6px;background:#0d6efd;color:#fff;text-decoration:none;">
			Reset Password
		</a>
	</p>
	<p>Or copy and paste this URL into your browser:</p>
	<p style="word-break:break-all;"><a href="{{.URL}}">{{.URL}}</a></p>
	<p>If you didn't request this, you can safely ignore this email.</p>
</div>
`))

// PasswordReset builds the reset email for resetURL.
func PasswordReset(to, resetURL string, ttl time.Duration) (Message, error) {
	expiry := humanDuration(ttl)

	var buf bytes.Buffer
	if err := passwordResetTmpl.Execute(&buf, struct {
		URL    string
		Expiry string
	}{URL: resetURL, Expiry: expiry}); err != nil {
		return Message{}, fmt.Errorf("mailer: render password reset: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Reset your Linxify password",
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Reset your Linxify password (expires in %s): %s", expiry, resetURL),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
