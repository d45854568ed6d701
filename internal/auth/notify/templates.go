package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

// PasswordResetData feeds the password reset mail.
type PasswordResetData struct {
	Name      string
	Email     string
	ResetURL  string
	ExpiresAt time.Time
}

// PasswordChangedData feeds the password changed notice.
type PasswordChangedData struct {
	Name      string
	Email     string
	ChangedAt time.Time
}

// ResetLink appends the plaintext token to base as the "token" query
// parameter, keeping any query the base already has.
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("notify: parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RenderPasswordReset renders the reset mail for one recipient.
func RenderPasswordReset(d PasswordResetData) (Message, error) {
	return render(d.Email, "Reset your work-log password", "password_reset", d)
}

// RenderPasswordChanged renders the notice sent after a successful reset or change.
func RenderPasswordChanged(d PasswordChangedData) (Message, error) {
	return render(d.Email, "Your work-log password was changed", "password_changed", d)
}

func render(to, subject, name string, data any) (Message, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s html: %w", name, err)
	}
	return Message{
		To:      to,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
