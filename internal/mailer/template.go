package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	// ThankYouSubject is used for generated acknowledgements.
	ThankYouSubject = "Thank you for your generous donation!"
	// FallbackSubject is used for the static letter.
	FallbackSubject = "Thank you for your donation!"
)

var thankYouLayout = template.Must(template.New("thank-you").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0; font-size: 28px;">Thank You!</h1>
    <p style="margin: 10px 0 0 0; font-size: 18px; opacity: 0.9;">Your donation is making a difference</p>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <div style="background: white; padding: 25px; border-radius: 8px; margin-bottom: 20px;">
      {{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}
    </div>
    <div style="padding: 20px; background: #e8f5e8; border-radius: 8px; border-left: 4px solid #28a745;">
      <h3 style="margin: 0 0 15px 0; color: #155724;">What Your Donation Accomplishes</h3>
      <ul style="margin: 0; padding-left: 20px; color: #155724;">
        <li>Provides clean drinking water to families</li>
        <li>Supports education programs for children</li>
        <li>Funds healthcare initiatives in communities</li>
        <li>Creates sustainable development projects</li>
      </ul>
    </div>
  </div>
  <div style="text-align: center; margin-top: 20px; color: #6c757d; font-size: 14px;">
    <p>This email was sent to {{.To}}</p>
  </div>
</div>`))

// RenderHTML wraps a plain-text body in the branded layout. The body is
// escaped and newlines become <br>.
func RenderHTML(to, body string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		To    string
		Lines []string
	}{
		To:    to,
		Lines: strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n"),
	}
	if err := thankYouLayout.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
