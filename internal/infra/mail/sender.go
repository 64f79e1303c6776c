package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	tmpl *template.Template
}

// outreachTemplate wraps the operator-written body; the body itself is plain
// text that gets escaped, the wrapper supplies the greeting and footer.
const outreachTemplate = `<html><body>
<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<div style="white-space: pre-wrap;">{{.Body}}</div>
{{if .Company}}<p style="color:#888;font-size:12px;">Sent to {{.Company}}</p>{{end}}
</body></html>`

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		tmpl:     template.Must(template.New("outreach").Parse(outreachTemplate)),
	}
}

func (s *EmailSender) SendOutreach(to, name, company, subject, body string) error {
	data := struct {
		Name    string
		Company string
		Body    string
	}{Name: name, Company: company, Body: body}

	var rendered bytes.Buffer
	if err := s.tmpl.Execute(&rendered, data); err != nil {
		return fmt.Errorf("render outreach template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", rendered.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send outreach email: %w", err)
	}
	return nil
}
