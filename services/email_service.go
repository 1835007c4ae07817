package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/courtly/club-system/config"
)

// EmailSender is what the waitlist and event services need from the
// mail layer. Satisfied by EmailService; tests substitute a recorder.
type EmailSender interface {
	SendWaitListPromotionEmail(userEmail, eventName string) error
	SendEventStatusEmail(userEmail, eventName, status string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

var promotionTemplate = template.Must(template.New("waitlist_promotion").Parse(`
<p>Good news!</p>
<p>A spot opened up in <strong>{{.EventName}}</strong> and your waitlist
entry has been promoted. You are now registered for the event.</p>
<p>See you on court.</p>`))

var eventStatusTemplate = template.Must(template.New("event_status").Parse(`
<p>The event <strong>{{.EventName}}</strong> is now <strong>{{.Status}}</strong>.</p>`))

func (s *EmailService) SendWaitListPromotionEmail(userEmail, eventName string) error {
	body, err := renderTemplate(promotionTemplate, struct{ EventName string }{eventName})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("You're in: %s", eventName)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendEventStatusEmail(userEmail, eventName, status string) error {
	body, err := renderTemplate(eventStatusTemplate, struct{ EventName, Status string }{eventName, status})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Event '%s': %s", eventName, status)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template %s: %w", t.Name(), err)
	}
	return body.String(), nil
}

// SendEmail delivers an HTML message over SMTP, using implicit TLS on
// port 465 and STARTTLS otherwise.
func (s *EmailService) SendEmail(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client setup failed: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp message write failed: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close failed: %w", err)
	}
	return nil
}
