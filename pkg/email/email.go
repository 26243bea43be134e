package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"proofhire-backend/config"
	"proofhire-backend/internal/domain"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("email service not configured")

// EmailService handles sending emails via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ domain.RefereeMailer = (*EmailService)(nil)

// NewEmailService creates a new email service with Brevo SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: from,
		sendMail:  smtp.SendMail,
	}
}

type refereeEmailData struct {
	CandidateName string
	ConfirmURL    string
	ValidDays     int
}

var refereeEmailTemplate = template.Must(template.New("referee").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>ProofHire DE referee verification</title>
</head>
<body style="font-family:Inter,Arial,sans-serif;background:#F8FAFC;color:#1F2937;padding:24px;">
    <h2>ProofHire DE referee verification</h2>
    <p>{{.CandidateName}} has listed you as a professional referee for their Data Engineering verification.</p>
    <p>Please confirm their contributions using the secure link below:</p>
    <p><a href="{{.ConfirmURL}}" style="background:#1E3A8A;color:white;padding:12px 20px;border-radius:6px;text-decoration:none;">Verify candidate</a></p>
    <p>This link expires in {{.ValidDays}} days. Contact support@proofhire.in if you were not expecting this email.</p>
    <p>Regards,<br/>ProofHire DE reviewers</p>
</body>
</html>`))

// SendRefereeInvitation mails the confirmation link to a referee.
func (s *EmailService) SendRefereeInvitation(ctx context.Context, inv domain.RefereeInvitation) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	name := inv.CandidateName
	if name == "" {
		name = "A candidate"
	}
	days := int(time.Until(inv.ExpiresAt).Round(24*time.Hour) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}

	var body bytes.Buffer
	if err := refereeEmailTemplate.Execute(&body, refereeEmailData{
		CandidateName: name,
		ConfirmURL:    inv.ConfirmURL,
		ValidDays:     days,
	}); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	return s.send(inv.To, fmt.Sprintf("Referee verification for %s", name), body.String())
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		to,
		subject,
		htmlBody,
	))

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.sendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}
