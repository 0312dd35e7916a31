// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/models"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type NotificationService struct {
	config   config.EmailConfig
	sendMail sendMailFunc
}

type EmailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[string]EmailTemplate{
	"reset_code": {
		Subject: "Código de recuperación",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hola {{.Username}}</h2>
	<p>Tu código para restablecer la contraseña es:</p>
	<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
	<p>El código vence en {{.ExpiresIn}} minutos.</p>
	<p>{{.FromName}}</p>
</body>
</html>`,
	},
}

func NewNotificationService(cfg config.EmailConfig) *NotificationService {
	return &NotificationService{
		config:   cfg,
		sendMail: smtp.SendMail,
	}
}

func (s *NotificationService) SendResetCodeEmail(user *models.User, code string, expiresInMinutes int) error {
	tmpl := emailTemplates["reset_code"]

	body, err := renderTemplate(tmpl.Body, map[string]interface{}{
		"Username":  user.Username,
		"Code":      code,
		"ExpiresIn": expiresInMinutes,
		"FromName":  s.config.FromName,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email not sent")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.FromName, s.config.FromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
