// Package notifications implements the email notification gateway consumed
// by the account service.
package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"userhub/internal/logging"
	"userhub/internal/server/config"
	"userhub/internal/server/models"
)

// EmailNotifier sends templated plain-text mail over SMTP.
type EmailNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
	baseURL  string
	logger   logging.Logger
}

func NewEmailNotifier(cfg *config.Config, logger logging.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		baseURL:  cfg.ServerBaseURL,
		logger:   logger.With("module", "notifications"),
	}
}

func (n *EmailNotifier) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := n.host + ":" + n.port
	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	if err := smtp.SendMail(addr, auth, n.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// displayName prefers the first name, falling back to the nickname.
func displayName(user *models.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.Nickname
}

// SendVerification mails the account's one-time verification link.
func (n *EmailNotifier) SendVerification(ctx context.Context, user *models.User) error {
	link := fmt.Sprintf("%sverify-email/%s/%s", n.baseURL, user.ID, user.VerificationToken)
	body := fmt.Sprintf(
		"Dear %s,\n\nPlease verify your account by following this link:\n%s\n",
		displayName(user), link)

	if err := n.send(user.Email, "Verify Your Account", body); err != nil {
		return err
	}
	n.logger.Info(ctx, "verification email sent", "id", user.ID)
	return nil
}

// SendProfessionalUpgrade mails the congratulation notice for an upgrade to
// professional status.
func (n *EmailNotifier) SendProfessionalUpgrade(ctx context.Context, user *models.User) error {
	upgraded := "recently"
	if user.ProfessionalStatusUpdatedAt != nil {
		upgraded = user.ProfessionalStatusUpdatedAt.Format("January 2, 2006")
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nYour account was upgraded to professional status on %s.\n",
		displayName(user), upgraded)

	if err := n.send(user.Email, "Congratulations! Professional Status Upgrade", body); err != nil {
		return err
	}
	n.logger.Info(ctx, "professional upgrade email sent", "id", user.ID)
	return nil
}
