package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg config.SMTPConfig, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendRecurringReminder sends one email listing the upcoming recurring transactions
func (s *Sender) SendRecurringReminder(user models.User, due []models.Transaction) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{user.Email}
	if len(due) == 1 {
		e.Subject = "Upcoming recurring transaction"
	} else {
		e.Subject = fmt.Sprintf("%d upcoming recurring transactions", len(due))
	}
	e.Text = []byte(reminderBody(user, due))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send reminder to %s: %v", user.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", user.Email, e.Subject)
	return nil
}

func reminderBody(user models.User, due []models.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.Name)
	b.WriteString("The following recurring transactions are coming up:\n\n")
	for _, t := range due {
		next := ""
		if t.NextDueDate != nil {
			next = *t.NextDueDate
		}
		fmt.Fprintf(&b, "  %s  %-7s %s  %s\n", next, t.Type, t.Amount, t.Description)
	}
	b.WriteString("\nBest regards,\nFinance Tracker")
	return b.String()
}
