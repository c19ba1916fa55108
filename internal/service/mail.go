package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier delivers mail to users. Delivery is best-effort: callers log
// failures and carry on.
type Notifier interface {
	Send(to, subject, html string) error
}

type MailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// Mailer sends through an SMTP relay
type Mailer struct {
	cfg    MailConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg MailConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password),
	}
}

func (m *Mailer) Send(to, subject, html string) error {
	if to == "" || to == m.cfg.Sender {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	return m.dialer.DialAndSend(msg)
}

// NopNotifier drops every message, used when mail.enabled is false
type NopNotifier struct{}

func (NopNotifier) Send(to, subject, _ string) error {
	zap.L().Debug("Mail disabled, dropping message", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func notify(n Notifier, to, subject, html string) {
	if n == nil {
		return
	}

	if err := n.Send(to, subject, html); err != nil {
		zap.L().Error("Failed to send mail", zap.String("subject", subject), zap.Error(err))
	}
}

func verificationMail(link string) (string, string) {
	return "Verify your email to start using Soul Family Sounds",
		fmt.Sprintf("Click <a href='%s'>here</a> to verify your account.<br><br>This link will expire in 30 minutes.", link)
}

func welcomeMail(username string) (string, string) {
	return "Welcome to Soul Family Sounds",
		fmt.Sprintf("Hi %s,<br><br>An account was created for you. You can log in with the password you were given.", username)
}

func interviewMail(name, date string) (string, string) {
	return "Your supplier interview is scheduled",
		fmt.Sprintf("Hi %s,<br><br>Your interview is scheduled for %s.", name, date)
}

func onboardingDecisionMail(name string, approved bool) (string, string) {
	if approved {
		return "Your supplier application was approved",
			fmt.Sprintf("Hi %s,<br><br>Your application was approved. Sign the contract to finish onboarding.", name)
	}

	return "Your supplier application was declined",
		fmt.Sprintf("Hi %s,<br><br>Unfortunately your application was declined.", name)
}

func revisionMail(title, file, message string) (string, string) {
	return fmt.Sprintf("Revision requested for %s", title),
		fmt.Sprintf("The file <b>%s</b> in <b>%s</b> needs changes:<br><br>%s", file, title, message)
}

func contentDecisionMail(title string, approved bool) (string, string) {
	if approved {
		return fmt.Sprintf("%s was approved", title),
			fmt.Sprintf("<b>%s</b> is now live in the catalogue.", title)
	}

	return fmt.Sprintf("%s was rejected", title),
		fmt.Sprintf("<b>%s</b> was rejected after review.", title)
}
