package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"earnedpay/internal/domain/wage"
	"earnedpay/internal/platform/config"
)

// Message is addressed by phone (SMS-style) and optionally by email.
type Message struct {
	Phone   string
	Email   string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// New returns an SMTP notifier when email is enabled. Otherwise messages are
// only logged.
func New(cfg config.Config) Notifier {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return LogNotifier{}
	}
	return &smtpNotifier{cfg: cfg}
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	slog.Info("notification", "phone", maskPhone(msg.Phone), "subject", msg.Subject, "body", msg.Body)
	return nil
}

func WithdrawalConfirmation(phone, email string, amount float64, transactionID string) Message {
	return Message{
		Phone:   phone,
		Email:   email,
		Subject: "Withdrawal successful",
		Body: fmt.Sprintf("%s has been sent to your UPI account. Transaction ID: %s",
			wage.FormatRupees(amount), transactionID),
	}
}

func PaydayReminder(phone, email, companyName string, payday time.Time, pending float64) Message {
	return Message{
		Phone:   phone,
		Email:   email,
		Subject: "Payday reminder",
		Body: fmt.Sprintf("%s: payday is %s. Pending settlement: %s.",
			companyName, payday.Format("2 Jan 2006"), wage.FormatRupees(pending)),
	}
}

type smtpNotifier struct {
	cfg config.Config
}

func (s *smtpNotifier) Notify(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Email) == "" {
		return LogNotifier{}.Notify(ctx, msg)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return err
		}
	}
	if s.cfg.SMTPUser != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
			return err
		}
	}

	if err := client.Mail(s.cfg.EmailFrom); err != nil {
		return err
	}
	if err := client.Rcpt(msg.Email); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(s.cfg.EmailFrom, msg.Email, msg.Subject, msg.Body)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + body)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
