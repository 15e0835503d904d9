// Package notify delivers owner notifications over SMTP. Delivery is
// best-effort by contract: callers persist first and treat a send failure as
// a log line, never as a request error.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("notifications disabled: no smtp host configured")

// ErrSendBudget is returned when the outbound limiter rejects a send. The
// contact endpoint is already rate limited per IP; this caps the aggregate
// across all IPs so a burst cannot flood the owner's inbox.
var ErrSendBudget = errors.New("outbound notification budget exceeded")

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
}

type Mailer struct {
	cfg Config
	log *slog.Logger
	lim *rate.Limiter
	// send is swapped in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg Config, log *slog.Logger) *Mailer {
	return &Mailer{
		cfg: cfg,
		log: log,
		lim: rate.NewLimiter(rate.Limit(1.0/30.0), 5), // 2/min sustained, burst 5
		send: smtp.SendMail,
	}
}

func (m *Mailer) Send(ctx context.Context, name, email, subject, message string) error {
	if m.cfg.Host == "" {
		return ErrDisabled
	}
	if !m.lim.Allow() {
		return ErrSendBudget
	}

	// keep user input out of the header line
	subjectLine := strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)

	body := fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: [Portfolio] %s\r\n\r\n"+
			"New contact message from your portfolio site.\r\n\r\n"+
			"Name:    %s\r\nEmail:   %s\r\nSubject: %s\r\n\r\n--- Message ---\r\n%s\r\n",
		m.cfg.To, m.cfg.From, subjectLine, name, email, subject, message,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.To}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Info("contact_notify_sent", "to", m.cfg.To)
	return nil
}
