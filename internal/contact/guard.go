// Package contact gates the public contact endpoint: honeypot, field
// validation, per-IP throttling, then durable persistence with best-effort
// notification. Throttling counts a dedicated contact_submission event per
// accepted message, so archiving or deleting domain rows never changes
// throttle behavior.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"portfolio-site/internal/ledger"
	"portfolio-site/internal/limiter"
)

// Throttle rules: max 3 accepted submissions from one IP per 10 minutes.
const (
	MaxPerWindow = 3
	Window       = 10 * time.Minute
)

// Field length bounds, counted in characters.
const (
	MaxNameLen    = 200
	MaxSubjectLen = 300
	MaxMessageLen = 5000
)

// ValidationError marks user-correctable input problems (HTTP 400).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ErrRateLimited is the throttling signal, distinct from validation
// failures (HTTP 429).
var ErrRateLimited = errors.New("too many messages")

// Submission is the decoded request body. Website is the honeypot field:
// hidden in the form, so any value means an automated sender.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Website string `json:"website"`
}

// MessageStore persists accepted submissions and their side effects.
type MessageStore interface {
	Append(ctx context.Context, kind, key string, at time.Time) error
	InsertMessage(ctx context.Context, name, email, subject, message, ip string, at time.Time) error
	MarkVisitorsContacted(ctx context.Context, ip string) error
}

// Notifier delivers the owner notification. Delivery is best-effort: the
// message is already saved before Send is called.
type Notifier interface {
	Send(ctx context.Context, name, email, subject, message string) error
}

type Guard struct {
	store    MessageStore
	limiter  *limiter.Limiter
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func NewGuard(store MessageStore, lim *limiter.Limiter, notifier Notifier, log *slog.Logger) *Guard {
	return &Guard{store: store, limiter: lim, notifier: notifier, log: log, now: time.Now}
}

func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Outcome reports whether Submit persisted a message. Honeypot catches
// return Accepted=false with a nil error: the caller must answer exactly as
// if the message were saved, so the sender cannot tell it was detected.
type Outcome struct {
	Accepted bool
}

// Submit runs the full gate. Error values: *ValidationError for rejected
// input, ErrRateLimited when the IP is throttled, any other error means the
// message could not be saved.
func (g *Guard) Submit(ctx context.Context, ip string, sub Submission) (Outcome, error) {
	if strings.TrimSpace(sub.Website) != "" {
		g.log.Info("contact_honeypot_hit", "ip", ip)
		return Outcome{Accepted: false}, nil
	}

	name := strings.TrimSpace(sub.Name)
	email := strings.TrimSpace(sub.Email)
	subject := strings.TrimSpace(sub.Subject)
	message := strings.TrimSpace(sub.Message)

	if name == "" || email == "" || subject == "" || message == "" {
		return Outcome{}, &ValidationError{Reason: "All fields are required."}
	}
	// bounds are in characters, not bytes: accented or CJK input must not
	// burn through the budget two or three times as fast
	if utf8.RuneCountInString(subject) > MaxSubjectLen ||
		utf8.RuneCountInString(name) > MaxNameLen ||
		utf8.RuneCountInString(message) > MaxMessageLen {
		return Outcome{}, &ValidationError{Reason: "Input too long."}
	}
	if !validEmail(email) {
		return Outcome{}, &ValidationError{Reason: "Invalid email."}
	}

	if g.limiter.IsLimited(ctx, ledger.KindContactSubmission, ip, MaxPerWindow, Window) {
		return Outcome{}, ErrRateLimited
	}

	now := g.now()
	if err := g.store.InsertMessage(ctx, name, email, subject, message, ip, now); err != nil {
		return Outcome{}, fmt.Errorf("save message: %w", err)
	}
	if err := g.store.Append(ctx, ledger.KindContactSubmission, ip, now); err != nil {
		// the domain row is saved; a lost throttle event only loosens the window
		g.log.Warn("contact_throttle_record_failed", "ip", ip, "error", err)
	}
	if err := g.store.MarkVisitorsContacted(ctx, ip); err != nil {
		g.log.Warn("visitor_contact_flag_failed", "ip", ip, "error", err)
	}

	if g.notifier != nil {
		if err := g.notifier.Send(ctx, name, email, subject, message); err != nil {
			g.log.Warn("contact_notify_failed", "error", err)
		}
	}

	return Outcome{Accepted: true}, nil
}

// validEmail applies the minimal shape check: an @ with a dot somewhere
// after the last @.
func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
