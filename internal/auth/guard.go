// Package auth holds the admin login guard: one shared credential, a derived
// session token, and sliding-window brute-force lockout per IP. There is no
// stored "locked" flag; lock state is recomputed from the failure ledger on
// every check.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"portfolio-site/internal/ledger"
	"portfolio-site/internal/limiter"
)

// Lockout rules: 5 failed attempts from one IP within 15 minutes.
const (
	MaxAttempts = 5
	Window      = 15 * time.Minute
)

// Session lifetimes set on successful login.
const (
	SessionTTL         = time.Hour
	SessionTTLRemember = 30 * 24 * time.Hour
)

// FailureLedger is the slice of the event store the guard writes to.
type FailureLedger interface {
	Append(ctx context.Context, kind, key string, at time.Time) error
	DeleteKey(ctx context.Context, kind, key string) error
}

type State int

const (
	StateOpen State = iota
	StateLocked
	StateAuthenticated
)

// Result describes the outcome of a login check or attempt.
type Result struct {
	State        State
	MinutesLeft  int    // StateLocked: minutes until the oldest failure ages out
	AttemptsLeft int    // StateOpen after a miss: attempts remaining before lockout
	Error        string // StateOpen after a miss: user-facing message
	Token        string // StateAuthenticated: session token to store
	MaxAge       time.Duration
}

type Guard struct {
	failures FailureLedger
	limiter  *limiter.Limiter
	log      *slog.Logger
	secret   string
	password string
	now      func() time.Time
}

func NewGuard(failures FailureLedger, lim *limiter.Limiter, log *slog.Logger, secret, password string) *Guard {
	return &Guard{
		failures: failures,
		limiter:  lim,
		log:      log,
		secret:   secret,
		password: password,
		now:      time.Now,
	}
}

func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Token returns the session token for the configured credential.
func (g *Guard) Token() string {
	return Token(g.secret, g.password)
}

// Status reports the login-page state for an IP before any password is
// evaluated. A limiter read failure reports Open (fail-open).
func (g *Guard) Status(ctx context.Context, ip string) Result {
	if g.limiter.IsLimited(ctx, ledger.KindLoginFailure, ip, MaxAttempts, Window) {
		return Result{
			State:       StateLocked,
			MinutesLeft: g.limiter.TimeToReset(ctx, ledger.KindLoginFailure, ip, Window),
		}
	}
	return Result{State: StateOpen}
}

// Attempt evaluates one password submission. The lock check runs before the
// credential compare: a locked IP never gets its password evaluated.
func (g *Guard) Attempt(ctx context.Context, ip, password string, remember bool) Result {
	if locked := g.Status(ctx, ip); locked.State == StateLocked {
		return locked
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1 {
		// correct: the IP's failure history is forgiven in full
		if err := g.failures.DeleteKey(ctx, ledger.KindLoginFailure, ip); err != nil {
			g.log.Warn("login_failure_clear_failed", "ip", ip, "error", err)
		}
		ttl := SessionTTL
		if remember {
			ttl = SessionTTLRemember
		}
		return Result{State: StateAuthenticated, Token: g.Token(), MaxAge: ttl}
	}

	// wrong: record it, then re-derive the lock state. A failed write is
	// dropped; the next check re-derives from whatever rows did persist.
	if err := g.failures.Append(ctx, ledger.KindLoginFailure, ip, g.now()); err != nil {
		g.log.Warn("login_failure_record_failed", "ip", ip, "error", err)
	}

	if g.limiter.IsLimited(ctx, ledger.KindLoginFailure, ip, MaxAttempts, Window) {
		return Result{
			State:       StateLocked,
			MinutesLeft: g.limiter.TimeToReset(ctx, ledger.KindLoginFailure, ip, Window),
		}
	}

	count, err := g.limiter.CountSince(ctx, ledger.KindLoginFailure, ip, Window)
	if err != nil {
		// the count is unknown, so do not claim one; a made-up "5 attempts
		// left" would tell the user their failures are not being tracked
		return Result{State: StateOpen, Error: "Invalid password."}
	}
	remaining := MaxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	plural := "s"
	if remaining == 1 {
		plural = ""
	}
	return Result{
		State:        StateOpen,
		AttemptsLeft: remaining,
		Error:        fmt.Sprintf("Invalid password. %d attempt%s left.", remaining, plural),
	}
}
