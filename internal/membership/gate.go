package membership

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

type Status int

const (
	StatusNone Status = iota
	StatusMember
	StatusAdministrator
	StatusCreator
)

func (s Status) String() string {
	switch s {
	case StatusMember:
		return "member"
	case StatusAdministrator:
		return "administrator"
	case StatusCreator:
		return "creator"
	default:
		return "none"
	}
}

func (s Status) Allowed() bool {
	return s == StatusMember || s == StatusAdministrator || s == StatusCreator
}

// Checker asks the chat platform for a user's status in the required channel.
// A user who is definitely not in the channel is (StatusNone, nil); errors are
// reserved for failed queries.
type Checker interface {
	Status(ctx context.Context, userID int64) (Status, error)
}

const (
	NotMemberMessage = "📢 To use this bot, join our channel first, then press the button below."
	RetryMessage     = "⚠️ Couldn't verify your channel membership right now. Please press the button again in a moment."
	StillOutMessage  = "You haven't joined yet!"
)

// ErrNotMember is the cause of the authorization error for users outside the
// channel.
var ErrNotMember = errors.New("not a channel member")

const defaultRetryDelay = 500 * time.Millisecond

type Gate struct {
	checker    Checker
	retryDelay time.Duration
}

// NewGate returns a gate backed by checker. A nil checker means no channel is
// configured and every user passes.
func NewGate(checker Checker) *Gate {
	return &Gate{checker: checker, retryDelay: defaultRetryDelay}
}

func (g *Gate) Enabled() bool {
	return g.checker != nil
}

// Check fails closed: a query that still errors after one retry yields an
// authorization error carrying RetryMessage.
func (g *Gate) Check(ctx context.Context, userID int64) error {
	if g.checker == nil {
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.retryDelay), 1),
		ctx,
	)
	status, err := backoff.RetryNotifyWithData(func() (Status, error) {
		return g.checker.Status(ctx, userID)
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Membership query failed, retrying", "user", userID, "error", err, "wait", wait)
	})
	if err != nil {
		logger.Error("Membership query failed, denying", "user", userID, "error", err)
		return apperr.Authorization("membership.check", RetryMessage, errors.Wrap(err, "query membership"))
	}

	if !status.Allowed() {
		logger.Info("User is not a channel member", "user", userID, "status", status)
		return apperr.Authorization("membership.check", NotMemberMessage, ErrNotMember)
	}
	return nil
}

func (g *Gate) IsAuthorized(ctx context.Context, userID int64) bool {
	return g.Check(ctx, userID) == nil
}
