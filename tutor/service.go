package tutor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lessonforge/tutorkit/conversation"
	"github.com/lessonforge/tutorkit/entitlement"
	"github.com/lessonforge/tutorkit/ratelimit"
	"github.com/lessonforge/tutorkit/subscription"
)

// Config carries the gate's environment-driven settings.
type Config struct {
	// RequiredTier is the tier the AI tutor is gated at. Entitlement is
	// exact-tier match, so every tier carries its own quota.
	RequiredTier subscription.Tier `env:"TUTOR_REQUIRED_TIER" envDefault:"premium"`

	// RateWindow is the trailing interval the per-user quota applies to.
	RateWindow time.Duration `env:"TUTOR_RATE_WINDOW" envDefault:"60s"`

	// HistoryDepth caps the retained conversation turns per user.
	HistoryDepth int `env:"TUTOR_HISTORY_DEPTH" envDefault:"20"`
}

// Answer is a successful tutor exchange.
type Answer struct {
	Reply     string
	Remaining int // rate limit slots left in the current window
}

// Service is the request gate in front of the AI tutor. Every request
// is checked against the caller's subscription snapshot and per-user
// sliding-window quota before the provider is invoked with the bounded
// conversation history.
type Service struct {
	subs     *subscription.Service
	limiters map[subscription.Tier]*ratelimit.SlidingWindow
	window   *conversation.Window
	provider Provider
	required subscription.Tier
	now      func() time.Time
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the gate clock used for entitlement evaluation.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for gate decisions.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires the gate. Each tier gets its own sliding-window
// limiter with the quota from the plan catalog, all sharing one store.
// Panics on nil dependencies to fail fast at startup.
func NewService(
	cfg Config,
	subs *subscription.Service,
	catalog *subscription.Catalog,
	limiterStore ratelimit.Store,
	provider Provider,
	opts ...ServiceOption,
) (*Service, error) {
	if subs == nil {
		panic("tutor: subscription service is required")
	}
	if catalog == nil {
		panic("tutor: plan catalog is required")
	}
	if limiterStore == nil {
		panic("tutor: rate limit store is required")
	}
	if provider == nil {
		panic("tutor: provider is required")
	}
	if !cfg.RequiredTier.Valid() {
		return nil, subscription.ErrInvalidTier
	}

	s := &Service{
		subs:     subs,
		limiters: make(map[subscription.Tier]*ratelimit.SlidingWindow),
		window:   conversation.NewWindow(cfg.HistoryDepth),
		provider: provider,
		required: cfg.RequiredTier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, tier := range []subscription.Tier{subscription.TierFree, subscription.TierPremium, subscription.TierPro} {
		plan, ok := catalog.PlanFor(tier)
		if !ok {
			return nil, subscription.ErrInvalidCatalog
		}
		limiter, err := ratelimit.NewSlidingWindow(
			limiterStore, plan.TutorRequestsPerMinute, cfg.RateWindow,
			ratelimit.WithClock(s.now),
		)
		if err != nil {
			return nil, err
		}
		s.limiters[tier] = limiter
	}

	return s, nil
}

// Ask runs one gated tutor exchange: entitlement, then rate limit, then
// the provider call with bounded history, then history append. The
// entitlement decision is evaluated fresh on every call because period
// boundaries are time-dependent.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, message string) (*Answer, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	sub, err := s.subs.Get(ctx, userID)
	if err != nil && !errors.Is(err, subscription.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	decision := entitlement.Evaluate(sub, s.required, now)
	if !decision.Granted {
		s.log.InfoContext(ctx, "tutor access denied",
			"user_id", userID, "reason", decision.Reason)
		return nil, ErrUnentitled
	}

	result, err := s.allow(ctx, userID, sub)
	if err != nil {
		// Fail open on limiter store failures: an infrastructure outage
		// should not read as a quota denial.
		s.log.WarnContext(ctx, "rate limiter unavailable, admitting request",
			"user_id", userID, "error", err)
		result = nil
	} else if !result.Allowed {
		retryAfter := max(0, result.ResetAt.Sub(now))
		s.log.InfoContext(ctx, "tutor request rate limited",
			"user_id", userID, "retry_after", retryAfter)
		return nil, &QuotaExceededError{RetryAfter: retryAfter}
	}

	// The provider call is the only long-latency operation and runs
	// outside every lock.
	history := s.window.History(userID)
	reply, err := s.provider.Reply(ctx, history, message)
	if err != nil {
		return nil, err
	}

	s.window.Append(userID, conversation.RoleUser, message)
	s.window.Append(userID, conversation.RoleAssistant, reply)

	answer := &Answer{Reply: reply}
	if result != nil {
		answer.Remaining = result.Remaining
	}
	return answer, nil
}

// History returns the user's retained conversation turns, oldest first.
func (s *Service) History(userID uuid.UUID) []conversation.Turn {
	return s.window.History(userID)
}

// ClearHistory resets the user's conversation context.
func (s *Service) ClearHistory(userID uuid.UUID) {
	s.window.Clear(userID)
}

// allow consults the limiter for the tier the user actually holds, so
// each plan's quota from the catalog applies.
func (s *Service) allow(ctx context.Context, userID uuid.UUID, sub *subscription.Subscription) (*ratelimit.Result, error) {
	tier := subscription.TierFree
	if sub != nil {
		tier = sub.Tier
	}

	limiter, ok := s.limiters[tier]
	if !ok {
		limiter = s.limiters[subscription.TierFree]
	}
	return limiter.Allow(ctx, userID.String())
}
