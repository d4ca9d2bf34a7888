// Package gate issues one-time verification tokens and judges return-leg
// attempts. Every rejected attempt lands in the append-only bypass log,
// which in turn drives the auto-ban.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/id"
	pkgtoken "github.com/mediagate/internal/pkg/token"
)

const banWindow = 24 * time.Hour

// Challenge is an issued verification: the token row plus the short URL the
// visitor must walk.
type Challenge struct {
	Token     *domain.AccessToken
	VerifyURL string
}

// VerifyResult is the judged outcome of one return-leg attempt.
type VerifyResult struct {
	Outcome domain.VerifyOutcome
	// Payload is the link the token unlocks, set only on OK.
	Payload string
	// AutoBanned is set when this attempt tripped the threshold.
	AutoBanned bool
}

type Service interface {
	Issue(ctx context.Context, ownerID int64, payload string) (*Challenge, error)
	// RecordClick counts a shortener click-through for an issued token.
	RecordClick(ctx context.Context, token string) error
	Verify(ctx context.Context, ownerID int64, tokenStr string) (*VerifyResult, error)
	TokenStats(ctx context.Context) (*domain.TokenStats, error)
	BypassStats(ctx context.Context) ([]domain.BypassStats, error)
	ClearBypassRecord(ctx context.Context, ownerID int64) (int, error)
	RevokeTokens(ctx context.Context, ownerID int64) (int, error)
}

type tokenStore interface {
	Put(ctx context.Context, t *domain.AccessToken) error
	Get(ctx context.Context, token string) (*domain.AccessToken, error)
	MarkUsed(ctx context.Context, token string, at time.Time) error
	IncrementClicks(ctx context.Context, token string) error
	DeleteForOwner(ctx context.Context, ownerID int64) (int, error)
	Stats(ctx context.Context) (*domain.TokenStats, error)
}

type bypassStore interface {
	Append(ctx context.Context, a *domain.BypassAttempt) error
	CountSince(ctx context.Context, ownerID int64, since time.Time) (int, error)
	Clear(ctx context.Context, ownerID int64) (int, error)
	Stats(ctx context.Context) ([]domain.BypassStats, error)
}

type ownerStore interface {
	Get(ctx context.Context, ownerID int64) (*domain.Owner, error)
	Update(ctx context.Context, ownerID int64, updates map[string]interface{}) error
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (*domain.GateSettings, error)
}

type urlShortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type operatorNotifier interface {
	NotifyBan(ctx context.Context, ownerID int64, attempts int)
}

type service struct {
	tokens    tokenStore
	bypass    bypassStore
	owners    ownerStore
	settings  settingsProvider
	shortener urlShortener
	notifier  operatorNotifier
	baseURL   string
}

type ServiceDeps struct {
	TokenRepo  tokenStore
	BypassRepo bypassStore
	OwnerRepo  ownerStore
	Settings   settingsProvider
	Shortener  urlShortener
	Notifier   operatorNotifier
	// PublicBaseURL is where the shortener ultimately redirects back to.
	PublicBaseURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tokens:    deps.TokenRepo,
		bypass:    deps.BypassRepo,
		owners:    deps.OwnerRepo,
		settings:  deps.Settings,
		shortener: deps.Shortener,
		notifier:  deps.Notifier,
		baseURL:   deps.PublicBaseURL,
	}
}

func (s *service) Issue(ctx context.Context, ownerID int64, payload string) (*Challenge, error) {
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := pkgtoken.NewVerification()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expires := now.Add(time.Duration(gs.TokenExpiryMinutes) * time.Minute)
	t := &domain.AccessToken{
		OwnerID:   ownerID,
		Token:     tok,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: expires,
		TTL:       expires.Unix(),
	}
	if err := s.tokens.Put(ctx, t); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("owner", fmt.Sprintf("%d", ownerID))
	q.Set("payload", "verify-"+t.Token)
	longURL := s.baseURL + "?" + q.Encode()
	shortURL, err := s.shortener.Shorten(ctx, longURL)
	if err != nil {
		// The pass-through URL still works, it just pays nothing.
		shortURL = longURL
	}
	return &Challenge{Token: t, VerifyURL: shortURL}, nil
}

func (s *service) RecordClick(ctx context.Context, token string) error {
	return s.tokens.IncrementClicks(ctx, token)
}

// Verify judges one return-leg attempt. The checks run in a fixed order:
// unknown or foreign token, then expiry, then reuse, then the dwell-time
// bypass heuristic, and only then the conditional claim.
func (s *service) Verify(ctx context.Context, ownerID int64, tokenStr string) (*VerifyResult, error) {
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	t, err := s.tokens.Get(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.reject(ctx, ownerID, domain.VerifyInvalid, domain.BypassKindInvalidToken, gs, now)
		}
		return nil, err
	}
	if t.OwnerID != ownerID {
		// A real token presented by the wrong owner is just as invalid.
		return s.reject(ctx, ownerID, domain.VerifyInvalid, domain.BypassKindInvalidToken, gs, now)
	}
	if now.After(t.ExpiresAt) {
		return s.reject(ctx, ownerID, domain.VerifyExpired, domain.BypassKindExpiredToken, gs, now)
	}
	if t.Used {
		return s.reject(ctx, ownerID, domain.VerifyAlreadyUsed, domain.BypassKindTokenReuse, gs, now)
	}
	if gs.BypassCheckEnabled {
		dwell := now.Sub(t.CreatedAt)
		if dwell < time.Duration(gs.MinDwellSeconds)*time.Second {
			return s.reject(ctx, ownerID, domain.VerifyBypass, domain.BypassKindAttempt, gs, now)
		}
	}
	if err := s.tokens.MarkUsed(ctx, tokenStr, now); err != nil {
		if isConflict(err) {
			// Lost the race to a concurrent attempt with the same token.
			return s.reject(ctx, ownerID, domain.VerifyAlreadyUsed, domain.BypassKindTokenReuse, gs, now)
		}
		return nil, err
	}
	return &VerifyResult{Outcome: domain.VerifyOK, Payload: t.Payload}, nil
}

// reject logs the failed attempt. Only a BYPASS outcome counts toward the
// auto-ban; expired or invalid tokens are ordinary failures, and premium
// owners are never auto-banned.
func (s *service) reject(ctx context.Context, ownerID int64, outcome domain.VerifyOutcome, kind string, gs *domain.GateSettings, now time.Time) (*VerifyResult, error) {
	if err := s.bypass.Append(ctx, &domain.BypassAttempt{
		AttemptID: id.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		Timestamp: now,
	}); err != nil {
		slog.Warn("could not record bypass attempt", "owner", ownerID, "kind", kind, "err", err)
	}

	res := &VerifyResult{Outcome: outcome}
	if outcome != domain.VerifyBypass {
		return res, nil
	}
	if o, err := s.owners.Get(ctx, ownerID); err == nil && o.PremiumActive(now) {
		return res, nil
	}
	count, err := s.bypass.CountSince(ctx, ownerID, now.Add(-banWindow))
	if err != nil {
		slog.Warn("could not count bypass attempts", "owner", ownerID, "err", err)
		return res, nil
	}
	if count >= gs.AutoBanThreshold {
		if err := s.owners.Update(ctx, ownerID, map[string]interface{}{"banned": true}); err != nil {
			slog.Warn("could not auto-ban owner", "owner", ownerID, "err", err)
			return res, nil
		}
		res.AutoBanned = true
		slog.Info("owner auto-banned", "owner", ownerID, "attempts", count)
		if s.notifier != nil {
			s.notifier.NotifyBan(ctx, ownerID, count)
		}
	}
	return res, nil
}

func (s *service) TokenStats(ctx context.Context) (*domain.TokenStats, error) {
	return s.tokens.Stats(ctx)
}

func (s *service) BypassStats(ctx context.Context) ([]domain.BypassStats, error) {
	return s.bypass.Stats(ctx)
}

func (s *service) ClearBypassRecord(ctx context.Context, ownerID int64) (int, error) {
	return s.bypass.Clear(ctx, ownerID)
}

func (s *service) RevokeTokens(ctx context.Context, ownerID int64) (int, error) {
	return s.tokens.DeleteForOwner(ctx, ownerID)
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
