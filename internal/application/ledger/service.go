// Package ledger manages credit balances, their expiry, and the referral
// program. Every balance change flows through an atomic storage update and
// leaves a transaction behind.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mediagate/internal/domain"
	pkgtoken "github.com/mediagate/internal/pkg/token"
)

type Service interface {
	// Get returns the owner's account, lazily zeroing an expired balance.
	// A missing account comes back as an empty one.
	Get(ctx context.Context, ownerID int64) (*domain.CreditAccount, error)
	Credit(ctx context.Context, ownerID int64, amount int, reason string) error
	// CreditWithExpiry grants credits with a caller-chosen lifetime in days.
	// Zero days falls back to the configured default.
	CreditWithExpiry(ctx context.Context, ownerID int64, amount int, reason string, expiryDays int) error
	// DebitOne spends a single credit, or fails with ErrInsufficientCredit.
	DebitOne(ctx context.Context, ownerID int64, reason string) error
	SetBalance(ctx context.Context, ownerID int64, amount int, reason string) error
	SetBalanceWithExpiry(ctx context.Context, ownerID int64, amount int, reason string, expiryDays int) error
	Reset(ctx context.Context, ownerID int64) error
	// Transactions returns the audit log, newest first.
	Transactions(ctx context.Context, ownerID int64, limit int) ([]domain.Transaction, error)
	// EnsureReferralCode returns the owner's code, minting one on first use.
	EnsureReferralCode(ctx context.Context, ownerID int64) (string, error)
	// ApplyReferral binds the owner to the referrer behind the code. At most
	// once per owner; self-referral is rejected.
	ApplyReferral(ctx context.Context, ownerID int64, code string) error
	// RewardFirstSpend pays the referrer after the owner's first debit.
	// Idempotent; later spends do nothing.
	RewardFirstSpend(ctx context.Context, ownerID int64) error
	Stats(ctx context.Context) (*domain.CreditStats, error)
	// SweepExpired zeroes every account whose balance outlived its expiry.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type creditStore interface {
	Get(ctx context.Context, ownerID int64) (*domain.CreditAccount, error)
	Credit(ctx context.Context, ownerID int64, amount int, txnType, reason string, expiry *time.Time, now time.Time) error
	DebitOne(ctx context.Context, ownerID int64, reason string, now time.Time) error
	SetBalance(ctx context.Context, ownerID int64, amount int, txnType, reason string, expiry *time.Time, now time.Time) error
	Expire(ctx context.Context, ownerID int64, oldBalance int, now time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]domain.CreditAccount, error)
	SetReferralCode(ctx context.Context, ownerID int64, code string) error
	FindByReferralCode(ctx context.Context, code string) (*domain.CreditAccount, error)
	BindReferrer(ctx context.Context, ownerID, referrerID int64) error
	MarkReferralRewarded(ctx context.Context, ownerID int64) error
	RewardReferral(ctx context.Context, referrerID int64, amount int, reason string, now time.Time) error
	Stats(ctx context.Context) (*domain.CreditStats, error)
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (*domain.GateSettings, error)
}

type service struct {
	repo     creditStore
	settings settingsProvider
}

type ServiceDeps struct {
	CreditRepo creditStore
	Settings   settingsProvider
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.CreditRepo, settings: deps.Settings}
}

func (s *service) Get(ctx context.Context, ownerID int64) (*domain.CreditAccount, error) {
	a, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.CreditAccount{OwnerID: ownerID}, nil
		}
		return nil, err
	}
	now := time.Now().UTC()
	if a.Balance > 0 && a.Expired(now) {
		if err := s.repo.Expire(ctx, ownerID, a.Balance, now); err != nil {
			return nil, err
		}
		a.Balance = 0
		a.Expiry = nil
	}
	return a, nil
}

func (s *service) Credit(ctx context.Context, ownerID int64, amount int, reason string) error {
	return s.CreditWithExpiry(ctx, ownerID, amount, reason, 0)
}

func (s *service) CreditWithExpiry(ctx context.Context, ownerID int64, amount int, reason string, expiryDays int) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive: %w", domain.ErrBadRequest)
	}
	if expiryDays < 0 {
		return fmt.Errorf("expiry days cannot be negative: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	expiry, err := s.expiryFrom(ctx, expiryDays, now)
	if err != nil {
		return err
	}
	return s.repo.Credit(ctx, ownerID, amount, domain.TxnEarned, reason, expiry, now)
}

func (s *service) DebitOne(ctx context.Context, ownerID int64, reason string) error {
	// Zero out an expired balance first so it cannot be spent.
	if _, err := s.Get(ctx, ownerID); err != nil {
		return err
	}
	return s.repo.DebitOne(ctx, ownerID, reason, time.Now().UTC())
}

func (s *service) SetBalance(ctx context.Context, ownerID int64, amount int, reason string) error {
	return s.SetBalanceWithExpiry(ctx, ownerID, amount, reason, 0)
}

func (s *service) SetBalanceWithExpiry(ctx context.Context, ownerID int64, amount int, reason string, expiryDays int) error {
	if amount < 0 {
		return fmt.Errorf("balance cannot be negative: %w", domain.ErrBadRequest)
	}
	if expiryDays < 0 {
		return fmt.Errorf("expiry days cannot be negative: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	expiry, err := s.expiryFrom(ctx, expiryDays, now)
	if err != nil {
		return err
	}
	return s.repo.SetBalance(ctx, ownerID, amount, domain.TxnSet, reason, expiry, now)
}

// expiryFrom resolves the credit lifetime: a per-call day count wins, zero
// falls back to the configured default, and no default means no expiry.
func (s *service) expiryFrom(ctx context.Context, days int, now time.Time) (*time.Time, error) {
	if days == 0 {
		gs, err := s.settings.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		days = gs.CreditExpiryDays
	}
	if days <= 0 {
		return nil, nil
	}
	e := now.Add(time.Duration(days) * 24 * time.Hour)
	return &e, nil
}

func (s *service) Reset(ctx context.Context, ownerID int64) error {
	return s.repo.SetBalance(ctx, ownerID, 0, domain.TxnReset, "operator reset", nil, time.Now().UTC())
}

func (s *service) Transactions(ctx context.Context, ownerID int64, limit int) ([]domain.Transaction, error) {
	a, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	txns := make([]domain.Transaction, 0, len(a.Transactions))
	for i := len(a.Transactions) - 1; i >= 0; i-- {
		txns = append(txns, a.Transactions[i])
		if limit > 0 && len(txns) == limit {
			break
		}
	}
	return txns, nil
}

func (s *service) EnsureReferralCode(ctx context.Context, ownerID int64) (string, error) {
	a, err := s.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if a.ReferralCode != "" {
		return a.ReferralCode, nil
	}
	code, err := newReferralCode(ownerID)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetReferralCode(ctx, ownerID, code); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another request minted one first; use theirs.
			a, err = s.Get(ctx, ownerID)
			if err != nil {
				return "", err
			}
			return a.ReferralCode, nil
		}
		return "", err
	}
	return code, nil
}

func (s *service) ApplyReferral(ctx context.Context, ownerID int64, code string) error {
	referrer, err := s.repo.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown referral code: %w", domain.ErrBadRequest)
		}
		return err
	}
	if referrer.OwnerID == ownerID {
		return fmt.Errorf("cannot refer yourself: %w", domain.ErrBadRequest)
	}
	return s.repo.BindReferrer(ctx, ownerID, referrer.OwnerID)
}

func (s *service) RewardFirstSpend(ctx context.Context, ownerID int64) error {
	a, err := s.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if a.ReferredBy == 0 || a.ReferralRewarded {
		return nil
	}
	if err := s.repo.MarkReferralRewarded(ctx, ownerID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return err
	}
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	reason := fmt.Sprintf("referral of %d", ownerID)
	return s.repo.RewardReferral(ctx, a.ReferredBy, gs.ReferralReward, reason, time.Now().UTC())
}

func (s *service) Stats(ctx context.Context) (*domain.CreditStats, error) {
	return s.repo.Stats(ctx)
}

func (s *service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, a := range expired {
		if err := s.repo.Expire(ctx, a.OwnerID, a.Balance, now); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}

// newReferralCode mints a code from the owner id's trailing digits plus a
// random suffix, e.g. REF4219XKQWLZ.
func newReferralCode(ownerID int64) (string, error) {
	tail := ownerID % 10000
	if tail < 0 {
		tail = -tail
	}
	suffix, err := pkgtoken.RandomUpper(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REF%04d%s", tail, suffix), nil
}
