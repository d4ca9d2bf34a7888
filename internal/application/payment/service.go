// Package payment sells credit packages. Each payment method is its own
// Provider; the service only sequences the shared lifecycle of create,
// approve or reject, credit.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/id"
)

// Provider starts a payment for one method and produces the instructions
// the buyer needs to complete it.
type Provider interface {
	Method() string
	Begin(ctx context.Context, p *domain.Payment) (*domain.PaymentInstructions, error)
}

type Service interface {
	Packages() []domain.CreditPackage
	Create(ctx context.Context, ownerID int64, packageID, method string) (*domain.PaymentInstructions, error)
	// Approve settles a pending payment and credits the buyer.
	Approve(ctx context.Context, paymentID string) (*domain.Payment, error)
	Reject(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPending(ctx context.Context) ([]domain.Payment, error)
	History(ctx context.Context, ownerID int64) ([]domain.Payment, error)
}

type paymentStore interface {
	Put(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, paymentID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, paymentID, status string, now time.Time) error
	ListPending(ctx context.Context) ([]domain.Payment, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Payment, error)
}

type creditor interface {
	Credit(ctx context.Context, ownerID int64, amount int, reason string) error
}

type service struct {
	repo      paymentStore
	ledger    creditor
	providers map[string]Provider
}

type ServiceDeps struct {
	PaymentRepo paymentStore
	Ledger      creditor
	Providers   []Provider
}

func NewService(deps ServiceDeps) Service {
	providers := make(map[string]Provider, len(deps.Providers))
	for _, p := range deps.Providers {
		providers[p.Method()] = p
	}
	return &service{repo: deps.PaymentRepo, ledger: deps.Ledger, providers: providers}
}

func (s *service) Packages() []domain.CreditPackage {
	return domain.DefaultPackages
}

func (s *service) Create(ctx context.Context, ownerID int64, packageID, method string) (*domain.PaymentInstructions, error) {
	pkg := domain.PackageByID(packageID)
	if pkg == nil {
		return nil, fmt.Errorf("unknown package %q: %w", packageID, domain.ErrBadRequest)
	}
	provider, ok := s.providers[method]
	if !ok {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	p := &domain.Payment{
		PaymentID: id.New(),
		OwnerID:   ownerID,
		Method:    method,
		PackageID: pkg.PackageID,
		Credits:   pkg.Credits,
		Price:     pkg.Price,
		Status:    domain.PayStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return provider.Begin(ctx, p)
}

func (s *service) Approve(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PayStatusPending {
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, domain.ErrConflict)
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, paymentID, domain.PayStatusApproved, now); err != nil {
		return nil, err
	}
	reason := fmt.Sprintf("purchase %s", p.PackageID)
	if err := s.ledger.Credit(ctx, p.OwnerID, p.Credits, reason); err != nil {
		return nil, err
	}
	p.Status = domain.PayStatusApproved
	p.UpdatedAt = now
	return p, nil
}

func (s *service) Reject(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PayStatusPending {
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, domain.ErrConflict)
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, paymentID, domain.PayStatusRejected, now); err != nil {
		return nil, err
	}
	p.Status = domain.PayStatusRejected
	p.UpdatedAt = now
	return p, nil
}

func (s *service) ListPending(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.ListPending(ctx)
}

func (s *service) History(ctx context.Context, ownerID int64) ([]domain.Payment, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
