package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediagate/internal/domain"
)

// --- mocks ---

type mockPaymentStore struct{ mock.Mock }

func (m *mockPaymentStore) Put(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPaymentStore) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if p, _ := args.Get(0).(*domain.Payment); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPaymentStore) UpdateStatus(ctx context.Context, paymentID, status string, now time.Time) error {
	return m.Called(ctx, paymentID, status, now).Error(0)
}
func (m *mockPaymentStore) ListPending(ctx context.Context) ([]domain.Payment, error) {
	args := m.Called(ctx)
	if p, _ := args.Get(0).([]domain.Payment); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPaymentStore) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, ownerID)
	if p, _ := args.Get(0).([]domain.Payment); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCreditor struct{ mock.Mock }

func (m *mockCreditor) Credit(ctx context.Context, ownerID int64, amount int, reason string) error {
	return m.Called(ctx, ownerID, amount, reason).Error(0)
}

func newService(ps *mockPaymentStore, cr *mockCreditor) Service {
	return NewService(ServiceDeps{
		PaymentRepo: ps,
		Ledger:      cr,
		Providers: []Provider{
			ManualProvider{Instructions: "Pay via UPI operator@bank."},
			StarsProvider{},
			GatewayProvider{BaseURL: "https://pay.example/checkout"},
		},
	})
}

// --- Create ---

func TestCreateManualPayment(t *testing.T) {
	ps := &mockPaymentStore{}
	ps.On("Put", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.OwnerID == 7 && p.PackageID == "pkg_25" && p.Credits == 25 &&
			p.Status == domain.PayStatusPending && p.Method == domain.PayMethodManual
	})).Return(nil)

	svc := newService(ps, &mockCreditor{})
	instr, err := svc.Create(context.Background(), 7, "pkg_25", domain.PayMethodManual)

	require.NoError(t, err)
	assert.Equal(t, domain.PayMethodManual, instr.Method)
	assert.Contains(t, instr.Instructions, "UPI")
	ps.AssertExpectations(t)
}

func TestCreateStarsPayment(t *testing.T) {
	ps := &mockPaymentStore{}
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newService(ps, &mockCreditor{})
	instr, err := svc.Create(context.Background(), 7, "pkg_10", domain.PayMethodStars)

	require.NoError(t, err)
	assert.Equal(t, 50, instr.StarsAmount)
}

func TestCreateGatewayPayment(t *testing.T) {
	ps := &mockPaymentStore{}
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newService(ps, &mockCreditor{})
	instr, err := svc.Create(context.Background(), 7, "pkg_100", domain.PayMethodGateway)

	require.NoError(t, err)
	assert.Contains(t, instr.PaymentLink, "https://pay.example/checkout?ref=")
}

func TestCreateUnknownPackage(t *testing.T) {
	svc := newService(&mockPaymentStore{}, &mockCreditor{})
	_, err := svc.Create(context.Background(), 7, "pkg_999", domain.PayMethodManual)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCreateUnknownMethod(t *testing.T) {
	svc := newService(&mockPaymentStore{}, &mockCreditor{})
	_, err := svc.Create(context.Background(), 7, "pkg_10", "bitcoin")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Approve / Reject ---

func TestApproveCreditsBuyer(t *testing.T) {
	ps := &mockPaymentStore{}
	cr := &mockCreditor{}
	ps.On("Get", mock.Anything, "p1").Return(&domain.Payment{
		PaymentID: "p1", OwnerID: 7, PackageID: "pkg_25", Credits: 25,
		Status: domain.PayStatusPending,
	}, nil)
	ps.On("UpdateStatus", mock.Anything, "p1", domain.PayStatusApproved, mock.Anything).Return(nil)
	cr.On("Credit", mock.Anything, int64(7), 25, "purchase pkg_25").Return(nil)

	svc := newService(ps, cr)
	p, err := svc.Approve(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, domain.PayStatusApproved, p.Status)
	cr.AssertExpectations(t)
}

func TestApproveNonPendingIsConflict(t *testing.T) {
	ps := &mockPaymentStore{}
	ps.On("Get", mock.Anything, "p1").Return(&domain.Payment{
		PaymentID: "p1", Status: domain.PayStatusApproved,
	}, nil)

	svc := newService(ps, &mockCreditor{})
	_, err := svc.Approve(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRejectDoesNotCredit(t *testing.T) {
	ps := &mockPaymentStore{}
	cr := &mockCreditor{}
	ps.On("Get", mock.Anything, "p1").Return(&domain.Payment{
		PaymentID: "p1", OwnerID: 7, Status: domain.PayStatusPending,
	}, nil)
	ps.On("UpdateStatus", mock.Anything, "p1", domain.PayStatusRejected, mock.Anything).Return(nil)

	svc := newService(ps, cr)
	p, err := svc.Reject(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, domain.PayStatusRejected, p.Status)
	cr.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveMissingPayment(t *testing.T) {
	ps := &mockPaymentStore{}
	ps.On("Get", mock.Anything, "nope").Return(nil, fmt.Errorf("payment nope: %w", domain.ErrNotFound))

	svc := newService(ps, &mockCreditor{})
	_, err := svc.Approve(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
