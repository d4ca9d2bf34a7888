package access

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediagate/internal/application/gate"
	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/linkcodec"
)

// --- mocks ---

type mockCodec struct{ mock.Mock }

func (m *mockCodec) Decode(tok string) (linkcodec.Decoded, error) {
	args := m.Called(tok)
	d, _ := args.Get(0).(linkcodec.Decoded)
	return d, args.Error(1)
}

type mockGate struct{ mock.Mock }

func (m *mockGate) Issue(ctx context.Context, ownerID int64, payload string) (*gate.Challenge, error) {
	args := m.Called(ctx, ownerID, payload)
	if c, _ := args.Get(0).(*gate.Challenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGate) Verify(ctx context.Context, ownerID int64, tokenStr string) (*gate.VerifyResult, error) {
	args := m.Called(ctx, ownerID, tokenStr)
	if r, _ := args.Get(0).(*gate.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Credit(ctx context.Context, ownerID int64, amount int, reason string) error {
	return m.Called(ctx, ownerID, amount, reason).Error(0)
}
func (m *mockLedger) DebitOne(ctx context.Context, ownerID int64, reason string) error {
	return m.Called(ctx, ownerID, reason).Error(0)
}
func (m *mockLedger) ApplyReferral(ctx context.Context, ownerID int64, code string) error {
	return m.Called(ctx, ownerID, code).Error(0)
}
func (m *mockLedger) RewardFirstSpend(ctx context.Context, ownerID int64) error {
	return m.Called(ctx, ownerID).Error(0)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Snapshot(ctx context.Context) (*domain.GateSettings, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.GateSettings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOwnerStore struct{ mock.Mock }

func (m *mockOwnerStore) Get(ctx context.Context, ownerID int64) (*domain.Owner, error) {
	args := m.Called(ctx, ownerID)
	if o, _ := args.Get(0).(*domain.Owner); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOwnerStore) Put(ctx context.Context, o *domain.Owner) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockOwnerStore) Update(ctx context.Context, ownerID int64, updates map[string]interface{}) error {
	return m.Called(ctx, ownerID, updates).Error(0)
}

type mockItemStore struct{ mock.Mock }

func (m *mockItemStore) Get(ctx context.Context, locationID, itemID int64) (*domain.Item, error) {
	args := m.Called(ctx, locationID, itemID)
	if it, _ := args.Get(0).(*domain.Item); it != nil {
		return it, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBatchStore struct{ mock.Mock }

func (m *mockBatchStore) Get(ctx context.Context, batchID string) (*domain.Batch, error) {
	args := m.Called(ctx, batchID)
	if b, _ := args.Get(0).(*domain.Batch); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type mockDeliveryStore struct{ mock.Mock }

func (m *mockDeliveryStore) Put(ctx context.Context, d *domain.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

// --- fixture ---

type fixture struct {
	codec      *mockCodec
	gate       *mockGate
	ledger     *mockLedger
	settings   *mockSettings
	owners     *mockOwnerStore
	items      *mockItemStore
	batches    *mockBatchStore
	objects    *mockObjectStore
	deliveries *mockDeliveryStore
	svc        Service
}

func newFixture() *fixture {
	f := &fixture{
		codec:      &mockCodec{},
		gate:       &mockGate{},
		ledger:     &mockLedger{},
		settings:   &mockSettings{},
		owners:     &mockOwnerStore{},
		items:      &mockItemStore{},
		batches:    &mockBatchStore{},
		objects:    &mockObjectStore{},
		deliveries: &mockDeliveryStore{},
	}
	f.svc = NewService(ServiceDeps{
		Codec:        f.codec,
		Gate:         f.gate,
		Ledger:       f.ledger,
		Settings:     f.settings,
		OwnerRepo:    f.owners,
		ItemRepo:     f.items,
		BatchRepo:    f.batches,
		ObjectStore:  f.objects,
		DeliveryRepo: f.deliveries,
	})
	return f
}

func defaultSettings() *domain.GateSettings {
	return &domain.GateSettings{
		VerificationEnabled: true,
		VerificationReward:  3,
		CreditSystemEnabled: true,
		AutoDeleteSeconds:   120,
	}
}

func (f *fixture) knownOwner(ownerID int64) {
	f.owners.On("Get", mock.Anything, ownerID).Return(&domain.Owner{
		OwnerID: ownerID, CreatedAt: time.Now().UTC().Add(-time.Hour),
	}, nil)
}

func (f *fixture) stockItem(loc, itemID int64) {
	f.items.On("Get", mock.Anything, loc, itemID).Return(&domain.Item{
		LocationID: loc, ItemID: itemID,
		Object:   fmt.Sprintf("items/%d/%d/file.mkv", loc, itemID),
		Filename: "file.mkv",
	}, nil)
	f.objects.On("PresignedURL", mock.Anything, fmt.Sprintf("items/%d/%d/file.mkv", loc, itemID), releaseURLTTL).
		Return(fmt.Sprintf("https://cdn.example/%d", itemID), nil)
}

// --- Open ---

func TestOpenBannedOwner(t *testing.T) {
	f := newFixture()
	f.owners.On("Get", mock.Anything, int64(7)).Return(&domain.Owner{OwnerID: 7, Banned: true}, nil)

	_, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")
	assert.ErrorIs(t, err, domain.ErrOwnerBanned)
}

func TestOpenRegistersUnknownOwner(t *testing.T) {
	f := newFixture()
	f.owners.On("Get", mock.Anything, int64(7)).Return(nil, fmt.Errorf("owner: %w", domain.ErrNotFound))
	f.owners.On("Put", mock.Anything, mock.MatchedBy(func(o *domain.Owner) bool {
		return o.OwnerID == 7 && !o.Banned
	})).Return(nil)
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.ledger.On("DebitOne", mock.Anything, int64(7), "item release").
		Return(fmt.Errorf("balance is zero: %w", domain.ErrInsufficientCredit))
	f.gate.On("Issue", mock.Anything, int64(7), "Z2V0LTQy").
		Return(&gate.Challenge{VerifyURL: "https://short.example/x"}, nil)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindChallenge, res.Kind)
	assert.Equal(t, "https://short.example/x", res.VerifyURL)
	f.owners.AssertExpectations(t)
}

func TestOpenDebitsAndReleases(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.ledger.On("DebitOne", mock.Anything, int64(7), "item release").Return(nil)
	f.ledger.On("RewardFirstSpend", mock.Anything, int64(7)).Return(nil)
	f.codec.On("Decode", "Z2V0LTQy").Return(linkcodec.Decoded{
		Kind: linkcodec.KindSingle, LocationID: -100123, ItemID: 42,
	}, nil)
	f.stockItem(-100123, 42)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindReleased, res.Kind)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "https://cdn.example/42", res.Items[0].URL)
	f.ledger.AssertExpectations(t)
}

func TestOpenFreeWhenVerificationDisabled(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	gs := defaultSettings()
	gs.VerificationEnabled = false
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)
	f.codec.On("Decode", "Z2V0LTQy").Return(linkcodec.Decoded{
		Kind: linkcodec.KindSingle, LocationID: -100123, ItemID: 42,
	}, nil)
	f.stockItem(-100123, 42)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindReleased, res.Kind)
	f.ledger.AssertNotCalled(t, "DebitOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenFreeForPremiumOwner(t *testing.T) {
	f := newFixture()
	future := time.Now().UTC().Add(24 * time.Hour)
	f.owners.On("Get", mock.Anything, int64(7)).Return(&domain.Owner{
		OwnerID: 7, Premium: true, PremiumExpire: &future,
	}, nil)
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.codec.On("Decode", "Z2V0LTQy").Return(linkcodec.Decoded{
		Kind: linkcodec.KindSingle, LocationID: -100123, ItemID: 42,
	}, nil)
	f.stockItem(-100123, 42)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindReleased, res.Kind)
	f.ledger.AssertNotCalled(t, "DebitOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenLapsedPremiumIsRevoked(t *testing.T) {
	f := newFixture()
	past := time.Now().UTC().Add(-time.Hour)
	f.owners.On("Get", mock.Anything, int64(7)).Return(&domain.Owner{
		OwnerID: 7, Premium: true, PremiumExpire: &past,
	}, nil)
	f.owners.On("Update", mock.Anything, int64(7), map[string]interface{}{"premium": false}).Return(nil)
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.ledger.On("DebitOne", mock.Anything, int64(7), "item release").
		Return(fmt.Errorf("balance is zero: %w", domain.ErrInsufficientCredit))
	f.gate.On("Issue", mock.Anything, int64(7), "Z2V0LTQy").
		Return(&gate.Challenge{VerifyURL: "https://short.example/x"}, nil)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindChallenge, res.Kind)
	f.owners.AssertExpectations(t)
}

func TestOpenChallengeWhenCreditSystemDisabled(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	gs := defaultSettings()
	gs.CreditSystemEnabled = false
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)
	f.gate.On("Issue", mock.Anything, int64(7), "Z2V0LTQy").
		Return(&gate.Challenge{VerifyURL: "https://short.example/x"}, nil)

	res, err := f.svc.Open(context.Background(), 7, "Z2V0LTQy")

	require.NoError(t, err)
	assert.Equal(t, KindChallenge, res.Kind)
	f.ledger.AssertNotCalled(t, "DebitOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenReferral(t *testing.T) {
	f := newFixture()
	f.knownOwner(9)
	f.ledger.On("ApplyReferral", mock.Anything, int64(9), "REF0007ABCDEF").Return(nil)

	res, err := f.svc.Open(context.Background(), 9, "ref-REF0007ABCDEF")

	require.NoError(t, err)
	assert.Equal(t, KindReferralApplied, res.Kind)
}

// --- verification return leg ---

func TestOpenVerifyOKRewardsAndReleases(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	f.gate.On("Verify", mock.Anything, int64(7), "tok123").Return(&gate.VerifyResult{
		Outcome: domain.VerifyOK, Payload: "Z2V0LTQy",
	}, nil)
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.ledger.On("Credit", mock.Anything, int64(7), 3, "verification reward").Return(nil)
	f.codec.On("Decode", "Z2V0LTQy").Return(linkcodec.Decoded{
		Kind: linkcodec.KindSingle, LocationID: -100123, ItemID: 42,
	}, nil)
	f.stockItem(-100123, 42)

	res, err := f.svc.Open(context.Background(), 7, "verify-tok123")

	require.NoError(t, err)
	assert.Equal(t, KindReleased, res.Kind)
	f.ledger.AssertExpectations(t)
}

func TestOpenVerifyOutcomesMapToErrors(t *testing.T) {
	cases := []struct {
		outcome domain.VerifyOutcome
		want    error
	}{
		{domain.VerifyInvalid, domain.ErrTokenInvalid},
		{domain.VerifyExpired, domain.ErrTokenExpired},
		{domain.VerifyAlreadyUsed, domain.ErrTokenReused},
		{domain.VerifyBypass, domain.ErrBypassDetected},
	}
	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			f := newFixture()
			f.knownOwner(7)
			f.gate.On("Verify", mock.Anything, int64(7), "tok123").
				Return(&gate.VerifyResult{Outcome: tc.outcome}, nil)

			_, err := f.svc.Open(context.Background(), 7, "verify-tok123")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// --- batch and range release ---

func TestOpenBatchRelease(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	gs := defaultSettings()
	gs.VerificationEnabled = false
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)
	f.batches.On("Get", mock.Anything, "b1").Return(&domain.Batch{
		BatchID: "b1",
		Title:   "Show Name",
		Files: []domain.BatchFile{
			{FileID: "f1", Quality: "480p", LocationID: -100123, ItemID: 10},
			{FileID: "f2", Quality: "720p", LocationID: -100123, ItemID: 11},
		},
	}, nil)
	f.stockItem(-100123, 10)
	f.stockItem(-100123, 11)

	res, err := f.svc.Open(context.Background(), 7, "batch-b1")

	require.NoError(t, err)
	assert.Equal(t, KindReleased, res.Kind)
	assert.Equal(t, "Show Name", res.BatchTitle)
	assert.False(t, res.SeasonPack)
	assert.Len(t, res.Items, 2)
}

func TestRangeReleaseSkipsGaps(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	gs := defaultSettings()
	gs.VerificationEnabled = false
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)
	f.codec.On("Decode", "rangeTok").Return(linkcodec.Decoded{
		Kind: linkcodec.KindRange, LocationID: -100123, FirstID: 10, LastID: 12,
	}, nil)
	f.stockItem(-100123, 10)
	f.items.On("Get", mock.Anything, int64(-100123), int64(11)).
		Return(nil, fmt.Errorf("item: %w", domain.ErrNotFound))
	f.stockItem(-100123, 12)

	res, err := f.svc.Open(context.Background(), 7, "rangeTok")

	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(10), res.Items[0].ItemID)
	assert.Equal(t, int64(12), res.Items[1].ItemID)
}

func TestOpenMalformedLink(t *testing.T) {
	f := newFixture()
	f.knownOwner(7)
	gs := defaultSettings()
	gs.VerificationEnabled = false
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)
	f.codec.On("Decode", "%%bad%%").Return(linkcodec.Decoded{}, fmt.Errorf("deobfuscate: %w", domain.ErrMalformedLink))

	_, err := f.svc.Open(context.Background(), 7, "%%bad%%")
	assert.ErrorIs(t, err, domain.ErrMalformedLink)
}

// --- RegisterDelivery ---

func TestRegisterDelivery(t *testing.T) {
	f := newFixture()
	f.settings.On("Snapshot", mock.Anything).Return(defaultSettings(), nil)
	f.deliveries.On("Put", mock.Anything, mock.MatchedBy(func(d *domain.Delivery) bool {
		return d.ChatID == 5 && d.MessageID == 99 && d.DeleteTS > time.Now().Unix()
	})).Return(nil)

	require.NoError(t, f.svc.RegisterDelivery(context.Background(), 5, 99))
	f.deliveries.AssertExpectations(t)
}

func TestRegisterDeliveryDisabled(t *testing.T) {
	f := newFixture()
	gs := defaultSettings()
	gs.AutoDeleteSeconds = 0
	f.settings.On("Snapshot", mock.Anything).Return(gs, nil)

	require.NoError(t, f.svc.RegisterDelivery(context.Background(), 5, 99))
	f.deliveries.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}
