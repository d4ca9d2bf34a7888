// Package access is the decision point of the gate: it takes an owner and a
// deep-link payload and decides between releasing items, demanding a
// verification walk, or rejecting the attempt.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mediagate/internal/application/gate"
	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/linkcodec"
	"github.com/mediagate/internal/pkg/id"
)

// Deep-link payload prefixes. Anything unprefixed is an encoded share token.
const (
	prefixVerify = "verify-"
	prefixBatch  = "batch-"
	prefixRef    = "ref-"
)

// Result kinds.
const (
	KindReleased        = "released"
	KindChallenge       = "challenge"
	KindReferralApplied = "referral_applied"
)

// releaseURLTTL bounds how long a handed-out presigned URL stays live.
const releaseURLTTL = time.Hour

// OpenResult is the outcome of one open request.
type OpenResult struct {
	Kind       string                `json:"kind"`
	Items      []domain.ReleasedItem `json:"items,omitempty"`
	BatchTitle string                `json:"batch_title,omitempty"`
	SeasonPack bool                  `json:"season_pack,omitempty"`
	// VerifyURL is set on KindChallenge: the short link the owner must walk.
	VerifyURL string `json:"verify_url,omitempty"`
}

type Service interface {
	// Open resolves a deep-link payload for an owner.
	Open(ctx context.Context, ownerID int64, payload string) (*OpenResult, error)
	// RegisterDelivery queues a delivered transport message for timed
	// deletion, per the auto-delete setting.
	RegisterDelivery(ctx context.Context, chatID, messageID int64) error
}

type gateService interface {
	Issue(ctx context.Context, ownerID int64, payload string) (*gate.Challenge, error)
	Verify(ctx context.Context, ownerID int64, tokenStr string) (*gate.VerifyResult, error)
}

type ledgerService interface {
	Credit(ctx context.Context, ownerID int64, amount int, reason string) error
	DebitOne(ctx context.Context, ownerID int64, reason string) error
	ApplyReferral(ctx context.Context, ownerID int64, code string) error
	RewardFirstSpend(ctx context.Context, ownerID int64) error
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (*domain.GateSettings, error)
}

type ownerStore interface {
	Get(ctx context.Context, ownerID int64) (*domain.Owner, error)
	Put(ctx context.Context, o *domain.Owner) error
	Update(ctx context.Context, ownerID int64, updates map[string]interface{}) error
}

type itemStore interface {
	Get(ctx context.Context, locationID, itemID int64) (*domain.Item, error)
}

type batchStore interface {
	Get(ctx context.Context, batchID string) (*domain.Batch, error)
}

type objectStore interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type deliveryStore interface {
	Put(ctx context.Context, d *domain.Delivery) error
}

type linkDecoder interface {
	Decode(tok string) (linkcodec.Decoded, error)
}

type service struct {
	codec      linkDecoder
	gate       gateService
	ledger     ledgerService
	settings   settingsProvider
	owners     ownerStore
	items      itemStore
	batches    batchStore
	objects    objectStore
	deliveries deliveryStore
}

type ServiceDeps struct {
	Codec        linkDecoder
	Gate         gateService
	Ledger       ledgerService
	Settings     settingsProvider
	OwnerRepo    ownerStore
	ItemRepo     itemStore
	BatchRepo    batchStore
	ObjectStore  objectStore
	DeliveryRepo deliveryStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codec:      deps.Codec,
		gate:       deps.Gate,
		ledger:     deps.Ledger,
		settings:   deps.Settings,
		owners:     deps.OwnerRepo,
		items:      deps.ItemRepo,
		batches:    deps.BatchRepo,
		objects:    deps.ObjectStore,
		deliveries: deps.DeliveryRepo,
	}
}

func (s *service) Open(ctx context.Context, ownerID int64, payload string) (*OpenResult, error) {
	owner, err := s.ensureOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Banned {
		return nil, fmt.Errorf("owner %d: %w", ownerID, domain.ErrOwnerBanned)
	}
	if payload == "" {
		return nil, fmt.Errorf("empty payload: %w", domain.ErrBadRequest)
	}

	switch {
	case strings.HasPrefix(payload, prefixRef):
		if err := s.ledger.ApplyReferral(ctx, ownerID, strings.TrimPrefix(payload, prefixRef)); err != nil {
			return nil, err
		}
		return &OpenResult{Kind: KindReferralApplied}, nil

	case strings.HasPrefix(payload, prefixVerify):
		return s.completeVerification(ctx, owner, strings.TrimPrefix(payload, prefixVerify))

	default:
		return s.gatedRelease(ctx, owner, payload)
	}
}

// completeVerification is the return leg: judge the token and, on OK, reward
// and release what it was bound to.
func (s *service) completeVerification(ctx context.Context, owner *domain.Owner, tokenStr string) (*OpenResult, error) {
	vr, err := s.gate.Verify(ctx, owner.OwnerID, tokenStr)
	if err != nil {
		return nil, err
	}
	switch vr.Outcome {
	case domain.VerifyOK:
		// Reward first so a release failure does not swallow the earn.
		gs, err := s.settings.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if gs.CreditSystemEnabled && gs.VerificationReward > 0 {
			if err := s.ledger.Credit(ctx, owner.OwnerID, gs.VerificationReward, "verification reward"); err != nil {
				slog.Warn("could not credit verification reward", "owner", owner.OwnerID, "err", err)
			}
		}
		return s.release(ctx, vr.Payload)
	case domain.VerifyExpired:
		return nil, fmt.Errorf("verification: %w", domain.ErrTokenExpired)
	case domain.VerifyAlreadyUsed:
		return nil, fmt.Errorf("verification: %w", domain.ErrTokenReused)
	case domain.VerifyBypass:
		return nil, fmt.Errorf("verification: %w", domain.ErrBypassDetected)
	default:
		return nil, fmt.Errorf("verification: %w", domain.ErrTokenInvalid)
	}
}

// gatedRelease applies the access policy to a share link: free when
// verification is off or the owner is premium, one credit when they have
// one, a verification challenge otherwise.
func (s *service) gatedRelease(ctx context.Context, owner *domain.Owner, payload string) (*OpenResult, error) {
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if !gs.VerificationEnabled || owner.PremiumActive(now) {
		return s.release(ctx, payload)
	}
	if gs.CreditSystemEnabled {
		err := s.ledger.DebitOne(ctx, owner.OwnerID, "item release")
		if err == nil {
			if rerr := s.ledger.RewardFirstSpend(ctx, owner.OwnerID); rerr != nil {
				slog.Warn("could not pay referral reward", "owner", owner.OwnerID, "err", rerr)
			}
			return s.release(ctx, payload)
		}
		if !errors.Is(err, domain.ErrInsufficientCredit) {
			return nil, err
		}
	}

	ch, err := s.gate.Issue(ctx, owner.OwnerID, payload)
	if err != nil {
		return nil, err
	}
	return &OpenResult{Kind: KindChallenge, VerifyURL: ch.VerifyURL}, nil
}

// release resolves a payload to concrete items with presigned URLs. Batch
// payloads release every member; ranges skip gaps.
func (s *service) release(ctx context.Context, payload string) (*OpenResult, error) {
	if strings.HasPrefix(payload, prefixBatch) {
		return s.releaseBatch(ctx, strings.TrimPrefix(payload, prefixBatch))
	}

	d, err := s.codec.Decode(payload)
	if err != nil {
		return nil, err
	}
	ids := d.ItemIDs()
	released := make([]domain.ReleasedItem, 0, len(ids))
	for _, itemID := range ids {
		ri, err := s.releaseOne(ctx, d.LocationID, itemID)
		if err != nil {
			if d.Kind == linkcodec.KindRange && errors.Is(err, domain.ErrNotFound) {
				// Holes happen when items are deleted after the range link
				// was shared; release what remains.
				continue
			}
			return nil, err
		}
		released = append(released, *ri)
	}
	if len(released) == 0 {
		return nil, fmt.Errorf("no items left in range: %w", domain.ErrNotFound)
	}
	return &OpenResult{Kind: KindReleased, Items: released}, nil
}

func (s *service) releaseBatch(ctx context.Context, batchID string) (*OpenResult, error) {
	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	released := make([]domain.ReleasedItem, 0, len(b.Files))
	for _, f := range b.Files {
		ri, err := s.releaseOne(ctx, f.LocationID, f.ItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slog.Warn("batch member missing", "batch", batchID, "item", f.ItemID)
				continue
			}
			return nil, err
		}
		released = append(released, *ri)
	}
	if len(released) == 0 {
		return nil, fmt.Errorf("batch %s has no releasable items: %w", batchID, domain.ErrNotFound)
	}
	return &OpenResult{
		Kind:       KindReleased,
		Items:      released,
		BatchTitle: b.Title,
		SeasonPack: b.SeasonPack(),
	}, nil
}

func (s *service) releaseOne(ctx context.Context, locationID, itemID int64) (*domain.ReleasedItem, error) {
	it, err := s.items.Get(ctx, locationID, itemID)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignedURL(ctx, it.Object, releaseURLTTL)
	if err != nil {
		return nil, err
	}
	return &domain.ReleasedItem{
		LocationID: it.LocationID,
		ItemID:     it.ItemID,
		Filename:   it.Filename,
		URL:        url,
	}, nil
}

func (s *service) RegisterDelivery(ctx context.Context, chatID, messageID int64) error {
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	if gs.AutoDeleteSeconds <= 0 {
		return nil
	}
	return s.deliveries.Put(ctx, &domain.Delivery{
		DeliveryID: id.New(),
		ChatID:     chatID,
		MessageID:  messageID,
		DeleteTS:   time.Now().UTC().Add(time.Duration(gs.AutoDeleteSeconds) * time.Second).Unix(),
	})
}

func (s *service) ensureOwner(ctx context.Context, ownerID int64) (*domain.Owner, error) {
	o, err := s.owners.Get(ctx, ownerID)
	if err == nil {
		now := time.Now().UTC()
		if o.Premium && !o.PremiumActive(now) {
			// Lazy premium revoke once the expiry passes.
			if uerr := s.owners.Update(ctx, ownerID, map[string]interface{}{"premium": false}); uerr != nil {
				slog.Warn("could not revoke lapsed premium", "owner", ownerID, "err", uerr)
			}
			o.Premium = false
		}
		return o, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	o = &domain.Owner{OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	if err := s.owners.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
