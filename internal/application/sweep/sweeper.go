// Package sweep runs the background maintenance loops: expiring tokens and
// credits, closing batch windows, and deleting delivered transport messages
// whose timer ran out.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/mediagate/internal/domain"
)

const (
	expiryInterval   = time.Hour
	groupInterval    = 10 * time.Second
	deliveryInterval = 5 * time.Second
)

type tokenReaper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type creditSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type grouper interface {
	TryGroup(ctx context.Context) ([]domain.Batch, error)
	CleanupOld(ctx context.Context) (int, error)
}

type deliveryStore interface {
	ListDue(ctx context.Context, now time.Time) ([]domain.Delivery, error)
	Delete(ctx context.Context, deliveryID string) error
}

type transportClient interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

type Sweeper struct {
	tokens     tokenReaper
	credits    creditSweeper
	grouper    grouper
	deliveries deliveryStore
	transport  transportClient
}

type Deps struct {
	TokenRepo    tokenReaper
	Ledger       creditSweeper
	Grouper      grouper
	DeliveryRepo deliveryStore
	Transport    transportClient
}

func New(deps Deps) *Sweeper {
	return &Sweeper{
		tokens:     deps.TokenRepo,
		credits:    deps.Ledger,
		grouper:    deps.Grouper,
		deliveries: deps.DeliveryRepo,
		transport:  deps.Transport,
	}
}

// Start launches all loops. They stop when ctx is cancelled. Errors are
// logged and retried at the next tick; a failing sweep never stops a loop.
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx, expiryInterval, s.sweepExpiry)
	go s.loop(ctx, groupInterval, s.sweepGroups)
	go s.loop(ctx, deliveryInterval, s.sweepDeliveries)
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Sweeper) sweepExpiry(ctx context.Context) {
	now := time.Now().UTC()
	if n, err := s.tokens.DeleteExpired(ctx, now); err != nil {
		slog.Warn("token expiry sweep failed", "err", err)
	} else if n > 0 {
		slog.Info("expired tokens removed", "count", n)
	}
	if n, err := s.credits.SweepExpired(ctx, now); err != nil {
		slog.Warn("credit expiry sweep failed", "err", err)
	} else if n > 0 {
		slog.Info("expired credit balances zeroed", "count", n)
	}
}

func (s *Sweeper) sweepGroups(ctx context.Context) {
	batches, err := s.grouper.TryGroup(ctx)
	if err != nil {
		slog.Warn("batch grouping sweep failed", "err", err)
		return
	}
	for _, b := range batches {
		slog.Info("batch created", "batch", b.BatchID, "title", b.Title, "files", len(b.Files))
	}
	if _, err := s.grouper.CleanupOld(ctx); err != nil {
		slog.Warn("pending cleanup failed", "err", err)
	}
}

func (s *Sweeper) sweepDeliveries(ctx context.Context) {
	due, err := s.deliveries.ListDue(ctx, time.Now().UTC())
	if err != nil {
		slog.Warn("delivery sweep failed", "err", err)
		return
	}
	for _, d := range due {
		if err := s.transport.DeleteMessage(ctx, d.ChatID, d.MessageID); err != nil {
			slog.Warn("could not delete delivered message", "chat", d.ChatID, "message", d.MessageID, "err", err)
		}
		// One attempt per delivery; the row goes either way.
		if err := s.deliveries.Delete(ctx, d.DeliveryID); err != nil {
			slog.Warn("could not remove delivery row", "delivery", d.DeliveryID, "err", err)
		}
	}
}
