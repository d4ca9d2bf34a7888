// Package batchgroup collects freshly uploaded files and folds related ones
// into batches: quality variants of one episode, or episodes of one series
// at one quality.
package batchgroup

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/quality"
	pkgtoken "github.com/mediagate/internal/pkg/token"
)

type Service interface {
	// AddPending registers an uploaded file as a grouping candidate. Files
	// without a recognized quality tag are not eligible and are dropped.
	AddPending(ctx context.Context, f *domain.PendingFile) error
	// TryGroup folds related pending files inside the collection window into
	// batches and returns the ones created.
	TryGroup(ctx context.Context) ([]domain.Batch, error)
	// CleanupOld drops pending files that never found a partner.
	CleanupOld(ctx context.Context) (int, error)
}

type pendingStore interface {
	Put(ctx context.Context, f *domain.PendingFile) error
	List(ctx context.Context) ([]domain.PendingFile, error)
	Delete(ctx context.Context, fileID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type batchStore interface {
	Put(ctx context.Context, b *domain.Batch) error
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (*domain.GateSettings, error)
}

type service struct {
	pending  pendingStore
	batches  batchStore
	settings settingsProvider
}

type ServiceDeps struct {
	PendingRepo pendingStore
	BatchRepo   batchStore
	Settings    settingsProvider
}

func NewService(deps ServiceDeps) Service {
	return &service{
		pending:  deps.PendingRepo,
		batches:  deps.BatchRepo,
		settings: deps.Settings,
	}
}

func (s *service) AddPending(ctx context.Context, f *domain.PendingFile) error {
	if f.BaseName == "" {
		f.BaseName = quality.BaseName(f.Filename)
	}
	if f.Quality == "" {
		f.Quality = string(quality.Extract(f.Filename))
	}
	if f.Quality == "" {
		// No quality tag, nothing to pair it with.
		return nil
	}
	return s.pending.Put(ctx, f)
}

func (s *service) TryGroup(ctx context.Context) ([]domain.Batch, error) {
	gs, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !gs.AutoBatchEnabled {
		return nil, nil
	}
	files, err := s.pending.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	cutoff := now.Add(-time.Duration(gs.AutoBatchWindowSec) * time.Second)

	// Only files inside the collection window pair up; anything older waits
	// for CleanupOld.
	groups := make(map[string][]domain.PendingFile)
	for _, f := range files {
		if !f.Timestamp.After(cutoff) {
			continue
		}
		groups[groupKey(gs.AutoBatchMode, f)] = append(groups[groupKey(gs.AutoBatchMode, f)], f)
	}

	var created []domain.Batch
	for title, members := range groups {
		if len(members) < 2 {
			continue
		}
		if gs.AutoBatchMode == domain.BatchModeEpisode && !distinctQualities(members) {
			// Same filename uploaded twice; nothing to bundle.
			continue
		}
		b, err := buildBatch(gs.AutoBatchMode, title, members, now)
		if err != nil {
			return created, err
		}
		if err := s.batches.Put(ctx, &b); err != nil {
			return created, err
		}
		for _, f := range members {
			if err := s.pending.Delete(ctx, f.FileID); err != nil {
				slog.Warn("could not remove grouped pending file", "file", f.FileID, "err", err)
			}
		}
		created = append(created, b)
	}
	return created, nil
}

func (s *service) CleanupOld(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(domain.DefaultPendingMaxAgeSec) * time.Second)
	return s.pending.DeleteOlderThan(ctx, cutoff)
}

// groupKey decides which files belong together. Episode mode bundles quality
// variants of one episode; series mode bundles episodes of one series at one
// quality.
func groupKey(mode string, f domain.PendingFile) string {
	if mode == domain.BatchModeSeries {
		return quality.SeriesName(f.Filename) + " [" + f.Quality + "]"
	}
	return f.BaseName
}

func distinctQualities(members []domain.PendingFile) bool {
	seen := make(map[string]struct{}, len(members))
	for _, f := range members {
		seen[f.Quality] = struct{}{}
	}
	return len(seen) > 1
}

func buildBatch(mode, title string, members []domain.PendingFile, now time.Time) (domain.Batch, error) {
	if mode == domain.BatchModeSeries {
		// Episode order within a season pack.
		sort.Slice(members, func(i, j int) bool {
			return members[i].Filename < members[j].Filename
		})
	} else {
		sort.Slice(members, func(i, j int) bool {
			return quality.Priority(quality.Tag(members[i].Quality)) < quality.Priority(quality.Tag(members[j].Quality))
		})
	}
	bf := make([]domain.BatchFile, 0, len(members))
	for _, f := range members {
		bf = append(bf, domain.BatchFile{
			FileID:     f.FileID,
			Filename:   f.Filename,
			Quality:    f.Quality,
			LocationID: f.LocationID,
			ItemID:     f.ItemID,
		})
	}
	batchID, err := pkgtoken.NewBatchID()
	if err != nil {
		return domain.Batch{}, err
	}
	return domain.Batch{
		BatchID:   batchID,
		Title:     title,
		Files:     bf,
		CreatedAt: now,
	}, nil
}
