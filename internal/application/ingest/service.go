// Package ingest stores uploaded media items and immediately makes them
// shareable: each upload gets an item id, an S3 object, a share link, and a
// seat in the batch grouper.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/id"
	"github.com/mediagate/internal/pkg/quality"
)

// Result is what the uploader gets back.
type Result struct {
	Item      *domain.Item `json:"item"`
	ShareLink string       `json:"share_link"`
	Quality   string       `json:"quality,omitempty"`
}

type Service interface {
	Upload(ctx context.Context, filename string, size int64, body io.Reader, uploadedBy int64) (*Result, error)
}

type itemStore interface {
	Put(ctx context.Context, it *domain.Item) error
	NextItemID(ctx context.Context, locationID int64) (int64, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}

type locationPicker interface {
	NextUploadLocation(ctx context.Context) (int64, error)
}

type grouper interface {
	AddPending(ctx context.Context, f *domain.PendingFile) error
}

type linkEncoder interface {
	EncodeSingle(locationID, itemID int64) string
}

type service struct {
	items     itemStore
	objects   objectStore
	locations locationPicker
	grouper   grouper
	codec     linkEncoder
}

type ServiceDeps struct {
	ItemRepo    itemStore
	ObjectStore objectStore
	Locations   locationPicker
	Grouper     grouper
	Codec       linkEncoder
}

func NewService(deps ServiceDeps) Service {
	return &service{
		items:     deps.ItemRepo,
		objects:   deps.ObjectStore,
		locations: deps.Locations,
		grouper:   deps.Grouper,
		codec:     deps.Codec,
	}
}

func (s *service) Upload(ctx context.Context, filename string, size int64, body io.Reader, uploadedBy int64) (*Result, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename required: %w", domain.ErrBadRequest)
	}
	loc, err := s.locations.NextUploadLocation(ctx)
	if err != nil {
		return nil, err
	}
	itemID, err := s.items.NextItemID(ctx, loc)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("items/%d/%d/%s", loc, itemID, filename)
	if _, err := s.objects.Upload(ctx, key, body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	it := &domain.Item{
		LocationID: loc,
		ItemID:     itemID,
		Object:     key,
		Filename:   filename,
		Size:       size,
		UploadedBy: uploadedBy,
		CreatedAt:  now,
	}
	if err := s.items.Put(ctx, it); err != nil {
		return nil, err
	}

	q := string(quality.Extract(filename))
	pf := &domain.PendingFile{
		FileID:     id.New(),
		Filename:   filename,
		BaseName:   quality.BaseName(filename),
		Quality:    q,
		OwnerID:    uploadedBy,
		LocationID: loc,
		ItemID:     itemID,
		Timestamp:  now,
	}
	if err := s.grouper.AddPending(ctx, pf); err != nil {
		// Batching is best effort; the single-item link still works.
		slog.Warn("could not register pending file", "file", filename, "err", err)
	}

	return &Result{
		Item:      it,
		ShareLink: s.codec.EncodeSingle(loc, itemID),
		Quality:   q,
	}, nil
}
