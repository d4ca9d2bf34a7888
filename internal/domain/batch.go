package domain

import "time"

// PendingFile is an uploaded item waiting to be grouped into a batch.
// Created on upload, deleted the moment it is absorbed into a batch, or
// garbage-collected after the max-age window.
type PendingFile struct {
	FileID     string    `json:"file_id" dynamodbav:"file_id"`
	Filename   string    `json:"filename" dynamodbav:"filename"`
	BaseName   string    `json:"base_name" dynamodbav:"base_name"`
	Quality    string    `json:"quality" dynamodbav:"quality"`
	OwnerID    int64     `json:"owner_id" dynamodbav:"owner_id"`
	LocationID int64     `json:"location_id" dynamodbav:"location_id"`
	ItemID     int64     `json:"item_id" dynamodbav:"item_id"`
	Timestamp  time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// BatchFile is one member of a batch, in release order.
type BatchFile struct {
	FileID     string `json:"file_id" dynamodbav:"file_id"`
	Filename   string `json:"filename" dynamodbav:"filename"`
	Quality    string `json:"quality" dynamodbav:"quality"`
	LocationID int64  `json:"location_id" dynamodbav:"location_id"`
	ItemID     int64  `json:"item_id" dynamodbav:"item_id"`
}

// Batch is an immutable bundle of related items released via one link.
// Never updated in place.
type Batch struct {
	BatchID   string      `json:"batch_id" dynamodbav:"batch_id"`
	Title     string      `json:"title" dynamodbav:"title"`
	Files     []BatchFile `json:"files" dynamodbav:"files"`
	CreatedAt time.Time   `json:"created" dynamodbav:"created_at"`
}

// SeasonPack reports whether the batch groups episodes at one quality
// (season pack) rather than quality variants of one episode.
func (b *Batch) SeasonPack() bool {
	qualities := make(map[string]struct{}, len(b.Files))
	for _, f := range b.Files {
		qualities[f.Quality] = struct{}{}
	}
	return len(qualities) <= 1
}

// Batch grouping modes.
const (
	BatchModeEpisode = "episode"
	BatchModeSeries  = "series"
)
