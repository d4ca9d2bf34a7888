package domain

import "time"

// Item is a stored media item, addressed by (location_id, item_id). Item ids
// are numbered sequentially from near-zero within a location; location ids
// are large platform-assigned identifiers.
type Item struct {
	LocationID int64     `json:"location_id" dynamodbav:"location_id"`
	ItemID     int64     `json:"item_id" dynamodbav:"item_id"`
	Object     string    `json:"object" dynamodbav:"object"` // S3 object key
	Filename   string    `json:"filename" dynamodbav:"filename"`
	Size       int64     `json:"size" dynamodbav:"size"`
	UploadedBy int64     `json:"uploaded_by" dynamodbav:"uploaded_by"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// ReleasedItem is one granted item in a release decision: the resolved item
// plus a time-limited URL the transport can deliver.
type ReleasedItem struct {
	LocationID int64  `json:"location_id"`
	ItemID     int64  `json:"item_id"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
}
