package domain

// Delivery is a TTL job for a message already delivered to the transport:
// once DeleteTS passes, the sweep asks the transport to delete it. Each row
// is removed after its deletion attempt, successful or not.
type Delivery struct {
	DeliveryID string `json:"id" dynamodbav:"delivery_id"`
	ChatID     int64  `json:"chat_id" dynamodbav:"chat_id"`
	MessageID  int64  `json:"message_id" dynamodbav:"message_id"`
	DeleteTS   int64  `json:"delete_ts" dynamodbav:"delete_ts"` // Unix seconds
}
