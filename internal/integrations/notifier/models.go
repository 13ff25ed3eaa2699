package notifier

import "time"

// Event сообщение, публикуемое в брокер
type Event struct {
	UserID     int64                  `json:"user_id"`
	Type       string                 `json:"event_type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}
