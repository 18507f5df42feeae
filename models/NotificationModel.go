package models

// Notification is an entry of a user's in-app notification inbox.
type Notification struct {
	ID        string            `dynamodbav:"id" json:"id"`                                   // ✅ Partition Key
	UserID    string            `dynamodbav:"userId" json:"userId"`                           // Indexed via userId-index
	Type      string            `dynamodbav:"type" json:"type"`                               // match_request, match_accepted, ...
	Message   string            `dynamodbav:"message" json:"message"`                         // Display text
	Data      map[string]string `dynamodbav:"data,omitempty" json:"data,omitempty"`           // matchId, ...
	Read      bool              `dynamodbav:"read" json:"read"`                               // false until opened
	CreatedAt string            `dynamodbav:"createdAt" json:"createdAt"`                     // RFC3339Nano, sort key of userId-index
	UpdatedAt string            `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"` // Set when read
}

// NotificationPage is one page of a user's inbox, newest first. Cursor is
// opaque and resumes the listing after the last entry.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Cursor        string         `json:"cursor,omitempty"`
	HasMore       bool           `json:"hasMore"`
}
