package models

// UserProfile defines the owner document; only the push address matters here.
type UserProfile struct {
	UserID      string `dynamodbav:"userId" json:"userId"` // ✅ Partition Key
	Email       string `dynamodbav:"email,omitempty" json:"email,omitempty"`
	DisplayName string `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	PushToken   string `dynamodbav:"pushToken,omitempty" json:"-"` // Expo token or Web Push subscription JSON
}
