package models

// LikeRecord is the per-dog set of dogs it has swiped right on.
type LikeRecord struct {
	DogID string   `dynamodbav:"dogId" json:"dogId"`                               // ✅ Partition Key
	Likes []string `dynamodbav:"likes,stringset,omitempty" json:"likes,omitempty"` // ✅ Stored as a String Set
}

// Contains reports whether dogID is among the liked dogs. A nil record likes nobody.
func (r *LikeRecord) Contains(dogID string) bool {
	if r == nil {
		return false
	}
	for _, id := range r.Likes {
		if id == dogID {
			return true
		}
	}
	return false
}

// LikeEvent is one observed mutation of a LikeRecord. Before is nil for a
// freshly created record.
type LikeEvent struct {
	EventID string      `json:"eventId,omitempty"`
	DogID   string      `json:"dogId" validate:"required"`
	Before  *LikeRecord `json:"before,omitempty"`
	After   *LikeRecord `json:"after,omitempty"`
}
