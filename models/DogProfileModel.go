package models

// DogProfile is the subset of a dog document the match server reads.
type DogProfile struct {
	ID       string `dynamodbav:"id" json:"id"`                                 // ✅ Partition Key
	DogID    string `dynamodbav:"dogId" json:"dogId"`                           // Indexed via dogId-index
	Name     string `dynamodbav:"name" json:"name" validate:"required"`         // Display name
	OwnerID  string `dynamodbav:"ownerId" json:"ownerId" validate:"required"`   // users/{uid}
	Breed    string `dynamodbav:"breed,omitempty" json:"breed,omitempty"`       // Optional
	Gender   string `dynamodbav:"gender,omitempty" json:"gender,omitempty"`     // male | female
	PhotoURL string `dynamodbav:"photoURL,omitempty" json:"photoURL,omitempty"` // First photo
}
