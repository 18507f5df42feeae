package models

import (
	"sort"
	"strings"
)

// PairKeySeparator joins the two dog ids of a canonical pair key.
const PairKeySeparator = "#"

// Match is the persisted record of a mutual like between two dogs.
type Match struct {
	MatchID      string      `dynamodbav:"matchId" json:"matchId"`                             // ✅ Partition Key: PairKey(dog1Id, dog2Id)
	Participants []string    `dynamodbav:"participants" json:"participants"`                   // [dog1Id, dog2Id]
	Dog1ID       string      `dynamodbav:"dog1Id" json:"dog1Id"`                               // Dog whose like completed the pair
	Dog2ID       string      `dynamodbav:"dog2Id" json:"dog2Id"`                               // Dog that liked first
	Dog1OwnerID  string      `dynamodbav:"dog1OwnerId" json:"dog1OwnerId"`                     // Owner of dog1
	Dog2OwnerID  string      `dynamodbav:"dog2OwnerId" json:"dog2OwnerId"`                     // Owner of dog2
	InitiatedBy  string      `dynamodbav:"initiatedBy" json:"initiatedBy"`                     // Dog id of the triggering like
	Status       MatchStatus `dynamodbav:"status" json:"status"`                               // pending, accepted, ...
	Active       bool        `dynamodbav:"active" json:"active"`                               // false once deleted
	CreatedAt    string      `dynamodbav:"createdAt" json:"createdAt"`                         // RFC3339, server clock
	UpdatedAt    string      `dynamodbav:"updatedAt" json:"updatedAt"`                         // RFC3339, server clock
	LastActivity string      `dynamodbav:"lastActivity" json:"lastActivity"`                   // Used for ordering
	RespondedAt  *string     `dynamodbav:"respondedAt,omitempty" json:"respondedAt,omitempty"` // Set on status change
	RespondedBy  *string     `dynamodbav:"respondedBy,omitempty" json:"respondedBy,omitempty"` // userId of the responder
}

// ValidDogID reports whether id can take part in a pair key.
func ValidDogID(id string) bool {
	return id != "" && !strings.Contains(id, PairKeySeparator)
}

// PairKey returns the canonical identifier of the unordered pair {a, b}.
// PairKey(a, b) == PairKey(b, a). Both ids must satisfy ValidDogID.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + PairKeySeparator + ids[1]
}

// IsOwner reports whether userID owns either matched dog.
func (m *Match) IsOwner(userID string) bool {
	return userID != "" && (m.Dog1OwnerID == userID || m.Dog2OwnerID == userID)
}

// Match directions from an owner's point of view.
const (
	MatchDirectionSent     = "sent"     // owner's dog completed the pair (dog1)
	MatchDirectionReceived = "received" // owner's dog was liked first (dog2)
)

// UserMatch is a match listed for one owner.
type UserMatch struct {
	Match
	Type string `json:"type"`
}

// UserMatchPage is a page of an owner's matches, most recent activity first.
type UserMatchPage struct {
	Matches []UserMatch `json:"matches"`
	HasMore bool        `json:"hasMore"`
}

// MatchDetails is a match together with both dog profiles.
type MatchDetails struct {
	Match
	Dog1 *DogProfile `json:"dog1"`
	Dog2 *DogProfile `json:"dog2"`
}

// MatchEvent is pushed to connected clients over Socket.IO when a match is created.
type MatchEvent struct {
	MatchID        string `json:"matchId"`
	DogID          string `json:"dogId"`
	MatchedDogID   string `json:"matchedDogId"`
	MatchedDogName string `json:"matchedDogName"`
}
