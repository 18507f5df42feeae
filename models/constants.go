package models

// ✅ Default DynamoDB table names (overridable from config)
const (
	DogSwipesTable     = "DogSwipes"
	DogsTable          = "Dogs"
	MatchesTable       = "Matches"
	UsersTable         = "Users"
	NotificationsTable = "Notifications"
)

// ✅ Global Secondary Indexes
const (
	DogIDIndex       = "dogId-index"       // Dogs: PK dogId
	Dog1IDIndex      = "dog1Id-index"      // Matches: PK dog1Id
	Dog2IDIndex      = "dog2Id-index"      // Matches: PK dog2Id
	Dog1OwnerIDIndex = "dog1OwnerId-index" // Matches: PK dog1OwnerId
	Dog2OwnerIDIndex = "dog2OwnerId-index" // Matches: PK dog2OwnerId
	UserIDIndex      = "userId-index"      // Notifications: PK userId, SK createdAt
)

// ✅ Notification types carried in push payloads
const (
	NotificationTypeMatchRequest  = "match_request"
	NotificationTypeMatchAccepted = "match_accepted"
	NotificationTypeMatchRejected = "match_rejected"
)

// ✅ Socket.IO events
const (
	SocketEventNewMatch = "newMatch"
	SocketRoomPrefix    = "user:"
)
