package socket

import (
	"log"
	"strings"

	"waggle_server/models"

	socketio "github.com/googollee/go-socket.io"
)

// RoomBroadcaster is the broadcasting half of *socketio.Server.
type RoomBroadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// MatchHub pushes match events to every connection an owner has joined.
type MatchHub struct {
	Server RoomBroadcaster
}

// UserRoom is the room a user's connections join.
func UserRoom(userID string) string {
	return models.SocketRoomPrefix + userID
}

// BroadcastMatch implements services.MatchBroadcaster.
func (h *MatchHub) BroadcastMatch(ownerID string, event models.MatchEvent) {
	if ownerID == "" {
		return
	}
	if !h.Server.BroadcastToRoom("/", UserRoom(ownerID), models.SocketEventNewMatch, event) {
		log.Printf("⚠️ No socket room for user %s, match %s not broadcast", ownerID, event.MatchID)
		return
	}
	log.Printf("📡 Broadcast match %s to user %s", event.MatchID, ownerID)
}

// NewSocketServer initializes and returns a new Socket.IO server
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	// Handle connection events
	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	// Handle join events: the client sends its user id
	server.OnEvent("/", "join", func(c socketio.Conn, userID string) {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			log.Println("❌ Invalid userId in join request")
			return
		}
		log.Printf("👥 Socket %s joined room for user %s", c.ID(), userID)
		c.Join(UserRoom(userID))
	})

	server.OnEvent("/", "leave", func(c socketio.Conn, userID string) {
		c.Leave(UserRoom(strings.TrimSpace(userID)))
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	// Handle disconnection
	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return server
}
