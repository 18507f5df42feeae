package services

import (
	"context"
	"fmt"
	"log"

	"waggle_server/models"
)

// MatchNotificationTitle is the title of every new-match push.
const MatchNotificationTitle = "It's a match! 🐾"

// PushTokenLookup returns "" when the user has no push address on file.
type PushTokenLookup interface {
	GetPushToken(ctx context.Context, userID string) (string, error)
}

// PushSender delivers one push message.
type PushSender interface {
	Send(ctx context.Context, msg models.PushMessage) error
}

// MatchBroadcaster fans a match out to an owner's live connections.
type MatchBroadcaster interface {
	BroadcastMatch(ownerID string, event models.MatchEvent)
}

// InboxWriter persists in-app notifications.
type InboxWriter interface {
	CreateNotification(ctx context.Context, userID, notificationType, message string, data map[string]string) (*models.Notification, error)
}

// StatusNotifier is told about a match that was just accepted or rejected.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, match *models.Match)
}

// MatchNotifier tells owners about their matches over Socket.IO, the in-app
// inbox and push. Delivery is best effort: failures are logged and never retried.
type MatchNotifier struct {
	Users       PushTokenLookup
	Push        PushSender
	Broadcaster MatchBroadcaster
	Inbox       InboxWriter
}

// NotifyMatch implements Notifier.
func (n *MatchNotifier) NotifyMatch(ctx context.Context, match *models.Match, dog1, dog2 *models.DogProfile) {
	n.notifyOwner(ctx, match, dog1.OwnerID, dog1, dog2)
	n.notifyOwner(ctx, match, dog2.OwnerID, dog2, dog1)
}

func (n *MatchNotifier) notifyOwner(ctx context.Context, match *models.Match, ownerID string, own, other *models.DogProfile) {
	if n.Broadcaster != nil {
		n.Broadcaster.BroadcastMatch(ownerID, models.MatchEvent{
			MatchID:        match.MatchID,
			DogID:          own.DogID,
			MatchedDogID:   other.DogID,
			MatchedDogName: other.Name,
		})
	}

	n.deliver(ctx, ownerID, models.PushMessage{
		Title: MatchNotificationTitle,
		Body:  fmt.Sprintf("%s and %s liked each other. Say hi!", own.Name, other.Name),
		Data: map[string]string{
			"matchId": match.MatchID,
			"type":    models.NotificationTypeMatchRequest,
		},
		Sound: "default",
	})
}

// NotifyStatusChange tells the owner of the initiating dog that the other
// owner answered. Statuses other than accepted and rejected are ignored.
func (n *MatchNotifier) NotifyStatusChange(ctx context.Context, match *models.Match) {
	var msg models.PushMessage
	switch match.Status {
	case models.MatchStatusAccepted:
		msg = models.PushMessage{
			Title: "Match accepted 🎉",
			Body:  "Your match request was accepted. Time to plan a playdate!",
			Data:  map[string]string{"type": models.NotificationTypeMatchAccepted},
		}
	case models.MatchStatusRejected:
		msg = models.PushMessage{
			Title: "Match update",
			Body:  "Your match request was declined.",
			Data:  map[string]string{"type": models.NotificationTypeMatchRejected},
		}
	default:
		return
	}
	msg.Data["matchId"] = match.MatchID
	msg.Sound = "default"

	recipient := match.Dog1OwnerID
	if match.InitiatedBy == match.Dog2ID {
		recipient = match.Dog2OwnerID
	}
	n.deliver(ctx, recipient, msg)
}

// deliver writes msg to the user's inbox and pushes it to their device.
func (n *MatchNotifier) deliver(ctx context.Context, userID string, msg models.PushMessage) {
	if userID == "" {
		return
	}

	if n.Inbox != nil {
		if _, err := n.Inbox.CreateNotification(ctx, userID, msg.Data["type"], msg.Body, msg.Data); err != nil {
			log.Printf("❌ Failed to store notification for user %s: %v", userID, err)
		}
	}

	if n.Users == nil || n.Push == nil {
		return
	}

	token, err := n.Users.GetPushToken(ctx, userID)
	if err != nil {
		log.Printf("❌ Failed to fetch push token for user %s: %v", userID, err)
		return
	}
	if token == "" {
		log.Printf("ℹ️ User %s has no push token, skipping notification", userID)
		return
	}

	msg.To = token
	if err := n.Push.Send(ctx, msg); err != nil {
		log.Printf("❌ Failed to send %s notification to user %s: %v", msg.Data["type"], userID, err)
		return
	}
	log.Printf("📲 %s notification sent to user %s", msg.Data["type"], userID)
}
