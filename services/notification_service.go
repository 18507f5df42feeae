package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DefaultNotificationPageSize is the inbox page size when none is requested.
const DefaultNotificationPageSize = 20

// notificationTimeLayout sorts lexically in time order, unlike RFC3339Nano.
const notificationTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NotificationService stores the per-user in-app notification inbox.
type NotificationService struct {
	Dynamo    *DynamoService
	TableName string
	IndexName string
	Now       func() time.Time
}

func (s *NotificationService) table() string {
	if s.TableName == "" {
		return models.NotificationsTable
	}
	return s.TableName
}

func (s *NotificationService) index() string {
	if s.IndexName == "" {
		return models.UserIDIndex
	}
	return s.IndexName
}

func (s *NotificationService) now() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Format(notificationTimeLayout)
}

// CreateNotification adds an unread entry to userID's inbox.
func (s *NotificationService) CreateNotification(ctx context.Context, userID, notificationType, message string, data map[string]string) (*models.Notification, error) {
	notification := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      notificationType,
		Message:   message,
		Data:      data,
		Read:      false,
		CreatedAt: s.now(),
	}
	if err := s.Dynamo.PutItem(ctx, s.table(), notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	log.Printf("🔔 Notification %s (%s) created for user %s", notification.ID, notificationType, userID)
	return notification, nil
}

// GetUserNotifications returns one page of userID's inbox, newest first.
// An empty cursor starts at the newest entry; a page's Cursor resumes right
// after its last entry, ties on createdAt included.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID, cursor string, limit int32) (*models.NotificationPage, error) {
	if limit <= 0 {
		limit = DefaultNotificationPageSize
	}

	startKey, err := decodeNotificationCursor(userID, cursor)
	if err != nil {
		return nil, err
	}
	values := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}

	// One entry past the page tells whether another page exists.
	want := int(limit) + 1
	var items []map[string]types.AttributeValue
	for {
		found, next, err := s.Dynamo.QueryIndexPage(ctx, s.table(), s.index(), "userId = :userId", values, nil,
			startKey, int32(want-len(items)), false)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch notifications: %w", err)
		}
		items = append(items, found...)
		if len(next) == 0 || len(items) >= want {
			break
		}
		startKey = next
	}

	page := &models.NotificationPage{Notifications: []models.Notification{}}
	page.HasMore = len(items) > int(limit)
	if page.HasMore {
		items = items[:limit]
	}
	for _, item := range items {
		var n models.Notification
		if err := attributevalue.UnmarshalMap(item, &n); err != nil {
			log.Printf("❌ Error unmarshalling notification: %v", err)
			continue
		}
		page.Notifications = append(page.Notifications, n)
	}

	if page.HasMore && len(page.Notifications) > 0 {
		page.Cursor = encodeNotificationCursor(page.Notifications[len(page.Notifications)-1])
	}
	return page, nil
}

type notificationCursor struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}

func encodeNotificationCursor(n models.Notification) string {
	raw, _ := json.Marshal(notificationCursor{ID: n.ID, CreatedAt: n.CreatedAt})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeNotificationCursor rebuilds the userId-index start key of a cursor.
func decodeNotificationCursor(userID, cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c notificationCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt == "" {
		return nil, ErrInvalidCursor
	}
	return map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: c.ID},
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"createdAt": &types.AttributeValueMemberS{Value: c.CreatedAt},
	}, nil
}

// MarkAsRead marks one of userID's notifications read. A notification that
// does not exist or belongs to someone else yields ErrNotificationNotFound.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	_, err := s.Dynamo.UpdateItemWithCondition(ctx, s.table(),
		"SET #read = :read, #updatedAt = :now",
		"attribute_exists(id) AND #userId = :userId",
		stringKey("id", notificationID),
		map[string]types.AttributeValue{
			":read":   &types.AttributeValueMemberBOOL{Value: true},
			":now":    &types.AttributeValueMemberS{Value: s.now()},
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		map[string]string{"#read": "read", "#updatedAt": "updatedAt", "#userId": "userId"},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrNotificationNotFound
	}
	return err
}

// MarkAllAsRead marks every unread notification of userID read and returns
// how many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	marked := 0
	cursor := ""
	for {
		page, err := s.GetUserNotifications(ctx, userID, cursor, 100)
		if err != nil {
			return marked, err
		}
		for _, n := range page.Notifications {
			if n.Read {
				continue
			}
			if err := s.MarkAsRead(ctx, n.ID, userID); err != nil && !errors.Is(err, ErrNotificationNotFound) {
				return marked, err
			}
			marked++
		}
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}
	log.Printf("✅ Marked %d notifications read for user %s", marked, userID)
	return marked, nil
}
