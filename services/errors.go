package services

import "errors"

var (
	// ErrItemNotFound is returned by DynamoService.GetItem when the key has no item.
	ErrItemNotFound = errors.New("item not found")
	// ErrConditionFailed is returned when a conditional write is rejected.
	ErrConditionFailed = errors.New("condition check failed")

	ErrDogNotFound          = errors.New("dog profile not found")
	ErrInvalidProfile       = errors.New("dog profile is missing required fields")
	ErrMatchExists          = errors.New("match already exists between these dogs")
	ErrMatchNotFound        = errors.New("match not found")
	ErrInvalidTransition    = errors.New("invalid match status transition")
	ErrUnauthorized         = errors.New("unauthorized to update this match")
	ErrInvalidLike          = errors.New("invalid like: self-like or malformed dog id")
	ErrUnsupportedPushToken = errors.New("unsupported push token format")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidCursor        = errors.New("invalid pagination cursor")
)
