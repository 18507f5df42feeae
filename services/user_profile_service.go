package services

import (
	"context"
	"errors"
	"fmt"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

type UserProfileService struct {
	Dynamo    *DynamoService
	TableName string
}

// GetUserProfile retrieves a user profile by ID, or nil when it does not exist.
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	table := ups.TableName
	if table == "" {
		table = models.UsersTable
	}

	item, err := ups.Dynamo.GetItem(ctx, table, stringKey("userId", userID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user profile: %w", err)
	}
	return &profile, nil
}

// GetPushToken returns the user's push address, "" when none is on file.
func (ups *UserProfileService) GetPushToken(ctx context.Context, userID string) (string, error) {
	profile, err := ups.GetUserProfile(ctx, userID)
	if err != nil || profile == nil {
		return "", err
	}
	return profile.PushToken, nil
}
