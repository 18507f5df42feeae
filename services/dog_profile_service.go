package services

import (
	"context"
	"fmt"
	"log"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DogProfileService looks dogs up by their dogId attribute.
type DogProfileService struct {
	Dynamo    *DynamoService
	TableName string
	IndexName string
}

// GetDogByDogID returns the first dog whose dogId matches, or nil when none does.
func (s *DogProfileService) GetDogByDogID(ctx context.Context, dogID string) (*models.DogProfile, error) {
	table, index := s.TableName, s.IndexName
	if table == "" {
		table = models.DogsTable
	}
	if index == "" {
		index = models.DogIDIndex
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, table, index,
		"dogId = :dogId",
		map[string]types.AttributeValue{
			":dogId": &types.AttributeValueMemberS{Value: dogID},
		}, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dog %s: %w", dogID, err)
	}
	if len(items) == 0 {
		log.Printf("ℹ️ No dog profile found for dogId: %s", dogID)
		return nil, nil
	}

	var dog models.DogProfile
	if err := attributevalue.UnmarshalMap(items[0], &dog); err != nil {
		log.Printf("❌ Error unmarshalling dog profile: %v", err)
		return nil, fmt.Errorf("failed to unmarshal dog profile: %w", err)
	}
	if dog.DogID == "" {
		dog.DogID = dogID
	}
	return &dog, nil
}
