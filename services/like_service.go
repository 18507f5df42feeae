package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LikeService reads and appends to the per-dog LikeRecord.
type LikeService struct {
	Dynamo    *DynamoService
	TableName string
}

func (s *LikeService) table() string {
	if s.TableName == "" {
		return models.DogSwipesTable
	}
	return s.TableName
}

// GetLikeRecord returns the dog's LikeRecord, or nil when the dog has never liked anyone.
func (s *LikeService) GetLikeRecord(ctx context.Context, dogID string) (*models.LikeRecord, error) {
	log.Printf("🔍 Fetching like record for dog: %s", dogID)

	item, err := s.Dynamo.GetItem(ctx, s.table(), stringKey("dogId", dogID))
	if errors.Is(err, ErrItemNotFound) {
		log.Printf("ℹ️ No like record found for dog %s", dogID)
		return nil, nil
	}
	if err != nil {
		log.Printf("❌ DynamoDB error while fetching like record: %v", err)
		return nil, err
	}

	var record models.LikeRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		log.Printf("❌ Error unmarshalling like record: %v", err)
		return nil, fmt.Errorf("failed to unmarshal like record: %w", err)
	}
	return &record, nil
}

// AddLike adds targetDogID to dogID's likes, creating the record on the first like.
// Adding an id that is already present leaves the set unchanged.
func (s *LikeService) AddLike(ctx context.Context, dogID, targetDogID string) (*models.LikeRecord, error) {
	if dogID == targetDogID || !models.ValidDogID(dogID) || !models.ValidDogID(targetDogID) {
		return nil, ErrInvalidLike
	}
	log.Printf("🐾 Recording like %s -> %s", dogID, targetDogID)

	attrs, err := s.Dynamo.UpdateItem(ctx, s.table(),
		"ADD #likes :like",
		stringKey("dogId", dogID),
		map[string]types.AttributeValue{
			":like": &types.AttributeValueMemberSS{Value: []string{targetDogID}},
		},
		map[string]string{"#likes": "likes"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record like: %w", err)
	}

	record := models.LikeRecord{DogID: dogID}
	if err := attributevalue.UnmarshalMap(attrs, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal like record: %w", err)
	}
	return &record, nil
}
