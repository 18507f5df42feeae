package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"waggle_server/models"
	"waggle_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// StreamsAPI is the part of *dynamodbstreams.Client the consumer uses.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// LikeStreamConsumer tails the DogSwipes table stream and hands every
// INSERT and MODIFY record to Handler. A record whose handling fails is
// re-read after PollInterval, so delivery is at least once.
type LikeStreamConsumer struct {
	Streams       StreamsAPI
	StreamARN     string
	Handler       LikeEventHandler
	PollInterval  time.Duration
	StartPosition streamtypes.ShardIteratorType

	mu      sync.Mutex
	active  map[string]bool
	done    map[string]bool
	cursors map[string]shardCursor
}

// shardCursor is where a shard is reopened: the position it was first
// assigned until a record is handled, then just after the last handled
// record, or at a record whose handling failed.
type shardCursor struct {
	position streamtypes.ShardIteratorType
	seq      string
}

func (c *LikeStreamConsumer) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return time.Second
	}
	return c.PollInterval
}

// Run consumes until ctx is cancelled. Shards are rediscovered every ten
// poll intervals; shards found after startup are read from TRIM_HORIZON.
// Under LATEST, shards already closed at startup are never read. A shard
// whose reader gave up is picked up again from its cursor.
func (c *LikeStreamConsumer) Run(ctx context.Context) error {
	c.mu.Lock()
	c.active = make(map[string]bool)
	c.done = make(map[string]bool)
	c.cursors = make(map[string]shardCursor)
	c.mu.Unlock()

	start := c.StartPosition
	if start == "" {
		start = streamtypes.ShardIteratorTypeLatest
	}

	log.Printf("🌊 Consuming like stream %s (start: %s)", c.StreamARN, start)

	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(10 * c.pollInterval())
	defer ticker.Stop()

	first := true
	for {
		shards, err := c.describeShards(ctx)
		if err != nil {
			log.Printf("❌ Failed to describe stream: %v", err)
		}
		for _, shard := range shards {
			shardID := aws.ToString(shard.ShardId)
			position := streamtypes.ShardIteratorTypeTrimHorizon
			if first {
				position = start
				closed := shard.SequenceNumberRange != nil && shard.SequenceNumberRange.EndingSequenceNumber != nil
				if closed && position == streamtypes.ShardIteratorTypeLatest {
					c.skip(shardID)
					continue
				}
			}
			if !c.claim(shardID, position) {
				continue
			}
			wg.Add(1)
			go func(shardID string) {
				defer wg.Done()
				c.consumeShard(ctx, shardID)
			}(shardID)
		}
		if err == nil {
			first = false
		}

		select {
		case <-ctx.Done():
			log.Println("🛑 Like stream consumer stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (c *LikeStreamConsumer) describeShards(ctx context.Context) ([]streamtypes.Shard, error) {
	var shards []streamtypes.Shard
	var lastShardID *string
	for {
		out, err := c.Streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(c.StreamARN),
			ExclusiveStartShardId: lastShardID,
		})
		if err != nil {
			return shards, err
		}
		if out.StreamDescription == nil {
			return shards, nil
		}
		shards = append(shards, out.StreamDescription.Shards...)
		lastShardID = out.StreamDescription.LastEvaluatedShardId
		if lastShardID == nil {
			return shards, nil
		}
	}
}

// claim marks a shard active. position only applies to a shard seen for the
// first time; a reclaimed shard keeps its cursor.
func (c *LikeStreamConsumer) claim(shardID string, position streamtypes.ShardIteratorType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[shardID] || c.done[shardID] {
		return false
	}
	c.active[shardID] = true
	if _, ok := c.cursors[shardID]; !ok {
		c.cursors[shardID] = shardCursor{position: position}
	}
	return true
}

func (c *LikeStreamConsumer) checkpoint(shardID string, position streamtypes.ShardIteratorType, seq string) {
	if seq == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[shardID] = shardCursor{position: position, seq: seq}
}

// open returns an iterator at the shard's cursor.
func (c *LikeStreamConsumer) open(ctx context.Context, shardID string) (*string, error) {
	c.mu.Lock()
	cursor := c.cursors[shardID]
	c.mu.Unlock()
	if cursor.position == "" {
		cursor.position = streamtypes.ShardIteratorTypeTrimHorizon
	}
	return c.shardIterator(ctx, shardID, cursor.position, cursor.seq)
}

// skip marks a shard finished without reading it.
func (c *LikeStreamConsumer) skip(shardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done[shardID] = true
}

func (c *LikeStreamConsumer) release(shardID string, finished bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, shardID)
	if finished {
		c.done[shardID] = true
	}
}

// consumeShard reads one shard until it closes or ctx is cancelled.
func (c *LikeStreamConsumer) consumeShard(ctx context.Context, shardID string) {
	finished := false
	defer func() { c.release(shardID, finished) }()

	iterator, err := c.open(ctx, shardID)
	if err != nil {
		log.Printf("❌ Failed to open shard %s: %v", shardID, err)
		return
	}

	for iterator != nil {
		if ctx.Err() != nil {
			return
		}

		out, err := c.Streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{ShardIterator: iterator})
		if err != nil {
			log.Printf("❌ Failed to read shard %s: %v", shardID, err)
			if !sleepCtx(ctx, c.pollInterval()) {
				return
			}
			if iterator, err = c.open(ctx, shardID); err != nil {
				log.Printf("❌ Failed to reopen shard %s: %v", shardID, err)
				return
			}
			continue
		}

		failed := false
		for _, record := range out.Records {
			var seq string
			if record.Dynamodb != nil {
				seq = aws.ToString(record.Dynamodb.SequenceNumber)
			}
			event, ok, err := LikeEventFromRecord(record)
			if err != nil {
				log.Printf("❌ Skipping undecodable stream record %s: %v", aws.ToString(record.EventID), err)
			} else if ok {
				if _, err := c.Handler.HandleLikeUpdate(ctx, event); err != nil {
					log.Printf("❌ Like event %s failed, will retry: %v", event.EventID, err)
					c.checkpoint(shardID, streamtypes.ShardIteratorTypeAtSequenceNumber, seq)
					failed = true
					break
				}
			}
			c.checkpoint(shardID, streamtypes.ShardIteratorTypeAfterSequenceNumber, seq)
		}

		if failed {
			if !sleepCtx(ctx, c.pollInterval()) {
				return
			}
			if iterator, err = c.open(ctx, shardID); err != nil {
				log.Printf("❌ Failed to reopen shard %s: %v", shardID, err)
				return
			}
			continue
		}

		iterator = out.NextShardIterator
		if len(out.Records) == 0 && iterator != nil && !sleepCtx(ctx, c.pollInterval()) {
			return
		}
	}

	log.Printf("✅ Shard %s closed", shardID)
	finished = true
}

func (c *LikeStreamConsumer) shardIterator(ctx context.Context, shardID string, position streamtypes.ShardIteratorType, seq string) (*string, error) {
	input := &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(c.StreamARN),
		ShardId:           aws.String(shardID),
		ShardIteratorType: position,
	}
	if seq != "" {
		input.SequenceNumber = aws.String(seq)
	}
	out, err := c.Streams.GetShardIterator(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.ShardIterator, nil
}

// LikeEventFromRecord converts a stream record of the DogSwipes table.
// It reports false for records that carry no like mutation (REMOVE).
func LikeEventFromRecord(record streamtypes.Record) (models.LikeEvent, bool, error) {
	if record.Dynamodb == nil {
		return models.LikeEvent{}, false, nil
	}
	switch record.EventName {
	case streamtypes.OperationTypeInsert, streamtypes.OperationTypeModify:
	default:
		return models.LikeEvent{}, false, nil
	}

	keys, err := attributevalue.FromDynamoDBStreamsMap(record.Dynamodb.Keys)
	if err != nil {
		return models.LikeEvent{}, false, fmt.Errorf("failed to convert keys: %w", err)
	}
	dogID := utils.ExtractString(keys, "dogId")
	if dogID == "" {
		return models.LikeEvent{}, false, fmt.Errorf("record has no dogId key")
	}

	event := models.LikeEvent{EventID: aws.ToString(record.EventID), DogID: dogID}
	if event.Before, err = likeRecordFromImage(record.Dynamodb.OldImage); err != nil {
		return models.LikeEvent{}, false, err
	}
	if event.After, err = likeRecordFromImage(record.Dynamodb.NewImage); err != nil {
		return models.LikeEvent{}, false, err
	}
	return event, true, nil
}

func likeRecordFromImage(image map[string]streamtypes.AttributeValue) (*models.LikeRecord, error) {
	if len(image) == 0 {
		return nil, nil
	}
	item, err := attributevalue.FromDynamoDBStreamsMap(image)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	var record models.LikeRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image: %w", err)
	}
	return &record, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
