package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the part of *dynamodb.Client the services use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type DynamoService struct {
	Client DynamoAPI
}

// InitializeAWSConfig loads the shared AWS configuration for the given region.
func InitializeAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// InitializeDynamoDBClient builds a DynamoDB client. A non-empty endpoint
// points the client at DynamoDB Local or another compatible endpoint.
func InitializeDynamoDBClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// GetItem retrieves an item from DynamoDB. A missing item yields ErrItemNotFound.
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}

	if output.Item == nil {
		return nil, ErrItemNotFound
	}

	return output.Item, nil
}

// PutItem marshals item and writes it unconditionally.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return ds.PutItemWithCondition(ctx, tableName, item, "", nil, nil)
}

// PutItemWithCondition marshals item and writes it only if conditionExpression
// holds. A rejected condition yields ErrConditionFailed.
func (ds *DynamoService) PutItemWithCondition(
	ctx context.Context,
	tableName string,
	item interface{},
	conditionExpression string,
	expressionAttributeNames map[string]string,
	expressionAttributeValues map[string]types.AttributeValue,
) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		log.Printf("❌ Failed to marshal item for table '%s': %v", tableName, err)
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	}
	if conditionExpression != "" {
		input.ConditionExpression = aws.String(conditionExpression)
		if len(expressionAttributeNames) > 0 {
			input.ExpressionAttributeNames = expressionAttributeNames
		}
		if len(expressionAttributeValues) > 0 {
			input.ExpressionAttributeValues = expressionAttributeValues
		}
	}

	log.Printf("📥 Inserting item into table '%s'...", tableName)
	_, err = ds.Client.PutItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("put item in table '%s': %w", tableName, ErrConditionFailed)
		}
		log.Printf("❌ Failed to insert item: %v", err)
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	log.Printf("✅ Item successfully inserted into table '%s'.", tableName)
	return nil
}

// UpdateItem applies updateExpression and returns the item's new attributes.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName string,
	updateExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	return ds.UpdateItemWithCondition(ctx, tableName, updateExpression, "", key, expressionAttributeValues, expressionAttributeNames)
}

// UpdateItemWithCondition is UpdateItem guarded by conditionExpression.
// A rejected condition yields ErrConditionFailed.
func (ds *DynamoService) UpdateItemWithCondition(
	ctx context.Context,
	tableName string,
	updateExpression string,
	conditionExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	log.Printf("🔄 Starting UpdateItem for table: %s", tableName)
	log.Printf("📝 Update Expression: %s", updateExpression)

	if len(key) == 0 {
		log.Println("❌ Update failed: key cannot be empty")
		return nil, errors.New("update failed: key cannot be empty")
	}

	if updateExpression == "" {
		log.Println("❌ Update failed: updateExpression cannot be empty")
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	isRemoveOperation := strings.HasPrefix(updateExpression, "REMOVE")
	if len(expressionAttributeValues) == 0 && !isRemoveOperation {
		log.Println("❌ Update failed: expressionAttributeValues cannot be empty (except for REMOVE)")
		return nil, errors.New("update failed: expressionAttributeValues cannot be empty")
	}

	updateInput := &dynamodb.UpdateItemInput{
		TableName:        &tableName,
		Key:              key,
		UpdateExpression: &updateExpression,
		ReturnValues:     types.ReturnValueAllNew,
	}
	if len(expressionAttributeValues) > 0 {
		updateInput.ExpressionAttributeValues = expressionAttributeValues
	}
	if len(expressionAttributeNames) > 0 {
		updateInput.ExpressionAttributeNames = expressionAttributeNames
	}
	if conditionExpression != "" {
		updateInput.ConditionExpression = aws.String(conditionExpression)
	}

	output, err := ds.Client.UpdateItem(ctx, updateInput)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, fmt.Errorf("update item in table '%s': %w", tableName, ErrConditionFailed)
		}
		log.Printf("❌ Failed to update item in table '%s': %v", tableName, err)
		return nil, fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}

	if output.Attributes == nil {
		log.Printf("⚠️ Update executed, but no attributes were returned for table '%s'", tableName)
		return map[string]types.AttributeValue{}, nil
	}

	log.Printf("✅ Successfully updated item in table '%s'", tableName)
	return output.Attributes, nil
}

// QueryItemsWithIndex queries items from DynamoDB using a Global Secondary Index (GSI)
func (ds *DynamoService) QueryItemsWithIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	return ds.queryIndex(ctx, tableName, indexName, keyConditionExpression, expressionAttributeValues, expressionAttributeNames, limit, true)
}

// QueryAllItemsWithIndex is QueryItemsWithIndex over every page of results.
// pageSize bounds each request, not the total.
func (ds *DynamoService) QueryAllItemsWithIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	pageSize int32,
) ([]map[string]types.AttributeValue, error) {
	log.Printf("🔍 Querying all pages of GSI: %s in table: %s", indexName, tableName)
	input := indexQueryInput(tableName, indexName, keyConditionExpression, expressionAttributeValues, expressionAttributeNames, pageSize, true)

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(ds.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.Printf("❌ Error querying GSI: %v", err)
			return nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
		}
		items = append(items, page.Items...)
	}
	log.Printf("✅ Query successful. Retrieved %d items.", len(items))
	return items, nil
}

// QueryIndexPage runs one GSI query request starting after startKey and
// returns the items with the key to continue from (nil on the last page).
func (ds *DynamoService) QueryIndexPage(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	startKey map[string]types.AttributeValue,
	limit int32,
	forward bool,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	input := indexQueryInput(tableName, indexName, keyConditionExpression, expressionAttributeValues, expressionAttributeNames, limit, forward)
	if len(startKey) > 0 {
		input.ExclusiveStartKey = startKey
	}

	output, err := ds.Client.Query(ctx, input)
	if err != nil {
		log.Printf("❌ Error querying GSI: %v", err)
		return nil, nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
	}
	return output.Items, output.LastEvaluatedKey, nil
}

func (ds *DynamoService) queryIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
	forward bool,
) ([]map[string]types.AttributeValue, error) {
	log.Printf("🔍 Querying GSI: %s in table: %s", indexName, tableName)
	input := indexQueryInput(tableName, indexName, keyConditionExpression, expressionAttributeValues, expressionAttributeNames, limit, forward)

	output, err := ds.Client.Query(ctx, input)
	if err != nil {
		log.Printf("❌ Error querying GSI: %v", err)
		return nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
	}
	log.Printf("✅ Query successful. Retrieved %d items.", len(output.Items))
	return output.Items, nil
}

func indexQueryInput(
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
	forward bool,
) *dynamodb.QueryInput {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    aws.String(keyConditionExpression),
		ExpressionAttributeValues: expressionAttributeValues,
		ScanIndexForward:          aws.Bool(forward),
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	return input
}

// LatestStreamARN returns the ARN of the table's current stream, or "" when
// streams are disabled on the table.
func (ds *DynamoService) LatestStreamARN(ctx context.Context, tableName string) (string, error) {
	output, err := ds.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &tableName})
	if err != nil {
		return "", fmt.Errorf("failed to describe table '%s': %w", tableName, err)
	}
	if output.Table == nil {
		return "", nil
	}
	return aws.ToString(output.Table.LatestStreamArn), nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// stringKey builds a single-attribute string key.
func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}
