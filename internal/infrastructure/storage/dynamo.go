package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Dynamo stores slots in a DynamoDB table with profile as the partition key
// and slot as the sort key.
type Dynamo struct {
	client    *dynamodb.Client
	tableName string
	profile   string
}

// dynamoSlot represents the DynamoDB item structure
type dynamoSlot struct {
	Profile   string `dynamodbav:"profile"`
	Slot      string `dynamodbav:"slot"`
	Data      []byte `dynamodbav:"data"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamo(client *dynamodb.Client, tableName, profile string) *Dynamo {
	return &Dynamo{client: client, tableName: tableName, profile: profile}
}

func (d *Dynamo) key(slot string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"profile": &types.AttributeValueMemberS{Value: d.profile},
		"slot":    &types.AttributeValueMemberS{Value: slot},
	}
}

func (d *Dynamo) Write(ctx context.Context, slot string, data []byte) error {
	item, err := attributevalue.MarshalMap(dynamoSlot{
		Profile:   d.profile,
		Slot:      slot,
		Data:      data,
		UpdatedAt: time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slot %s: %w", slot, err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}

func (d *Dynamo) Read(ctx context.Context, slot string) ([]byte, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.key(slot),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var item dynamoSlot
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal slot %s: %w", slot, err)
	}
	return item.Data, true, nil
}

func (d *Dynamo) Clear(ctx context.Context, slot string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(slot),
	})
	if err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", slot, err)
	}
	return nil
}
