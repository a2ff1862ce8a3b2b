package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	pkPrefix = "USER#"
	skImage  = "IMAGE#"
	skCmp    = "CMP#"
)

// DynamoStore implements Store using AWS DynamoDB.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table. The client
// should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// userPK returns the partition key for a user.
func userPK(userID string) string {
	return pkPrefix + userID
}

// putItem marshals a domain object and writes it with PK and SK, plus a
// TTL attribute when ttl is nonzero. Domain objects use dynamodbav:"-"
// for fields derived from PK/SK.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	if ttl > 0 {
		item["expiresAt"] = &types.AttributeValueMemberN{
			Value: fmt.Sprintf("%d", time.Now().Add(ttl).Unix()),
		}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item %s/%s: %w", pk, sk, err)
	}
	return nil
}

// getItem fetches one item by key and unmarshals it into out. Returns
// found=false when the item does not exist.
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("get item %s/%s: %w", pk, sk, err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal item %s/%s: %w", pk, sk, err)
	}
	return true, nil
}

// PutImage creates or replaces an image metadata record. Image records
// carry no TTL; they live until the user deletes them.
func (s *DynamoStore) PutImage(ctx context.Context, img *ImageRecord) error {
	if err := s.putItem(ctx, userPK(img.UserID), skImage+img.ImageID, img, 0); err != nil {
		return err
	}
	log.Debug().Str("user", img.UserID).Str("image", img.ImageID).Msg("Image record stored")
	return nil
}

// GetImage retrieves image metadata. Returns nil, nil if not found.
func (s *DynamoStore) GetImage(ctx context.Context, userID, imageID string) (*ImageRecord, error) {
	var img ImageRecord
	found, err := s.getItem(ctx, userPK(userID), skImage+imageID, &img)
	if err != nil || !found {
		return nil, err
	}
	img.UserID = userID
	return &img, nil
}

// ListImages returns up to limit of the user's images, newest first.
func (s *DynamoStore) ListImages(ctx context.Context, userID string, limit int) ([]*ImageRecord, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userPK(userID)},
			":sk": &types.AttributeValueMemberS{Value: skImage},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query images for %s: %w", userID, err)
	}

	images := make([]*ImageRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var img ImageRecord
		if err := attributevalue.UnmarshalMap(item, &img); err != nil {
			return nil, fmt.Errorf("unmarshal image record: %w", err)
		}
		img.UserID = userID
		images = append(images, &img)
	}

	// Newest first. DynamoDB orders by SK (image ID), not upload time.
	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})

	return images, nil
}

// DeleteImage removes an image metadata record.
func (s *DynamoStore) DeleteImage(ctx context.Context, userID, imageID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skImage + imageID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete image %s/%s: %w", userID, imageID, err)
	}
	log.Debug().Str("user", userID).Str("image", imageID).Msg("Image record deleted")
	return nil
}

// PutComparison creates or replaces a comparison-job record with the
// standard TTL.
func (s *DynamoStore) PutComparison(ctx context.Context, job *ComparisonJob) error {
	if err := s.putItem(ctx, userPK(job.UserID), skCmp+job.JobID, job, ComparisonTTL); err != nil {
		return err
	}
	log.Debug().Str("user", job.UserID).Str("job", job.JobID).Str("status", job.Status).Msg("Comparison job stored")
	return nil
}

// GetComparison retrieves a comparison job. Returns nil, nil if not found.
func (s *DynamoStore) GetComparison(ctx context.Context, userID, jobID string) (*ComparisonJob, error) {
	var job ComparisonJob
	found, err := s.getItem(ctx, userPK(userID), skCmp+jobID, &job)
	if err != nil || !found {
		return nil, err
	}
	job.UserID = userID
	return &job, nil
}
