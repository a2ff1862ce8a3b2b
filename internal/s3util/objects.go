// Package s3util wraps the S3 operations the image API needs: uploading
// originals and enhanced outputs, downloading originals for processing,
// deletion, and presigned GET URLs for returning results to browsers.
//
// Object layout:
//
//	uploads/{userId}/{imageId}     — original uploads
//	enhanced/{userId}/{jobId}.png  — pipeline outputs (24h lifecycle)
package s3util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// UploadKey returns the object key for a user's original upload.
func UploadKey(userID, imageID string) string {
	return fmt.Sprintf("uploads/%s/%s", userID, imageID)
}

// EnhancedKey returns the object key for a comparison job's enhanced output.
func EnhancedKey(userID, jobID string) string {
	return fmt.Sprintf("enhanced/%s/%s.png", userID, jobID)
}

// Upload writes an object with the given content type.
func Upload(ctx context.Context, client *s3.Client, bucket, key, contentType string, data []byte) error {
	log.Debug().Str("key", key).Int("size", len(data)).Msg("Uploading object to S3")

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

// Download reads an object into memory. Image objects are bounded by the
// upload size limit, so buffering the whole body is fine.
func Download(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	log.Debug().Str("key", key).Msg("Downloading object from S3")

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s body: %w", key, err)
	}
	return data, nil
}

// Delete removes an object. Deleting a missing key is not an error.
func Delete(ctx context.Context, client *s3.Client, bucket, key string) error {
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	log.Debug().Str("key", key).Msg("Object deleted from S3")
	return nil
}

// PresignGet creates a presigned GET URL for an object.
func PresignGet(ctx context.Context, presigner *s3.PresignClient, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign GET for %s: %w", key, err)
	}
	return result.URL, nil
}

// PresignPut creates a presigned PUT URL so browsers can upload originals
// directly to S3 without passing the bytes through the Lambda.
func PresignPut(ctx context.Context, presigner *s3.PresignClient, bucket, key, contentType string, expiry time.Duration) (string, error) {
	result, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT for %s: %w", key, err)
	}
	return result.URL, nil
}
