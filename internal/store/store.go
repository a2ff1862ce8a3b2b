// Package store persists image metadata and comparison-job state. It uses
// a single-table DynamoDB design where all records for a user share a
// partition key (USER#{userId}); sort keys distinguish image records
// (IMAGE#) from comparison jobs (CMP#). Comparison records carry a TTL
// attribute (expiresAt) so finished jobs expire with the S3 lifecycle
// policy on their enhanced outputs.
package store

import (
	"context"
	"time"

	"github.com/fpang/snapgrade/internal/enhance"
	"github.com/fpang/snapgrade/internal/exif"
	"github.com/fpang/snapgrade/internal/quality"
)

// ComparisonTTL is the time-to-live for comparison-job records. Matches
// the S3 lifecycle policy on enhanced outputs (24 hours).
const ComparisonTTL = 24 * time.Hour

// Comparison job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// ImageRecord is the metadata kept for an uploaded image. The pixel data
// itself lives in S3 under Key.
type ImageRecord struct {
	ImageID     string    `dynamodbav:"imageId" json:"imageId"`
	UserID      string    `dynamodbav:"-" json:"userId"`
	Name        string    `dynamodbav:"name" json:"name"`
	Key         string    `dynamodbav:"s3Key" json:"-"`
	ContentType string    `dynamodbav:"contentType" json:"contentType"`
	SizeBytes   int64     `dynamodbav:"sizeBytes" json:"sizeBytes"`
	Width       int       `dynamodbav:"width" json:"width"`
	Height      int       `dynamodbav:"height" json:"height"`
	Description string    `dynamodbav:"description,omitempty" json:"description,omitempty"`
	CameraMake  string    `dynamodbav:"cameraMake,omitempty" json:"cameraMake,omitempty"`
	CameraModel string    `dynamodbav:"cameraModel,omitempty" json:"cameraModel,omitempty"`
	Latitude    float64   `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   float64   `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
	HasGPS      bool      `dynamodbav:"hasGps,omitempty" json:"hasGps,omitempty"`
	TakenAt     time.Time `dynamodbav:"takenAt,unixtime,omitempty" json:"takenAt,omitempty"`
	UploadedAt  time.Time `dynamodbav:"uploadedAt,unixtime" json:"uploadedAt"`
}

// ApplyExif copies extracted camera metadata onto the record. Fields the
// image does not carry leave the record's zero values untouched.
func (r *ImageRecord) ApplyExif(meta *exif.Metadata) {
	r.CameraMake = meta.CameraMake
	r.CameraModel = meta.CameraModel
	if meta.HasGPS {
		r.Latitude = meta.Latitude
		r.Longitude = meta.Longitude
		r.HasGPS = true
	}
	if meta.HasDate {
		r.TakenAt = meta.DateTaken
	}
}

// ComparisonJob is the persisted state of one pipeline run over two of a
// user's images.
type ComparisonJob struct {
	JobID    string  `dynamodbav:"jobId" json:"jobId"`
	UserID   string  `dynamodbav:"-" json:"userId"`
	ImageA   string  `dynamodbav:"imageA" json:"imageA"`
	ImageB   string  `dynamodbav:"imageB" json:"imageB"`
	Level    float64 `dynamodbav:"level" json:"level"`
	Status   string  `dynamodbav:"status" json:"status"`
	ErrorMsg string  `dynamodbav:"errorMsg,omitempty" json:"error,omitempty"`

	// Populated when Status is complete.
	MetricsA        *quality.Metrics `dynamodbav:"metricsA,omitempty" json:"image1_metrics,omitempty"`
	MetricsB        *quality.Metrics `dynamodbav:"metricsB,omitempty" json:"image2_metrics,omitempty"`
	EnhancedMetrics *quality.Metrics `dynamodbav:"enhancedMetrics,omitempty" json:"enhanced_metrics,omitempty"`
	Improvements    *quality.Metrics `dynamodbav:"improvements,omitempty" json:"improvements,omitempty"`
	Params          *enhance.Params  `dynamodbav:"params,omitempty" json:"enhancement_params,omitempty"`
	Target          string           `dynamodbav:"target,omitempty" json:"target,omitempty"`
	EnhancedKey     string           `dynamodbav:"enhancedKey,omitempty" json:"-"`
	ProcessingMs    int64            `dynamodbav:"processingMs,omitempty" json:"processing_time_ms,omitempty"`

	CreatedAt time.Time `dynamodbav:"createdAt,unixtime" json:"createdAt"`
}

// Store defines the persistence interface for image metadata and
// comparison jobs. Each method is safe for concurrent use. Get methods
// return (nil, nil) when the record does not exist; Put methods perform
// full-item replacement (upsert semantics).
type Store interface {
	// PutImage creates or replaces an image metadata record.
	PutImage(ctx context.Context, img *ImageRecord) error

	// GetImage retrieves image metadata. Returns nil, nil if not found.
	GetImage(ctx context.Context, userID, imageID string) (*ImageRecord, error)

	// ListImages returns up to limit of the user's images, newest first.
	ListImages(ctx context.Context, userID string, limit int) ([]*ImageRecord, error)

	// DeleteImage removes an image metadata record.
	DeleteImage(ctx context.Context, userID, imageID string) error

	// PutComparison creates or replaces a comparison-job record.
	PutComparison(ctx context.Context, job *ComparisonJob) error

	// GetComparison retrieves a comparison job. Returns nil, nil if not found.
	GetComparison(ctx context.Context, userID, jobID string) (*ComparisonJob, error)
}
