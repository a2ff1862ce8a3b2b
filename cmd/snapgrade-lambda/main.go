// Package main provides the Lambda entry point for the SnapGrade image API.
//
// It wraps the assessment pipeline behind API Gateway, using S3 for image
// storage and DynamoDB for image metadata and comparison-job state.
//
// Security:
//   - Origin-verify middleware blocks direct API Gateway access (CloudFront-only)
//   - Bearer-token auth on every endpoint except /api/health
//   - Input validation on imageId (UUID) and filename (safe chars)
//   - Content-type allowlist and size limits for uploads
//   - Cryptographically random job IDs prevent enumeration
//
// Endpoints:
//
//	GET    /api/health                 — health check (no auth required)
//	GET    /api/upload-url             — presigned S3 PUT URL for browser upload
//	POST   /api/images/confirm         — register an uploaded image (dims + EXIF)
//	GET    /api/images                 — list the caller's images, newest first
//	GET    /api/images/{id}            — image metadata plus presigned view URL
//	DELETE /api/images/{id}            — delete image metadata and S3 object
//	POST   /api/compare/start          — compare two images, enhance the weaker
//	GET    /api/compare/{id}/results   — poll comparison results
//	POST   /api/download/start         — start ZIP bundle creation for images
//	GET    /api/download/{id}/results  — poll bundle status and download URLs
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/auth"
	"github.com/fpang/snapgrade/internal/lambdaboot"
	"github.com/fpang/snapgrade/internal/logging"
	"github.com/fpang/snapgrade/internal/pipeline"
	"github.com/fpang/snapgrade/internal/store"
)

// Clients and config initialized at cold start.
var (
	s3c                lambdaboot.S3Clients
	db                 store.Store
	authority          *auth.Authority
	pipe               *pipeline.Pipeline
	originVerifySecret string
)

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	s3c = lambdaboot.InitS3(clients.Config, "IMAGE_BUCKET_NAME")
	db = lambdaboot.InitDynamo(clients.Config, "SNAPGRADE_TABLE_NAME")
	authority = auth.NewAuthority(lambdaboot.LoadAuthSecret(clients.SSM))
	pipe = pipeline.New()

	originVerifySecret = os.Getenv("ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set — origin verification disabled")
	}

	logging.NewStartupLogger("snapgrade-lambda").
		S3Bucket("images", s3c.Bucket).
		DynamoTable("main", os.Getenv("SNAPGRADE_TABLE_NAME")).
		Feature("originVerify", originVerifySecret != "").
		InitDuration(time.Since(initStart)).
		Log()
}

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/upload-url", handleUploadURL)
	mux.HandleFunc("/api/images/confirm", handleImageConfirm)
	mux.HandleFunc("/api/images", handleListImages)
	mux.HandleFunc("/api/images/", handleImageRoutes)
	mux.HandleFunc("/api/compare/start", handleCompareStart)
	mux.HandleFunc("/api/compare/", handleCompareRoutes)
	mux.HandleFunc("/api/download/start", handleDownloadStart)
	mux.HandleFunc("/api/download/", handleDownloadRoutes)

	handler := withMetrics(withOriginVerify(mux))

	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}

// --- Health ---

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "snapgrade",
	})
}
