package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/codec"
	"github.com/fpang/snapgrade/internal/imaging"
	"github.com/fpang/snapgrade/internal/jobs"
	"github.com/fpang/snapgrade/internal/s3util"
	"github.com/fpang/snapgrade/internal/store"
)

// defaultLevel is the enhancement strength used when the request omits it.
const defaultLevel = 0.5

// --- Comparison Start ---

// POST /api/compare/start
// Body: {"imageA": "uuid", "imageB": "uuid", "level": 0.5}
//
// Runs the full pipeline asynchronously: assess both images, enhance the
// lower-scoring one, store the enhanced PNG in S3, and persist the results.
func handleCompareStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageA string   `json:"imageA"`
		ImageB string   `json:"imageB"`
		Level  *float64 `json:"level,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateImageID(req.ImageA); err != nil {
		httpError(w, http.StatusBadRequest, "invalid imageA: must be a UUID")
		return
	}
	if err := validateImageID(req.ImageB); err != nil {
		httpError(w, http.StatusBadRequest, "invalid imageB: must be a UUID")
		return
	}

	level := defaultLevel
	if req.Level != nil {
		level = *req.Level
		if level < 0 || level > 1 {
			httpError(w, http.StatusBadRequest, "level must be in [0, 1]")
			return
		}
	}

	// Ownership check: both images must belong to the caller.
	recordA, err := db.GetImage(r.Context(), userID, req.ImageA)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load image record", err.Error())
		return
	}
	recordB, err := db.GetImage(r.Context(), userID, req.ImageB)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load image record", err.Error())
		return
	}
	if recordA == nil || recordB == nil {
		httpError(w, http.StatusNotFound, "image not found")
		return
	}

	job := &store.ComparisonJob{
		JobID:     jobs.NewCompareID(),
		UserID:    userID,
		ImageA:    req.ImageA,
		ImageB:    req.ImageB,
		Level:     level,
		Status:    store.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := db.PutComparison(r.Context(), job); err != nil {
		httpError(w, http.StatusInternalServerError, "failed to create comparison job", err.Error())
		return
	}

	go runCompareJob(job, recordA.Key, recordB.Key)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"id": job.JobID,
	})
}

// runCompareJob downloads both originals, runs the pipeline, uploads the
// enhanced output, and persists the finished job. Runs in a goroutine off
// the request path; the client polls /results.
func runCompareJob(job *store.ComparisonJob, keyA, keyB string) {
	ctx := context.Background()

	job.Status = store.StatusProcessing
	if err := db.PutComparison(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.JobID).Msg("Failed to mark comparison job processing")
	}

	gridA, err := fetchGrid(ctx, keyA)
	if err != nil {
		setCompareError(ctx, job, "failed to load first image", err)
		return
	}
	gridB, err := fetchGrid(ctx, keyB)
	if err != nil {
		setCompareError(ctx, job, "failed to load second image", err)
		return
	}

	result := pipe.Process(gridA, gridB, job.Level)

	encoded, err := codec.EncodePNG(result.Enhanced)
	if err != nil {
		setCompareError(ctx, job, "failed to encode enhanced image", err)
		return
	}

	enhancedKey := s3util.EnhancedKey(job.UserID, job.JobID)
	if err := s3util.Upload(ctx, s3c.Client, s3c.Bucket, enhancedKey, "image/png", encoded); err != nil {
		setCompareError(ctx, job, "failed to store enhanced image", err)
		return
	}

	job.Status = store.StatusComplete
	job.MetricsA = &result.MetricsA
	job.MetricsB = &result.MetricsB
	job.EnhancedMetrics = &result.EnhancedMetrics
	job.Improvements = &result.Improvements
	job.Params = &result.Params
	job.Target = string(result.Target)
	job.EnhancedKey = enhancedKey
	job.ProcessingMs = result.Elapsed.Milliseconds()

	if err := db.PutComparison(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.JobID).Msg("Failed to persist completed comparison job")
		return
	}

	log.Info().
		Str("job", job.JobID).
		Str("target", job.Target).
		Int64("processingMs", job.ProcessingMs).
		Msg("Comparison job complete")
}

// fetchGrid downloads an S3 object and decodes it into a grid.
func fetchGrid(ctx context.Context, key string) (*imaging.Grid, error) {
	data, err := s3util.Download(ctx, s3c.Client, s3c.Bucket, key)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}

func setCompareError(ctx context.Context, job *store.ComparisonJob, msg string, err error) {
	log.Error().Err(err).Str("job", job.JobID).Msg(msg)
	job.Status = store.StatusError
	job.ErrorMsg = msg
	if putErr := db.PutComparison(ctx, job); putErr != nil {
		log.Error().Err(putErr).Str("job", job.JobID).Msg("Failed to persist comparison job error")
	}
}

// --- Comparison Routes ---

// GET /api/compare/{id}/results
func handleCompareRoutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	jobID, action, routeOK := jobs.ParseRoute(r.URL.Path, "/api/compare/", jobs.CompareIDPrefix)
	if !routeOK || action != "results" {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Jobs are stored under the caller's partition, so a foreign or unknown
	// job ID both come back as a generic not-found.
	job, err := db.GetComparison(r.Context(), userID, jobID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load comparison job", err.Error())
		return
	}
	if job == nil {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	resp := map[string]interface{}{
		"job": job,
	}
	if job.Status == store.StatusComplete && job.EnhancedKey != "" {
		url, err := s3util.PresignGet(r.Context(), s3c.Presigner, s3c.Bucket, job.EnhancedKey, viewURLExpiry)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to generate enhanced image URL", err.Error())
			return
		}
		resp["enhancedUrl"] = url
	}

	respondJSON(w, http.StatusOK, resp)
}
