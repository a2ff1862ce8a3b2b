package main

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/jobs"
	"github.com/fpang/snapgrade/internal/store"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE
// 6.3.7). Registered in init() with zstd level 12, the highest level
// klauspost/compress supports. Needs 2+ GB Lambda memory for the encoder
// window at that level.
const zipMethodZstd uint16 = 93

func init() {
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})
}

// maxBundleBytes caps a single ZIP bundle; larger selections split across
// several bundles so each download stays browser-friendly.
const maxBundleBytes int64 = 512 * 1024 * 1024

// --- Download Job State ---

// Bundle jobs are ephemeral and kept in memory: the ZIPs land in S3 under
// the 24h lifecycle prefix, so a lost Lambda container only costs the
// client a restart of the bundling step.
type downloadJob struct {
	mu      sync.Mutex
	id      string
	userID  string
	status  string // store.StatusPending et al.
	bundles []downloadBundle
	errMsg  string
}

type downloadBundle struct {
	Name        string `json:"name"`
	FileCount   int    `json:"fileCount"`
	TotalSize   int64  `json:"totalSize"`
	Status      string `json:"status"`
	ZipKey      string `json:"-"`
	ZipSize     int64  `json:"zipSize,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

var (
	dlMu   sync.Mutex
	dlJobs = make(map[string]*downloadJob)
)

func newDownloadJob(userID string) *downloadJob {
	dlMu.Lock()
	defer dlMu.Unlock()
	j := &downloadJob{
		id:     jobs.NewBundleID(),
		userID: userID,
		status: store.StatusPending,
	}
	dlJobs[j.id] = j
	return j
}

func getDownloadJob(id string) *downloadJob {
	dlMu.Lock()
	defer dlMu.Unlock()
	return dlJobs[id]
}

// fileWithSize pairs an S3 key with its object size for bundle planning.
type fileWithSize struct {
	key  string
	name string
	size int64
}

// --- Download Start ---

// POST /api/download/start
// Body: {"imageIds": ["uuid", ...], "jobIds": ["cmp-...", ...], "label": "trip"}
//
// Bundles the caller's originals and any enhanced outputs into
// zstd-compressed ZIPs in S3 and returns a job ID to poll.
func handleDownloadStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageIDs []string `json:"imageIds"`
		JobIDs   []string `json:"jobIds"`
		Label    string   `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ImageIDs) == 0 && len(req.JobIDs) == 0 {
		httpError(w, http.StatusBadRequest, "imageIds or jobIds required")
		return
	}

	// Resolve IDs to S3 keys up front so ownership failures surface as a
	// synchronous 404 instead of a failed job.
	var files []fileWithSize
	for _, id := range req.ImageIDs {
		if err := validateImageID(id); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		record, err := db.GetImage(r.Context(), userID, id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to load image record", err.Error())
			return
		}
		if record == nil {
			httpError(w, http.StatusNotFound, "image not found")
			return
		}
		files = append(files, fileWithSize{key: record.Key, name: record.Name})
	}
	for _, id := range req.JobIDs {
		job, err := db.GetComparison(r.Context(), userID, id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to load comparison job", err.Error())
			return
		}
		if job == nil || job.EnhancedKey == "" {
			httpError(w, http.StatusNotFound, "comparison job not found or not complete")
			return
		}
		files = append(files, fileWithSize{key: job.EnhancedKey, name: job.JobID + "-enhanced.png"})
	}

	job := newDownloadJob(userID)
	go runDownloadJob(job, files, req.Label)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"id": job.id,
	})
}

// runDownloadJob sizes the selected files, plans bundles under
// maxBundleBytes, and creates each ZIP.
func runDownloadJob(job *downloadJob, files []fileWithSize, label string) {
	job.mu.Lock()
	job.status = store.StatusProcessing
	job.mu.Unlock()

	ctx := context.Background()

	var sized []fileWithSize
	for _, f := range files {
		head, err := s3c.Client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: &s3c.Bucket,
			Key:    &f.key,
		})
		if err != nil {
			log.Warn().Err(err).Str("key", f.key).Msg("HeadObject failed, skipping file")
			continue
		}
		f.size = *head.ContentLength
		sized = append(sized, f)
	}

	if len(sized) == 0 {
		job.mu.Lock()
		job.status = store.StatusError
		job.errMsg = "no downloadable files found"
		job.mu.Unlock()
		return
	}

	groups := groupBySize(sized, maxBundleBytes)

	bundles := make([]downloadBundle, len(groups))
	for i, group := range groups {
		var totalSize int64
		for _, f := range group {
			totalSize += f.size
		}
		bundles[i] = downloadBundle{
			Name:      sanitizeZipName(label, i+1, len(groups)),
			FileCount: len(group),
			TotalSize: totalSize,
			Status:    store.StatusPending,
		}
	}

	job.mu.Lock()
	job.bundles = bundles
	job.mu.Unlock()

	log.Info().
		Int("files", len(sized)).
		Int("bundles", len(bundles)).
		Str("job", job.id).
		Msg("Download bundle plan created")

	for i, group := range groups {
		job.mu.Lock()
		job.bundles[i].Status = store.StatusProcessing
		job.mu.Unlock()

		zipKey := fmt.Sprintf("bundles/%s/%s/%s", job.userID, job.id, bundles[i].Name)

		zipSize, err := createZipBundle(ctx, group, zipKey)
		if err != nil {
			job.mu.Lock()
			job.bundles[i].Status = store.StatusError
			job.bundles[i].Error = "failed to create bundle"
			job.mu.Unlock()
			log.Error().Err(err).Str("bundle", bundles[i].Name).Msg("Failed to create ZIP bundle")
			continue
		}

		url, err := presignAttachment(ctx, zipKey, bundles[i].Name)
		if err != nil {
			job.mu.Lock()
			job.bundles[i].Status = store.StatusError
			job.bundles[i].Error = "failed to generate download URL"
			job.mu.Unlock()
			log.Error().Err(err).Str("key", zipKey).Msg("Failed to generate presigned GET URL for ZIP")
			continue
		}

		job.mu.Lock()
		job.bundles[i].ZipKey = zipKey
		job.bundles[i].ZipSize = zipSize
		job.bundles[i].DownloadURL = url
		job.bundles[i].Status = store.StatusComplete
		job.mu.Unlock()

		log.Info().
			Str("bundle", bundles[i].Name).
			Int64("zipSize", zipSize).
			Int("files", len(group)).
			Msg("ZIP bundle created")
	}

	job.mu.Lock()
	job.status = store.StatusComplete
	for _, b := range job.bundles {
		if b.Status == store.StatusError {
			job.status = store.StatusError
			job.errMsg = "one or more bundles failed"
			break
		}
	}
	job.mu.Unlock()

	log.Info().Str("job", job.id).Int("bundles", len(bundles)).Msg("Download job complete")
}

// groupBySize packs files into groups whose total size stays under
// maxBytes, using first-fit-decreasing. A single file over maxBytes gets
// its own group.
func groupBySize(files []fileWithSize, maxBytes int64) [][]fileWithSize {
	sorted := make([]fileWithSize, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].size > sorted[j].size
	})

	var groups [][]fileWithSize
	var groupSizes []int64

	for _, f := range sorted {
		if f.size > maxBytes {
			groups = append(groups, []fileWithSize{f})
			groupSizes = append(groupSizes, f.size)
			continue
		}

		placed := false
		for i, currentSize := range groupSizes {
			if currentSize+f.size <= maxBytes {
				groups[i] = append(groups[i], f)
				groupSizes[i] += f.size
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []fileWithSize{f})
			groupSizes = append(groupSizes, f.size)
		}
	}

	return groups
}

// createZipBundle downloads files from S3, writes a zstd-compressed ZIP to
// /tmp, and uploads it. Returns the ZIP size.
func createZipBundle(ctx context.Context, files []fileWithSize, zipKey string) (int64, error) {
	tmpFile, err := os.CreateTemp("", "bundle-*.zip")
	if err != nil {
		return 0, fmt.Errorf("create temp ZIP: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	zipWriter := zip.NewWriter(tmpFile)

	for _, f := range files {
		result, err := s3c.Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &s3c.Bucket,
			Key:    &f.key,
		})
		if err != nil {
			log.Warn().Err(err).Str("key", f.key).Msg("Failed to download file for ZIP, skipping")
			continue
		}

		header := &zip.FileHeader{
			Name:     f.name,
			Method:   zipMethodZstd,
			Modified: time.Now(),
		}
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			result.Body.Close()
			return 0, fmt.Errorf("create ZIP entry for %s: %w", f.name, err)
		}

		if _, err := io.Copy(writer, result.Body); err != nil {
			result.Body.Close()
			return 0, fmt.Errorf("write to ZIP for %s: %w", f.name, err)
		}
		result.Body.Close()
	}

	if err := zipWriter.Close(); err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("close ZIP writer: %w", err)
	}
	tmpFile.Close()

	info, err := os.Stat(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("stat ZIP file: %w", err)
	}

	zipFile, err := os.Open(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("open ZIP for upload: %w", err)
	}
	defer zipFile.Close()

	contentType := "application/zip"
	_, err = s3c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s3c.Bucket,
		Key:         &zipKey,
		Body:        zipFile,
		ContentType: &contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("upload ZIP to S3: %w", err)
	}

	return info.Size(), nil
}

// presignAttachment creates a presigned GET URL that downloads with the
// given filename rather than the S3 key.
func presignAttachment(ctx context.Context, key, filename string) (string, error) {
	result, err := s3c.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     &s3c.Bucket,
		Key:                        &key,
		ResponseContentDisposition: aws.String(fmt.Sprintf(`attachment; filename="%s"`, filename)),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET for %s: %w", key, err)
	}
	return result.URL, nil
}

// sanitizeZipName builds a ZIP filename from the user-supplied label.
func sanitizeZipName(label string, index, total int) string {
	name := label
	if name == "" {
		name = "snapgrade"
	}
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == ' ' {
			return r
		}
		return '-'
	}, name)
	name = strings.TrimSpace(name)
	if len(name) > 50 {
		name = name[:50]
	}

	if total == 1 {
		return fmt.Sprintf("%s.zip", name)
	}
	return fmt.Sprintf("%s-%d.zip", name, index)
}

// --- Download Routes ---

// GET /api/download/{id}/results
func handleDownloadRoutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	jobID, action, routeOK := jobs.ParseRoute(r.URL.Path, "/api/download/", jobs.BundleIDPrefix)
	if !routeOK || action != "results" {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Generic not-found for both unknown and foreign jobs.
	job := getDownloadJob(jobID)
	if job == nil || job.userID != userID {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	resp := map[string]interface{}{
		"id":      job.id,
		"status":  job.status,
		"bundles": job.bundles,
	}
	if job.errMsg != "" {
		resp["error"] = job.errMsg
	}
	respondJSON(w, http.StatusOK, resp)
}
