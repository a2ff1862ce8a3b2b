package main

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/snapgrade/internal/codec"
	"github.com/fpang/snapgrade/internal/exif"
	"github.com/fpang/snapgrade/internal/s3util"
	"github.com/fpang/snapgrade/internal/store"
)

// viewURLExpiry is how long presigned GET URLs for image views stay valid.
const viewURLExpiry = 1 * time.Hour

// --- Presigned Upload URL ---

// GET /api/upload-url?filename=...&contentType=...
// Returns a presigned S3 PUT URL so the browser can upload directly to S3,
// plus the generated imageId to confirm with afterwards.
func handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filename := r.URL.Query().Get("filename")
	contentType := r.URL.Query().Get("contentType")
	if filename == "" || contentType == "" {
		httpError(w, http.StatusBadRequest, "filename and contentType are required")
		return
	}

	filename = filepath.Base(filename) // strip directory components
	if err := validateFilename(filename); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !allowedContentTypes[contentType] {
		httpError(w, http.StatusBadRequest, "unsupported content type: "+contentType)
		return
	}

	imageID := uuid.NewString()
	key := s3util.UploadKey(userID, imageID)

	url, err := s3util.PresignPut(r.Context(), s3c.Presigner, s3c.Bucket, key, contentType, 15*time.Minute)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to generate upload URL", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": url,
		"imageId":   imageID,
		"filename":  filename,
	})
}

// --- Image Registration ---

// POST /api/images/confirm
// Body: {"imageId": "uuid", "name": "vacation.jpg"}
//
// Called after the browser finishes its presigned upload. Reads the object
// back, validates it decodes, extracts dimensions and EXIF metadata, and
// writes the image record.
func handleImageConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageID string `json:"imageId"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateImageID(req.ImageID); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := filepath.Base(req.Name)
	if err := validateFilename(name); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := s3util.UploadKey(userID, req.ImageID)
	data, err := s3util.Download(r.Context(), s3c.Client, s3c.Bucket, key)
	if err != nil {
		httpError(w, http.StatusNotFound, "uploaded image not found", err.Error())
		return
	}
	if int64(len(data)) > maxUploadSize {
		httpError(w, http.StatusBadRequest, "image exceeds size limit")
		return
	}

	width, height, format, err := codec.DecodeConfig(data)
	if err != nil {
		httpError(w, http.StatusBadRequest, "uploaded object is not a supported image")
		return
	}

	record := &store.ImageRecord{
		ImageID:     req.ImageID,
		UserID:      userID,
		Name:        name,
		Key:         key,
		ContentType: "image/" + format,
		SizeBytes:   int64(len(data)),
		Width:       width,
		Height:      height,
		UploadedAt:  time.Now(),
	}

	// EXIF is best effort: PNGs and stripped JPEGs simply have none.
	if meta, err := exif.Extract(data); err == nil {
		record.ApplyExif(meta)
	} else {
		log.Debug().Err(err).Str("imageId", req.ImageID).Msg("No EXIF metadata extracted")
	}

	if err := db.PutImage(r.Context(), record); err != nil {
		httpError(w, http.StatusInternalServerError, "failed to save image record", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// --- Image Listing ---

// GET /api/images
func handleListImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	images, err := db.ListImages(r.Context(), userID, 100)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to list images", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"images": images,
		"count":  len(images),
	})
}

// --- Single Image Routes ---

// GET    /api/images/{id} — metadata plus a presigned view URL
// DELETE /api/images/{id} — remove the record and the S3 object
func handleImageRoutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	imageID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/images/"), "/")
	if err := validateImageID(imageID); err != nil {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	record, err := db.GetImage(r.Context(), userID, imageID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to load image record", err.Error())
		return
	}
	if record == nil {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		url, err := s3util.PresignGet(r.Context(), s3c.Presigner, s3c.Bucket, record.Key, viewURLExpiry)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to generate view URL", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"image":   record,
			"viewUrl": url,
		})

	case http.MethodDelete:
		if err := s3util.Delete(r.Context(), s3c.Client, s3c.Bucket, record.Key); err != nil {
			httpError(w, http.StatusInternalServerError, "failed to delete image", err.Error())
			return
		}
		if err := db.DeleteImage(r.Context(), userID, imageID); err != nil {
			httpError(w, http.StatusInternalServerError, "failed to delete image record", err.Error())
			return
		}
		log.Info().Str("imageId", imageID).Msg("Image deleted")
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
