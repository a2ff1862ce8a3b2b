package main

import (
	"fmt"
	"regexp"
	"strings"
)

// --- Input Validation ---

// uuidRegex matches UUID v4 format: 8-4-4-4-12 lowercase hex with dashes.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// safeFilenameRegex allows alphanumeric, dots, hyphens, underscores, spaces, and parentheses.
var safeFilenameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ ()-]{0,254}$`)

func validateImageID(id string) error {
	if !uuidRegex.MatchString(id) {
		return fmt.Errorf("invalid imageId: must be a UUID")
	}
	return nil
}

func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("filename contains invalid characters")
	}
	if !safeFilenameRegex.MatchString(name) {
		return fmt.Errorf("filename contains invalid characters; only alphanumeric, dots, hyphens, underscores, spaces, and parentheses allowed")
	}
	return nil
}

// allowedContentTypes is the content-type allowlist for uploads. Only
// formats the codec package can decode are accepted.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// maxUploadSize bounds original uploads. Decoded grids are capped at
// codec.MaxDimension on each side, so this mostly guards S3 costs.
const maxUploadSize int64 = 50 * 1024 * 1024 // 50 MB
