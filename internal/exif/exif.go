// Package exif extracts camera metadata from uploaded image bytes using
// the evanoberholster/imagemeta library. The library reads only the
// metadata blocks it needs, so extraction stays cheap even for large
// uploads, and it degrades gracefully on formats with little metadata
// (PNG, WebP).
package exif

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Metadata is the subset of EXIF data kept with an image record.
type Metadata struct {
	// GPS coordinates, converted from EXIF Rational format.
	Latitude  float64
	Longitude float64
	HasGPS    bool

	// Capture timestamp, with the DateTimeOriginal > CreateDate >
	// ModifyDate fallback chain.
	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string
}

// Extract parses EXIF metadata from encoded image bytes. An image without
// usable metadata is not an error; the caller checks the Has* fields.
func Extract(data []byte) (*Metadata, error) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	meta := &Metadata{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		meta.Latitude = gps.Latitude()
		meta.Longitude = gps.Longitude()
		meta.HasGPS = true
	}

	switch {
	case !exifData.DateTimeOriginal().IsZero():
		meta.DateTaken = exifData.DateTimeOriginal()
		meta.HasDate = true
	case !exifData.CreateDate().IsZero():
		meta.DateTaken = exifData.CreateDate()
		meta.HasDate = true
	case !exifData.ModifyDate().IsZero():
		meta.DateTaken = exifData.ModifyDate()
		meta.HasDate = true
	}

	log.Debug().
		Bool("has_gps", meta.HasGPS).
		Bool("has_date", meta.HasDate).
		Str("camera", strings.TrimSpace(meta.CameraMake+" "+meta.CameraModel)).
		Msg("Image metadata extraction complete")

	return meta, nil
}
