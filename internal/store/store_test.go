package store

import (
	"testing"
	"time"

	"github.com/fpang/snapgrade/internal/exif"
)

func TestApplyExifCopiesAllFields(t *testing.T) {
	taken := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	meta := &exif.Metadata{
		Latitude:    37.3349,
		Longitude:   -122.0090,
		HasGPS:      true,
		DateTaken:   taken,
		HasDate:     true,
		CameraMake:  "Canon",
		CameraModel: "EOS R6",
	}

	record := &ImageRecord{ImageID: "img-1"}
	record.ApplyExif(meta)

	if record.CameraMake != "Canon" || record.CameraModel != "EOS R6" {
		t.Errorf("camera = %q %q, want Canon EOS R6", record.CameraMake, record.CameraModel)
	}
	if !record.HasGPS {
		t.Error("HasGPS not set")
	}
	if record.Latitude != 37.3349 || record.Longitude != -122.0090 {
		t.Errorf("coordinates = %v, %v, want 37.3349, -122.0090", record.Latitude, record.Longitude)
	}
	if !record.TakenAt.Equal(taken) {
		t.Errorf("TakenAt = %v, want %v", record.TakenAt, taken)
	}
}

func TestApplyExifLeavesAbsentFieldsZero(t *testing.T) {
	record := &ImageRecord{ImageID: "img-2"}
	record.ApplyExif(&exif.Metadata{CameraMake: "Sony"})

	if record.HasGPS || record.Latitude != 0 || record.Longitude != 0 {
		t.Errorf("GPS fields set without HasGPS: %v %v %v", record.HasGPS, record.Latitude, record.Longitude)
	}
	if !record.TakenAt.IsZero() {
		t.Errorf("TakenAt = %v, want zero", record.TakenAt)
	}
	if record.CameraMake != "Sony" {
		t.Errorf("CameraMake = %q, want Sony", record.CameraMake)
	}
}
