// Package recognition turns the heterogeneous responses of upstream
// recognizers into model.RecognitionOutcome values.
//
// Providers never hand errors to the reconciler: a failed, timed out or
// skipped call becomes a failed or skipped outcome here.
package recognition

import (
	"context"

	"github.com/okian/platecheck/internal/domain/model"
)

// RawVision is what one vision prompt set reports, in the provider's own
// vocabulary.
type RawVision struct {
	Status  string  `json:"status"`
	Plate   *string `json:"plate"`
	Message string  `json:"message"`
}

// VisionReport carries both prompt sets applied to the same image.
type VisionReport struct {
	PlateFocus  RawVision `json:"analysisA"`
	DamageFocus RawVision `json:"analysisB"`
}

// RawText is the recognized text of a dedicated OCR service.
type RawText struct {
	Text string
}

// VisionProvider runs the plate-focus and damage-focus prompt sets against
// one image.
type VisionProvider interface {
	Name() string
	Analyze(ctx context.Context, img model.Image) (VisionReport, error)
}

// TextProvider reads all text in one image.
type TextProvider interface {
	Name() string
	ReadText(ctx context.Context, img model.Image) (RawText, error)
}
