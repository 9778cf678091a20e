package recognition

import (
	"fmt"
	"strings"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/plate"
	"gopkg.in/guregu/null.v4"
)

// Provider status tags. The plate-focus prompt answers with SUCCESS,
// NOT_VEHICLE or VEHICLE_NO_PLATE; the damage-focus prompt answers with
// SUCCESS, EXCEPT or ISSUE. Either "not a vehicle" tag is honoured from
// either prompt set.
const (
	tagSuccess        = "SUCCESS"
	tagNotVehicle     = "NOT_VEHICLE"
	tagVehicleNoPlate = "VEHICLE_NO_PLATE"
	tagExcept         = "EXCEPT"
	tagIssue          = "ISSUE"
)

// Messages used when a source produced nothing to quote.
const (
	MsgNoPlateInText  = "번호판 패턴을 찾을 수 없습니다."
	MsgPlateExtracted = "번호판 패턴이 추출되었습니다."
)

// FromVision adapts one prompt set of a vision report. An unknown status tag
// turns into a failed outcome.
func FromVision(source model.SourceID, raw RawVision) model.RecognitionOutcome {
	status, err := visionStatus(source, raw.Status)
	if err != nil {
		return Failed(source, err)
	}
	return model.NewOutcome(source, status, visionPlate(raw.Plate), raw.Message, null.String{})
}

// FromVisionReport adapts both prompt sets, plate-focus first.
func FromVisionReport(report VisionReport) []model.RecognitionOutcome {
	return []model.RecognitionOutcome{
		FromVision(model.SourcePlateFocus, report.PlateFocus),
		FromVision(model.SourceDamageFocus, report.DamageFocus),
	}
}

// FailedVision reports both prompt sets as failed by the same error.
func FailedVision(err error) []model.RecognitionOutcome {
	return []model.RecognitionOutcome{
		Failed(model.SourcePlateFocus, err),
		Failed(model.SourceDamageFocus, err),
	}
}

// FromText adapts the precision-OCR result. A nil raw means the call never
// happened. The recognized text is kept verbatim whether or not a plate was
// found in it.
func FromText(raw *RawText) model.RecognitionOutcome {
	if raw == nil {
		return Skipped(model.SourcePrecisionOCR, "OCR was not performed")
	}
	text := null.StringFrom(raw.Text)
	p, ok := plate.Extract(raw.Text)
	if !ok {
		return model.NewOutcome(model.SourcePrecisionOCR, model.StatusVehicleNoPlate, null.String{}, MsgNoPlateInText, text)
	}
	return model.NewOutcome(model.SourcePrecisionOCR, model.StatusSuccess, null.StringFrom(p), MsgPlateExtracted, text)
}

// Failed records an upstream failure for source.
func Failed(source model.SourceID, err error) model.RecognitionOutcome {
	msg := "recognition failed"
	if err != nil {
		msg = err.Error()
	}
	return model.NewOutcome(source, model.StatusFailed, null.String{}, msg, null.String{})
}

// Skipped records a deliberately omitted call for source.
func Skipped(source model.SourceID, reason string) model.RecognitionOutcome {
	return model.NewOutcome(source, model.StatusSkipped, null.String{}, reason, null.String{})
}

func visionStatus(source model.SourceID, tag string) (model.Status, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case tagSuccess:
		return model.StatusSuccess, nil
	case tagNotVehicle, tagExcept:
		return model.StatusNotAVehicle, nil
	case tagVehicleNoPlate:
		if source == model.SourcePlateFocus {
			return model.StatusVehicleNoPlate, nil
		}
	case tagIssue:
		if source == model.SourceDamageFocus {
			return model.StatusDamageIssue, nil
		}
	}
	return "", fmt.Errorf("%w: %s reported %q", ErrUnknownStatus, source, tag)
}

// visionPlate normalizes a model-reported plate. Text that wraps a plate
// ("plate: 12가 3456") is reduced to the plate; anything else is kept in
// normalized form so disagreements still surface during reconciliation.
func visionPlate(p *string) null.String {
	if p == nil {
		return null.String{}
	}
	n := plate.Normalize(*p)
	switch n {
	case "", "NULL", "N/A", "NONE":
		return null.String{}
	}
	if plate.Matches(n) {
		return null.StringFrom(n)
	}
	if extracted, ok := plate.Extract(*p); ok {
		return null.StringFrom(extracted)
	}
	return null.StringFrom(n)
}
