package vision

import (
	"context"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
)

// Static returns a fixed report for every image. It backs local runs
// without provider credentials and tests.
type Static struct {
	Report recognition.VisionReport
	Err    error
}

var _ recognition.VisionProvider = (*Static)(nil)

// NewStatic returns a provider that always reports plate for both prompt
// sets. An empty plate reports a vehicle without a readable plate.
func NewStatic(plate string) *Static {
	if plate == "" {
		return &Static{Report: recognition.VisionReport{
			PlateFocus:  recognition.RawVision{Status: "VEHICLE_NO_PLATE", Message: "번호판을 찾을 수 없습니다."},
			DamageFocus: recognition.RawVision{Status: "SUCCESS", Message: "정상 차량입니다."},
		}}
	}
	return &Static{Report: recognition.VisionReport{
		PlateFocus:  recognition.RawVision{Status: "SUCCESS", Plate: &plate, Message: "성공"},
		DamageFocus: recognition.RawVision{Status: "SUCCESS", Plate: &plate, Message: "정상 차량입니다."},
	}}
}

func (s *Static) Name() string { return "stub" }

func (s *Static) Analyze(ctx context.Context, _ model.Image) (recognition.VisionReport, error) {
	if err := ctx.Err(); err != nil {
		return recognition.VisionReport{}, err
	}
	return s.Report, s.Err
}
