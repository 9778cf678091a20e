package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/metrics"
)

// detectTextAPI is the subset of *rekognition.Client the adapter calls.
type detectTextAPI interface {
	DetectText(ctx context.Context, in *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition reads text with AWS Rekognition DetectText. Only LINE
// detections are joined; WORD detections repeat the same text.
//
// DetectText recognizes Latin script only. Korean plates carry a Hangul
// class syllable, so its output almost never holds a full plate and the
// cross-check usually ends as vehicle_no_plate. It is useful for digit
// readings in the raw text, not as a plate reader.
type Rekognition struct {
	api detectTextAPI
}

var _ recognition.TextProvider = (*Rekognition)(nil)

// NewRekognition loads the default AWS credential chain for region.
func NewRekognition(ctx context.Context, region string) (*Rekognition, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Rekognition{api: rekognition.NewFromConfig(cfg)}, nil
}

func (r *Rekognition) Name() string { return "rekognition" }

func (r *Rekognition) ReadText(ctx context.Context, img model.Image) (recognition.RawText, error) {
	start := time.Now()
	out, err := r.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: img.Data},
	})
	metrics.RecordUpstreamCall(r.Name(), float64(time.Since(start).Milliseconds()), err != nil)
	if err != nil {
		return recognition.RawText{}, fmt.Errorf("rekognition detect text: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type != types.TextTypesLine {
			continue
		}
		if text := strings.TrimSpace(aws.ToString(d.DetectedText)); text != "" {
			lines = append(lines, text)
		}
	}
	return recognition.RawText{Text: strings.Join(lines, " ")}, nil
}
