package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/plate"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/pkg/logger"
	"github.com/okian/platecheck/pkg/metrics"
)

// Skip reasons for the OCR cross-check.
const (
	reasonNoTextProvider = "OCR provider is not configured"
	reasonNoVisionResult = "no vision source returned a plate reading"
)

// ProcessImage runs one image through the recognition pipeline and appends
// the record to history. Provider failures end up as failed outcomes in the
// record; an error is only returned when no record could be produced.
func (s *Service) ProcessImage(ctx context.Context, img model.Image, tier model.ModelTier) (*model.ComparisonRecord, error) {
	if s.vision == nil {
		return nil, ErrNoVisionProvider
	}
	if img.Ref == "" {
		img = model.NewImage(img.FileName, img.MIMEType, img.Data)
	}
	if tier == "" {
		tier = model.TierStandard
	}

	start := time.Now()
	outcomes := s.recognize(ctx, img, tier)

	rec, err := s.builder.Assemble(img.Ref, img.FileName, tier, outcomes)
	if err != nil {
		metrics.RecordImageFailed()
		return nil, fmt.Errorf("assemble record for %q: %w", img.FileName, err)
	}
	if err := s.history.Append(ctx, rec); err != nil {
		metrics.RecordImageFailed()
		return nil, fmt.Errorf("store record %s: %w", rec.ID(), err)
	}

	took := time.Since(start)
	observe(rec, took)
	s.logger.Debug(ctx, "record built",
		logger.String("record_id", rec.ID()),
		logger.String("file", rec.FileName()),
		logger.String("tier", tier.String()),
		logger.String("consistency", rec.Consistency().String()),
		logger.Bool("vehicle", rec.VehicleDetected()),
		logger.Duration("took", took),
	)
	return rec, nil
}

// ProcessBatch processes images one after another and returns one record
// per image in input order. A failing image yields a record with failed
// outcomes and does not stop the batch.
func (s *Service) ProcessBatch(ctx context.Context, images []model.Image, tier model.ModelTier) ([]*model.ComparisonRecord, error) {
	records := make([]*model.ComparisonRecord, 0, len(images))
	err := s.processSequential(ctx, images, tier, func(rec *model.ComparisonRecord) {
		records = append(records, rec)
	})
	return records, err
}

func (s *Service) processSequential(ctx context.Context, images []model.Image, tier model.ModelTier, onRecord func(*model.ComparisonRecord)) error {
	for i := range images {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch interrupted after %d of %d images: %w", i, len(images), err)
		}
		rec, err := s.ProcessImage(ctx, images[i], tier)
		if err != nil {
			return err
		}
		onRecord(rec)
	}
	return nil
}

// recognize never fails: provider errors and panics are folded into failed
// outcomes.
func (s *Service) recognize(ctx context.Context, img model.Image, tier model.ModelTier) (outcomes []model.RecognitionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPipelinePanic, r)
			s.logger.Error(ctx, "recognition panicked",
				logger.String("file", img.FileName),
				logger.Error(err),
			)
			outcomes = failedOutcomes(tier, err)
		}
	}()

	outcomes = s.analyze(ctx, img)
	if tier == model.TierPremium {
		outcomes = append(outcomes, s.crossCheck(ctx, img, outcomes))
	}
	return outcomes
}

func (s *Service) analyze(ctx context.Context, img model.Image) []model.RecognitionOutcome {
	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	report, err := s.vision.Analyze(callCtx, img)
	if err != nil {
		s.logger.Warn(ctx, "vision analysis failed",
			logger.String("provider", s.vision.Name()),
			logger.String("file", img.FileName),
			logger.Error(err),
		)
		return recognition.FailedVision(err)
	}
	return recognition.FromVisionReport(report)
}

// crossCheck runs OCR only when a vision source produced a successful
// reading.
func (s *Service) crossCheck(ctx context.Context, img model.Image, vision []model.RecognitionOutcome) model.RecognitionOutcome {
	if s.text == nil {
		return recognition.Skipped(model.SourcePrecisionOCR, reasonNoTextProvider)
	}
	if !anySuccess(vision) {
		return recognition.Skipped(model.SourcePrecisionOCR, reasonNoVisionResult)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	raw, err := s.text.ReadText(callCtx, img)
	if err != nil {
		s.logger.Warn(ctx, "OCR failed",
			logger.String("provider", s.text.Name()),
			logger.String("file", img.FileName),
			logger.Error(err),
		)
		return recognition.Failed(model.SourcePrecisionOCR, err)
	}
	if candidates := plate.ExtractAll(raw.Text); len(candidates) > 1 {
		chosen, _ := plate.Extract(raw.Text)
		s.logger.Debug(ctx, "several plate candidates in OCR text",
			logger.String("file", img.FileName),
			logger.Strings("candidates", candidates),
			logger.String("chosen", chosen),
		)
	}
	return recognition.FromText(&raw)
}

func anySuccess(outcomes []model.RecognitionOutcome) bool {
	for _, o := range outcomes {
		if o.Status() == model.StatusSuccess {
			return true
		}
	}
	return false
}

func failedOutcomes(tier model.ModelTier, err error) []model.RecognitionOutcome {
	out := recognition.FailedVision(err)
	if tier == model.TierPremium {
		out = append(out, recognition.Failed(model.SourcePrecisionOCR, err))
	}
	return out
}

func observe(rec *model.ComparisonRecord, took time.Duration) {
	metrics.RecordImageProcessed(float64(took.Milliseconds()))
	for _, o := range rec.Outcomes() {
		metrics.RecordOutcome(o.Source().String(), o.Status().String())
	}
	metrics.RecordConsistency(rec.Consistency().String())
	metrics.RecordVehicleVerdict(rec.VehicleDetected())
}
