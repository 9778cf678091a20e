// Package record assembles immutable comparison records from reconciled
// outcomes.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/reconcile"
)

// Input is everything the builder needs for one image.
type Input struct {
	ImageRef model.ImageRef
	FileName string
	Tier     model.ModelTier
	Outcomes []model.RecognitionOutcome
	Verdict  reconcile.Verdict
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator overrides record identity generation.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// Builder creates ComparisonRecords. It is safe for concurrent use as long
// as the configured clock and generator are.
type Builder struct {
	now   func() time.Time
	newID func() string
}

// NewBuilder returns a builder using UTC wall time and random UUIDs.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates the outcome set and returns a fresh record. Missing or
// failed sources never make it fail; only an empty set or a repeated source
// does.
func (b *Builder) Build(in Input) (*model.ComparisonRecord, error) {
	if len(in.Outcomes) == 0 {
		return nil, ErrNoOutcomes
	}
	seen := make(map[model.SourceID]struct{}, len(in.Outcomes))
	for _, o := range in.Outcomes {
		if _, dup := seen[o.Source()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, o.Source())
		}
		seen[o.Source()] = struct{}{}
	}
	tier := in.Tier
	if tier == "" {
		tier = model.TierStandard
	}

	return model.NewComparisonRecord(model.RecordFields{
		ID:              b.newID(),
		Timestamp:       b.now(),
		ImageRef:        in.ImageRef,
		FileName:        in.FileName,
		VehicleDetected: in.Verdict.VehicleDetected,
		Outcomes:        in.Outcomes,
		Consistency:     in.Verdict.Consistency,
		ModelTier:       tier,
		PlateDistance:   in.Verdict.PlateDistance,
	}), nil
}

// Assemble reconciles outcomes and builds the record in one step.
func (b *Builder) Assemble(ref model.ImageRef, fileName string, tier model.ModelTier, outcomes []model.RecognitionOutcome) (*model.ComparisonRecord, error) {
	return b.Build(Input{
		ImageRef: ref,
		FileName: fileName,
		Tier:     tier,
		Outcomes: outcomes,
		Verdict:  reconcile.Reconcile(outcomes),
	})
}
