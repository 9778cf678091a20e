package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Consistency is the agreement verdict over the plates reported for one image.
type Consistency string

// Consistency verdicts.
const (
	Consistent    Consistency = "consistent"
	Inconsistent  Consistency = "inconsistent"
	Indeterminate Consistency = "indeterminate"
)

func (c Consistency) String() string { return string(c) }

// ModelTier names the upstream provider set used for an image.
type ModelTier string

// Model tiers. Premium adds the precision-OCR cross-check.
const (
	TierStandard ModelTier = "standard"
	TierPremium  ModelTier = "premium"
)

func (t ModelTier) String() string { return string(t) }

// ParseModelTier accepts "standard" or "premium"; empty means standard.
func ParseModelTier(s string) (ModelTier, error) {
	switch ModelTier(s) {
	case "", TierStandard:
		return TierStandard, nil
	case TierPremium:
		return TierPremium, nil
	default:
		return "", fmt.Errorf("unknown model tier %q", s)
	}
}

// RecordFields carries everything a ComparisonRecord is made of.
type RecordFields struct {
	ID              string
	Timestamp       time.Time
	ImageRef        ImageRef
	FileName        string
	VehicleDetected bool
	Outcomes        []RecognitionOutcome
	Consistency     Consistency
	ModelTier       ModelTier
	PlateDistance   int
}

// ComparisonRecord is the reconciled result for one processed image.
// It is never mutated after construction; corrections need a new record.
type ComparisonRecord struct {
	f RecordFields
}

// NewComparisonRecord copies fields into a record. Validation belongs to the
// record builder.
func NewComparisonRecord(fields RecordFields) *ComparisonRecord {
	outcomes := make([]RecognitionOutcome, len(fields.Outcomes))
	copy(outcomes, fields.Outcomes)
	fields.Outcomes = outcomes
	return &ComparisonRecord{f: fields}
}

func (r *ComparisonRecord) ID() string               { return r.f.ID }
func (r *ComparisonRecord) Timestamp() time.Time     { return r.f.Timestamp }
func (r *ComparisonRecord) ImageRef() ImageRef       { return r.f.ImageRef }
func (r *ComparisonRecord) FileName() string         { return r.f.FileName }
func (r *ComparisonRecord) VehicleDetected() bool    { return r.f.VehicleDetected }
func (r *ComparisonRecord) Consistency() Consistency { return r.f.Consistency }
func (r *ComparisonRecord) ModelTier() ModelTier     { return r.f.ModelTier }

// PlateDistance is the largest edit distance between any two reported
// plates. It is informational and never affects Consistency.
func (r *ComparisonRecord) PlateDistance() int { return r.f.PlateDistance }

// Outcomes returns a copy of the ordered outcomes.
func (r *ComparisonRecord) Outcomes() []RecognitionOutcome {
	out := make([]RecognitionOutcome, len(r.f.Outcomes))
	copy(out, r.f.Outcomes)
	return out
}

// Outcome returns the outcome reported by source, if it was queried.
func (r *ComparisonRecord) Outcome(source SourceID) (RecognitionOutcome, bool) {
	for _, o := range r.f.Outcomes {
		if o.source == source {
			return o, true
		}
	}
	return RecognitionOutcome{}, false
}

// PlateFor returns the plate reported by source; null when the source was
// not queried or reported none.
func (r *ComparisonRecord) PlateFor(source SourceID) null.String {
	o, ok := r.Outcome(source)
	if !ok {
		return null.String{}
	}
	return o.plate
}

// AllFailed reports whether no source produced a judgment.
func (r *ComparisonRecord) AllFailed() bool {
	for _, o := range r.f.Outcomes {
		if !o.status.IsFailure() {
			return false
		}
	}
	return true
}

// ExportRow is the flat tabular view of a record used by exporters.
type ExportRow struct {
	FileName     string
	PlateFocus   null.String
	DamageFocus  null.String
	PrecisionOCR null.String
	Consistency  Consistency
}

// ExportRow flattens the record for delimited-text export.
func (r *ComparisonRecord) ExportRow() ExportRow {
	return ExportRow{
		FileName:     r.f.FileName,
		PlateFocus:   r.PlateFor(SourcePlateFocus),
		DamageFocus:  r.PlateFor(SourceDamageFocus),
		PrecisionOCR: r.PlateFor(SourcePrecisionOCR),
		Consistency:  r.f.Consistency,
	}
}

type recordJSON struct {
	ID              string               `json:"id"`
	Timestamp       time.Time            `json:"timestamp"`
	ImageRef        ImageRef             `json:"image_ref"`
	FileName        string               `json:"file_name"`
	VehicleDetected bool                 `json:"vehicle_detected"`
	Outcomes        []RecognitionOutcome `json:"outcomes"`
	Consistency     Consistency          `json:"consistency"`
	ModelTier       ModelTier            `json:"model_tier"`
	PlateDistance   int                  `json:"plate_distance"`
}

// MarshalJSON encodes the record for the HTTP API.
func (r *ComparisonRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON(r.f))
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (r *ComparisonRecord) UnmarshalJSON(b []byte) error {
	var v recordJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = *NewComparisonRecord(RecordFields(v))
	return nil
}
