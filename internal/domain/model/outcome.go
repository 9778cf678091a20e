// Package model contains the domain values passed between layers:
// recognition outcomes, comparison records and the enums that classify them.
package model

import (
	"encoding/json"
	"strings"

	"gopkg.in/guregu/null.v4"
)

// SourceID identifies one independent recognizer.
type SourceID string

// Recognition sources, in the order they appear in a record.
const (
	SourcePlateFocus   SourceID = "plate_focus"
	SourceDamageFocus  SourceID = "damage_focus"
	SourcePrecisionOCR SourceID = "precision_ocr"
)

// Sources lists every source in canonical order.
var Sources = []SourceID{SourcePlateFocus, SourceDamageFocus, SourcePrecisionOCR}

// IsVision reports whether the source is one of the vision-model prompt sets.
func (s SourceID) IsVision() bool {
	return s == SourcePlateFocus || s == SourceDamageFocus
}

// Valid reports whether s is a known source.
func (s SourceID) Valid() bool {
	return s.IsVision() || s == SourcePrecisionOCR
}

func (s SourceID) String() string { return string(s) }

// Status is the judgment of one source about one image.
type Status string

// Outcome statuses.
const (
	StatusSuccess        Status = "success"
	StatusNotAVehicle    Status = "not_a_vehicle"
	StatusVehicleNoPlate Status = "vehicle_no_plate"
	StatusDamageIssue    Status = "damage_issue"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
)

func (s Status) String() string { return string(s) }

// IsFailure reports whether the source produced no judgment at all.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusSkipped
}

// RecognitionOutcome is one source's judgment of one image. It is a value:
// once built with NewOutcome it cannot be changed.
type RecognitionOutcome struct {
	source  SourceID
	status  Status
	plate   null.String
	message string
	rawText null.String
}

// NewOutcome builds an outcome. An empty or whitespace-only plate is stored
// as null.
func NewOutcome(source SourceID, status Status, plate null.String, message string, rawText null.String) RecognitionOutcome {
	if plate.Valid && strings.TrimSpace(plate.String) == "" {
		plate = null.String{}
	}
	return RecognitionOutcome{
		source:  source,
		status:  status,
		plate:   plate,
		message: message,
		rawText: rawText,
	}
}

func (o RecognitionOutcome) Source() SourceID { return o.source }
func (o RecognitionOutcome) Status() Status   { return o.status }

// Plate returns the normalized plate, null when the source reported none.
func (o RecognitionOutcome) Plate() null.String { return o.plate }

// HasPlate reports whether the source reported a plate.
func (o RecognitionOutcome) HasPlate() bool { return o.plate.Valid }

func (o RecognitionOutcome) Message() string { return o.message }

// RawText is the verbatim recognized text of OCR-style sources.
func (o RecognitionOutcome) RawText() null.String { return o.rawText }

type outcomeJSON struct {
	Source  SourceID    `json:"source"`
	Status  Status      `json:"status"`
	Plate   null.String `json:"plate"`
	Message string      `json:"message"`
	RawText null.String `json:"raw_text"`
}

// MarshalJSON encodes the outcome; null plates and raw text encode as null.
func (o RecognitionOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON{
		Source:  o.source,
		Status:  o.status,
		Plate:   o.plate,
		Message: o.message,
		RawText: o.rawText,
	})
}

// UnmarshalJSON decodes an outcome written by MarshalJSON.
func (o *RecognitionOutcome) UnmarshalJSON(b []byte) error {
	var v outcomeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = NewOutcome(v.Source, v.Status, v.Plate, v.Message, v.RawText)
	return nil
}
